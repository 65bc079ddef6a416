package silver

const tierSelectors = "css_selectors"

// selectorRule is one candidate selector for a field, in priority
// order, paired with the confidence Tier 2 assigns when it wins.
type selectorRule struct {
	selector   string
	confidence float64
}

var tier2Selectors = map[string][]selectorRule{
	FieldSchoolName: {
		{`[data-test-id="school-name"]`, 85},
		{`h1.school-name`, 90},
		{`h1`, 90},
		{`title`, 70},
	},
	FieldNCESId: {
		{`[data-test-id="nces-id"]`, 85},
		{`.nces-id`, 85},
	},
	FieldGradesServed: {
		{`[data-test-id="grades-served"]`, 85},
		{`.grades-served`, 85},
	},
	FieldStreetAddress: {
		{`[data-test-id="street-address"]`, 85},
		{`.address .street`, 85},
	},
	FieldCity: {
		{`[data-test-id="city"]`, 85},
		{`.address .city`, 85},
	},
	FieldState: {
		{`[data-test-id="state"]`, 85},
		{`.address .state`, 85},
	},
	FieldZip: {
		{`[data-test-id="zip"]`, 85},
		{`.address .zip`, 85},
	},
	FieldPhone: {
		{`[data-test-id="phone"]`, 85},
		{`.contact .phone`, 85},
	},
	FieldWebsite: {
		{`[data-test-id="website"]`, 85},
		{`.contact .website a`, 85},
	},
	FieldSetting: {
		{`[data-test-id="setting"]`, 85},
		{`.school-setting`, 85},
	},
	FieldEnrollment: {
		{`[data-test-id="enrollment"]`, 85},
		{`.enrollment-value`, 85},
	},
	FieldStudentTeacherRatio: {
		{`[data-test-id="student-teacher-ratio"]`, 85},
		{`.student-teacher-ratio`, 85},
	},
	FieldTeacherCount: {
		{`[data-test-id="teacher-count"]`, 85},
		{`.teacher-count`, 85},
	},
	FieldNationalRank: {
		{`[data-test-id="national-rank"]`, 85},
		{`.national-rank`, 85},
	},
	FieldStateRank: {
		{`[data-test-id="state-rank"]`, 85},
		{`.state-rank`, 85},
	},
	FieldAPParticipationRate: {
		{`[data-test-id="ap-participation-rate"]`, 85},
		{`.ap-participation-rate`, 85},
	},
	FieldAPPassRate: {
		{`[data-test-id="ap-pass-rate"]`, 85},
		{`.ap-pass-rate`, 85},
	},
	FieldMathProficiency: {
		{`[data-test-id="math-proficiency"]`, 85},
		{`.math-proficiency`, 85},
	},
	FieldReadingProficiency: {
		{`[data-test-id="reading-proficiency"]`, 85},
		{`.reading-proficiency`, 85},
	},
	FieldScienceProficiency: {
		{`[data-test-id="science-proficiency"]`, 85},
		{`.science-proficiency`, 85},
	},
	FieldGraduationRate: {
		{`[data-test-id="graduation-rate"]`, 85},
		{`.graduation-rate`, 85},
	},
	FieldCollegeReadinessIndex: {
		{`[data-test-id="college-readiness-index"]`, 85},
		{`.college-readiness-index`, 85},
	},
	FieldWhitePct: {
		{`[data-test-id="race-white"]`, 85},
	},
	FieldBlackPct: {
		{`[data-test-id="race-black"]`, 85},
	},
	FieldHispanicPct: {
		{`[data-test-id="race-hispanic"]`, 85},
	},
	FieldAsianPct: {
		{`[data-test-id="race-asian"]`, 85},
	},
	FieldAmericanIndianPct: {
		{`[data-test-id="race-american-indian"]`, 85},
	},
	FieldPacificIslanderPct: {
		{`[data-test-id="race-pacific-islander"]`, 85},
	},
	FieldTwoOrMoreRacesPct: {
		{`[data-test-id="race-two-or-more"]`, 85},
	},
	FieldMalePct: {
		{`[data-test-id="gender-male"]`, 85},
	},
	FieldFemalePct: {
		{`[data-test-id="gender-female"]`, 85},
	},
	FieldEconomicallyDisadvantagedPct: {
		{`[data-test-id="economically-disadvantaged"]`, 85},
	},
	FieldFreeLunchPct: {
		{`[data-test-id="free-lunch"]`, 85},
	},
	FieldReducedLunchPct: {
		{`[data-test-id="reduced-lunch"]`, 85},
	},
}

// percentageFields lists every field validated with parsePercentage.
var percentageFields = map[string]bool{
	FieldAPParticipationRate: true, FieldAPPassRate: true,
	FieldMathProficiency: true, FieldReadingProficiency: true, FieldScienceProficiency: true,
	FieldGraduationRate: true, FieldCollegeReadinessIndex: true,
	FieldWhitePct: true, FieldBlackPct: true, FieldHispanicPct: true, FieldAsianPct: true,
	FieldAmericanIndianPct: true, FieldPacificIslanderPct: true, FieldTwoOrMoreRacesPct: true,
	FieldMalePct: true, FieldFemalePct: true,
	FieldEconomicallyDisadvantagedPct: true, FieldFreeLunchPct: true, FieldReducedLunchPct: true,
}

// ExtractViaSelectors is Tier 2: for every field, it tries candidate
// selectors in priority order and keeps the first value that passes
// the field's validator.
func ExtractViaSelectors(ctx *ExtractionContext) map[string]FieldResult {
	out := map[string]FieldResult{}

	for field, rules := range tier2Selectors {
		for _, rule := range rules {
			raw, ok := ctx.TextAt(rule.selector)
			if !ok {
				continue
			}
			if value, valid := validateField(field, raw); valid {
				out[field] = FieldResult{Value: value, Confidence: rule.confidence}
				break
			}
		}
	}

	if website, ok := ctx.AttrAt(`.contact .website a`, "href"); ok && website != "" {
		if _, exists := out[FieldWebsite]; !exists {
			out[FieldWebsite] = FieldResult{Value: website, Confidence: 85}
		}
	}

	return out
}

// validateField dispatches raw selector text to the field's validator,
// returning the typed value Tier 2 should store.
func validateField(field, raw string) (interface{}, bool) {
	switch field {
	case FieldSchoolName:
		return validSchoolName(raw)
	case FieldNCESId:
		return validNCESId(raw)
	case FieldGradesServed:
		return validGradesServed(raw)
	case FieldZip:
		return validZip(raw)
	case FieldPhone:
		return normalizePhone(raw)
	case FieldStudentTeacherRatio:
		return validRatio(raw)
	case FieldNationalRank:
		return parseRank(raw, 50000)
	case FieldStateRank:
		return parseRank(raw, 5000)
	case FieldEnrollment:
		return parseNumber(raw, 10, 10000)
	case FieldTeacherCount:
		return parseNumber(raw, 1, 2000)
	default:
		if percentageFields[field] {
			return parsePercentage(raw)
		}
		if raw == "" {
			return nil, false
		}
		return raw, true
	}
}
