package silver

import "regexp"

const tierRegexFallback = "regex_fallback"

// tier3Rule pairs a whole-content regex with the field it fills and how
// to interpret the captured group.
type tier3Rule struct {
	field   string
	pattern *regexp.Regexp
	kind    string // "string", "int", "percentage"
}

// regexFallbackCatalog is Tier 3: patterns keyed by field, attempted
// only when Tier 2 failed, confidence capped at 70.
var regexFallbackCatalog = []tier3Rule{
	{FieldEnrollment, regexp.MustCompile(`[Ee]nrollment(?: of|:)?\s*([\d,]+)\s*students`), "enrollment"},
	{FieldStudentTeacherRatio, regexp.MustCompile(`(\d{1,2}:\d)\s*student[- ]teacher ratio`), "string"},
	{FieldNationalRank, regexp.MustCompile(`#(\d{1,5})\s*(?:in|nationally)`), "rank_national"},
	{FieldStateRank, regexp.MustCompile(`#(\d{1,4})\s*in\s*[A-Z][a-zA-Z ]+`), "rank_state"},
	{FieldPhone, regexp.MustCompile(`\(?\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}`), "string"},
	{FieldGradesServed, regexp.MustCompile(`[Gg]rades?\s+((?:K-|PK-)?\d{1,2}-\d{1,2})`), "string"},
	{FieldGraduationRate, regexp.MustCompile(`graduation rate(?: of|:)?\s*(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldAPParticipationRate, regexp.MustCompile(`AP participation(?: rate)?(?: of|:)?\s*(\d{1,3})%`), "percentage"},
	{FieldAPPassRate, regexp.MustCompile(`AP pass rate(?: of|:)?\s*(\d{1,3})%`), "percentage"},
	{FieldMathProficiency, regexp.MustCompile(`[Mm]ath proficiency(?: of|:)?\s*(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldReadingProficiency, regexp.MustCompile(`[Rr]eading proficiency(?: of|:)?\s*(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldScienceProficiency, regexp.MustCompile(`[Ss]cience proficiency(?: of|:)?\s*(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldWhitePct, regexp.MustCompile(`[Ww]hite[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldBlackPct, regexp.MustCompile(`[Bb]lack[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldHispanicPct, regexp.MustCompile(`[Hh]ispanic[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldAsianPct, regexp.MustCompile(`[Aa]sian[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldMalePct, regexp.MustCompile(`[Mm]ale[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldFemalePct, regexp.MustCompile(`[Ff]emale[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
	{FieldEconomicallyDisadvantagedPct, regexp.MustCompile(`economically disadvantaged[^0-9%]{0,15}(\d{1,3}(?:\.\d+)?)%`), "percentage"},
}

// ExtractViaRegexFallback runs the Tier 3 catalog against every field
// Tier 2 left unfilled.
func ExtractViaRegexFallback(ctx *ExtractionContext, alreadyFilled map[string]bool) map[string]FieldResult {
	out := map[string]FieldResult{}
	for _, rule := range regexFallbackCatalog {
		if alreadyFilled[rule.field] {
			continue
		}
		raw, ok := ctx.Match(rule.pattern.String())
		if !ok {
			continue
		}
		value, valid := interpretTier3(rule.kind, raw)
		if !valid {
			continue
		}
		out[rule.field] = FieldResult{Value: value, Confidence: 70}
	}
	return out
}

func interpretTier3(kind, raw string) (interface{}, bool) {
	switch kind {
	case "enrollment":
		return parseNumber(raw, 10, 10000)
	case "rank_national":
		return parseRank(raw, 50000)
	case "rank_state":
		return parseRank(raw, 5000)
	case "percentage":
		return parsePercentage(raw)
	default:
		if raw == "" {
			return nil, false
		}
		return raw, true
	}
}
