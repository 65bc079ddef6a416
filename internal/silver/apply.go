package silver

import "github.com/jshin42/highschooltrends-v2-sub000/internal/storage"

// ApplyToRecord sets every populated field in merged onto rec, type
// switching per field since storage.SilverRecord's payload is a flat
// set of nullable typed pointers rather than a dynamic map.
func ApplyToRecord(rec *storage.SilverRecord, merged map[string]FieldResult) {
	for field, result := range merged {
		if !result.ok() {
			continue
		}
		switch field {
		case FieldSchoolName:
			rec.SchoolName = strPtr(result.Value)
		case FieldNCESId:
			rec.NCESId = strPtr(result.Value)
		case FieldGradesServed:
			rec.GradesServed = strPtr(result.Value)
		case FieldStreetAddress:
			rec.StreetAddress = strPtr(result.Value)
		case FieldCity:
			rec.City = strPtr(result.Value)
		case FieldState:
			rec.State = strPtr(result.Value)
		case FieldZip:
			rec.Zip = strPtr(result.Value)
		case FieldPhone:
			rec.Phone = strPtr(result.Value)
		case FieldWebsite:
			rec.Website = strPtr(result.Value)
		case FieldSetting:
			rec.Setting = strPtr(result.Value)
		case FieldEnrollment:
			rec.Enrollment = intPtr(result.Value)
		case FieldStudentTeacherRatio:
			rec.StudentTeacherRatio = strPtr(result.Value)
		case FieldTeacherCount:
			rec.TeacherCount = intPtr(result.Value)
		case FieldNationalRank:
			rec.NationalRank = intPtr(result.Value)
		case FieldStateRank:
			rec.StateRank = intPtr(result.Value)
		case FieldAPParticipationRate:
			rec.APParticipationRate = floatPtr(result.Value)
		case FieldAPPassRate:
			rec.APPassRate = floatPtr(result.Value)
		case FieldMathProficiency:
			rec.MathProficiency = floatPtr(result.Value)
		case FieldReadingProficiency:
			rec.ReadingProficiency = floatPtr(result.Value)
		case FieldScienceProficiency:
			rec.ScienceProficiency = floatPtr(result.Value)
		case FieldGraduationRate:
			rec.GraduationRate = floatPtr(result.Value)
		case FieldCollegeReadinessIndex:
			rec.CollegeReadinessIndex = floatPtr(result.Value)
		case FieldWhitePct:
			rec.WhitePct = floatPtr(result.Value)
		case FieldBlackPct:
			rec.BlackPct = floatPtr(result.Value)
		case FieldHispanicPct:
			rec.HispanicPct = floatPtr(result.Value)
		case FieldAsianPct:
			rec.AsianPct = floatPtr(result.Value)
		case FieldAmericanIndianPct:
			rec.AmericanIndianPct = floatPtr(result.Value)
		case FieldPacificIslanderPct:
			rec.PacificIslanderPct = floatPtr(result.Value)
		case FieldTwoOrMoreRacesPct:
			rec.TwoOrMoreRacesPct = floatPtr(result.Value)
		case FieldMalePct:
			rec.MalePct = floatPtr(result.Value)
		case FieldFemalePct:
			rec.FemalePct = floatPtr(result.Value)
		case FieldEconomicallyDisadvantagedPct:
			rec.EconomicallyDisadvantagedPct = floatPtr(result.Value)
		case FieldFreeLunchPct:
			rec.FreeLunchPct = floatPtr(result.Value)
		case FieldReducedLunchPct:
			rec.ReducedLunchPct = floatPtr(result.Value)
		}
	}
}

func strPtr(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func intPtr(v interface{}) *int {
	i, ok := v.(int)
	if !ok {
		return nil
	}
	return &i
}

func floatPtr(v interface{}) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case int:
		f := float64(n)
		return &f
	default:
		return nil
	}
}
