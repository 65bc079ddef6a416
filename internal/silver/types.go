// Package silver implements the multi-tier HTML extraction pipeline
// that turns a Bronze record's raw bytes into a confidence-scored
// Silver record.
package silver

import "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"

// FieldResult is the exception-free outcome of one tier attempting one
// field instead of a panic/recover control-flow shortcut.
type FieldResult struct {
	Value      interface{}
	Confidence float64
	Err        *errors.ExtractionError
}

// ok reports whether the tier produced a usable value.
func (r FieldResult) ok() bool {
	return r.Err == nil && r.Value != nil
}

// Field name constants, matching storage.SilverRecord's db column names.
const (
	FieldSchoolName   = "school_name"
	FieldNCESId       = "nces_id"
	FieldGradesServed = "grades_served"

	FieldStreetAddress = "street_address"
	FieldCity          = "city"
	FieldState         = "state"
	FieldZip           = "zip"

	FieldPhone   = "phone"
	FieldWebsite = "website"
	FieldSetting = "setting"

	FieldEnrollment          = "enrollment"
	FieldStudentTeacherRatio = "student_teacher_ratio"
	FieldTeacherCount        = "teacher_count"

	FieldNationalRank = "national_rank"
	FieldStateRank    = "state_rank"

	FieldAPParticipationRate = "ap_participation_rate"
	FieldAPPassRate          = "ap_pass_rate"

	FieldMathProficiency    = "math_proficiency"
	FieldReadingProficiency = "reading_proficiency"
	FieldScienceProficiency = "science_proficiency"

	FieldGraduationRate        = "graduation_rate"
	FieldCollegeReadinessIndex = "college_readiness_index"

	FieldWhitePct           = "white_pct"
	FieldBlackPct           = "black_pct"
	FieldHispanicPct        = "hispanic_pct"
	FieldAsianPct           = "asian_pct"
	FieldAmericanIndianPct  = "american_indian_pct"
	FieldPacificIslanderPct = "pacific_islander_pct"
	FieldTwoOrMoreRacesPct  = "two_or_more_races_pct"

	FieldMalePct   = "male_pct"
	FieldFemalePct = "female_pct"

	FieldEconomicallyDisadvantagedPct = "economically_disadvantaged_pct"
	FieldFreeLunchPct                 = "free_lunch_pct"
	FieldReducedLunchPct              = "reduced_lunch_pct"
)

// category is one of the six semantic groups storage.FieldConfidence
// scores.
type category string

const (
	categorySchoolName     category = "school_name"
	categoryRankings       category = "rankings"
	categoryAcademics      category = "academics"
	categoryDemographics   category = "demographics"
	categoryLocation       category = "location"
	categoryEnrollmentData category = "enrollment_data"
)

// fieldCategory maps every field that contributes to a category score.
// nces_id and grades_served count toward the payload-field fraction
// but are not named under any of the six
// categories, so they are absent here by design.
var fieldCategory = map[string]category{
	FieldSchoolName: categorySchoolName,

	FieldNationalRank: categoryRankings,
	FieldStateRank:    categoryRankings,

	FieldAPParticipationRate:   categoryAcademics,
	FieldAPPassRate:            categoryAcademics,
	FieldMathProficiency:       categoryAcademics,
	FieldReadingProficiency:    categoryAcademics,
	FieldScienceProficiency:    categoryAcademics,
	FieldGraduationRate:        categoryAcademics,
	FieldCollegeReadinessIndex: categoryAcademics,

	FieldWhitePct:           categoryDemographics,
	FieldBlackPct:           categoryDemographics,
	FieldHispanicPct:        categoryDemographics,
	FieldAsianPct:           categoryDemographics,
	FieldAmericanIndianPct:  categoryDemographics,
	FieldPacificIslanderPct: categoryDemographics,
	FieldTwoOrMoreRacesPct:  categoryDemographics,
	FieldMalePct:            categoryDemographics,
	FieldFemalePct:          categoryDemographics,
	FieldEconomicallyDisadvantagedPct: categoryDemographics,
	FieldFreeLunchPct:                 categoryDemographics,
	FieldReducedLunchPct:              categoryDemographics,

	FieldStreetAddress: categoryLocation,
	FieldCity:          categoryLocation,
	FieldState:         categoryLocation,
	FieldZip:           categoryLocation,
	FieldPhone:         categoryLocation,
	FieldWebsite:       categoryLocation,
	FieldSetting:       categoryLocation,

	FieldEnrollment:          categoryEnrollmentData,
	FieldStudentTeacherRatio: categoryEnrollmentData,
	FieldTeacherCount:        categoryEnrollmentData,
}

// StructuredPayload is a small sum type standing in for runtime
// JSON-LD type inspection: a JSON-LD block decodes into HighSchool or
// is Unknown (HighSchool == nil).
type StructuredPayload struct {
	HighSchool *HighSchoolLD
}

// HighSchoolLD mirrors the subset of schema.org HighSchool JSON-LD
// fields Tier 1 consumes.
type HighSchoolLD struct {
	Type        string       `json:"@type"`
	Name        string       `json:"name"`
	Telephone   string       `json:"telephone"`
	Description string       `json:"description"`
	Location    *LocationLD  `json:"location"`
}

// LocationLD mirrors schema.org's nested PostalAddress shape.
type LocationLD struct {
	Address *AddressLD `json:"address"`
}

// AddressLD mirrors schema.org's PostalAddress fields.
type AddressLD struct {
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	AddressRegion   string `json:"addressRegion"`
	PostalCode      string `json:"postalCode"`
}
