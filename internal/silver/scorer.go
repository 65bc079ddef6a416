package silver

import "github.com/jshin42/highschooltrends-v2-sub000/internal/storage"

// categoryMax accumulates the running maximum confidence per category
// (max, not average, by design).
type categoryMax map[category]float64

// ComputeFieldConfidence reduces a merged field-result map to the six
// category scores storage.FieldConfidence models, each the maximum
// confidence among that category's populated fields.
func ComputeFieldConfidence(merged map[string]FieldResult) storage.FieldConfidence {
	maxes := categoryMax{}
	for field, result := range merged {
		if !result.ok() {
			continue
		}
		cat, tracked := fieldCategory[field]
		if !tracked {
			continue
		}
		if result.Confidence > maxes[cat] {
			maxes[cat] = result.Confidence
		}
	}
	return storage.FieldConfidence{
		SchoolName:     maxes[categorySchoolName],
		Rankings:       maxes[categoryRankings],
		Academics:      maxes[categoryAcademics],
		Demographics:   maxes[categoryDemographics],
		Location:       maxes[categoryLocation],
		EnrollmentData: maxes[categoryEnrollmentData],
	}
}

// OverallConfidence is the arithmetic mean of the positive category
// scores, zero if none are positive.
func OverallConfidence(fc storage.FieldConfidence) float64 {
	scores := []float64{fc.SchoolName, fc.Rankings, fc.Academics, fc.Demographics, fc.Location, fc.EnrollmentData}
	var sum float64
	var count int
	for _, s := range scores {
		if s > 0 {
			sum += s
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// ClassifyStatus applies the 0.8/0.3 non-null-field-fraction thresholds
// against the payload field count this implementation models.
func ClassifyStatus(nonNullCount, totalCount int) storage.ExtractionStatus {
	if totalCount == 0 {
		return storage.ExtractionStatusFailed
	}
	fraction := float64(nonNullCount) / float64(totalCount)
	switch {
	case fraction >= 0.8:
		return storage.ExtractionStatusExtracted
	case fraction >= 0.3:
		return storage.ExtractionStatusPartial
	default:
		return storage.ExtractionStatusFailed
	}
}
