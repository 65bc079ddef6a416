package silver

import (
	"testing"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

func TestComputeFieldConfidenceTakesMaxPerCategory(t *testing.T) {
	merged := map[string]FieldResult{
		FieldNationalRank: {Value: 100, Confidence: 70},
		FieldStateRank:    {Value: 5, Confidence: 85},
	}
	fc := ComputeFieldConfidence(merged)
	if fc.Rankings != 85 {
		t.Fatalf("expected rankings max 85, got %v", fc.Rankings)
	}
}

func TestOverallConfidenceExcludesZeroCategories(t *testing.T) {
	fc := ComputeFieldConfidence(map[string]FieldResult{
		FieldSchoolName: {Value: "x", Confidence: 90},
	})
	if got := OverallConfidence(fc); got != 90 {
		t.Fatalf("expected overall 90, got %v", got)
	}
}

func TestOverallConfidenceZeroWhenNoCategories(t *testing.T) {
	if got := OverallConfidence(ComputeFieldConfidence(nil)); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestClassifyStatusThresholds(t *testing.T) {
	total := storage.PayloadFieldCount()
	if got := ClassifyStatus(30, total); got != "extracted" {
		t.Fatalf("expected extracted at 0.8+, got %v", got)
	}
	if got := ClassifyStatus(11, total); got != "partial" {
		t.Fatalf("expected partial at 0.3+, got %v", got)
	}
	if got := ClassifyStatus(2, total); got != "failed" {
		t.Fatalf("expected failed under 0.3, got %v", got)
	}
}
