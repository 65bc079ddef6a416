package silver

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

const westfieldLD = `<html><head>
<script type="application/ld+json">
{"@type":"HighSchool","name":"Westfield HS","location":{"address":{"streetAddress":"123 Maple","addressLocality":"Centreville","addressRegion":"VA","postalCode":"20121"}},"telephone":"(703) 555-1212","description":"Westfield HS is ranked 14th within Virginia. The AP® participation rate is 57%. The total minority enrollment is 42%. 12% of students are economically disadvantaged."}
</script>
</head><body></body></html>`

func newTestStores(t *testing.T) (*storage.BronzeStore, *storage.SilverStore) {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewBronzeStore(db), storage.NewSilverStore(db)
}

func writeHTML(t *testing.T, dir, slug, stamp, body string) string {
	t.Helper()
	schoolDir := filepath.Join(dir, slug)
	if err := os.MkdirAll(schoolDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	path := filepath.Join(schoolDir, "docker_curl_"+stamp+".html")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}

func TestProcessRecordExtractsStructuredDataScenarioE(t *testing.T) {
	root := t.TempDir()
	path := writeHTML(t, root, "westfield-high-school-6921", "20250821_061341", westfieldLD)

	bronze, silver := newTestStores(t)
	ctx := context.Background()

	b, err := bronze.Insert(ctx, storage.BronzeRecord{
		FilePath: path, SchoolSlug: "westfield-high-school-6921",
		ProcessingStatus: storage.BronzeStatusPending, SourceDataset: storage.SourceOther,
		PriorityBucket: storage.PriorityBucketUnknown,
	})
	if err != nil {
		t.Fatalf("bronze insert failed: %v", err)
	}

	proc := NewProcessor(config.SilverConfig{ParallelWorkers: 1, EnableFallbackExtraction: true}, bronze, silver, nil, logging.New(zapcore.InfoLevel, false))

	rec, err := proc.ProcessRecord(ctx, b.ID)
	if err != nil {
		t.Fatalf("process_record failed: %v", err)
	}

	if rec.SchoolName == nil || *rec.SchoolName != "Westfield HS" {
		t.Fatalf("expected school_name Westfield HS, got %+v", rec.SchoolName)
	}
	if rec.StreetAddress == nil || *rec.StreetAddress != "123 Maple" {
		t.Fatalf("expected street_address 123 Maple, got %+v", rec.StreetAddress)
	}
	if rec.StateRank == nil || *rec.StateRank != 14 {
		t.Fatalf("expected state_rank 14, got %+v", rec.StateRank)
	}
	if rec.APParticipationRate == nil || *rec.APParticipationRate != 57 {
		t.Fatalf("expected ap_participation_rate 57, got %+v", rec.APParticipationRate)
	}
	if rec.WhitePct == nil || *rec.WhitePct != 58 {
		t.Fatalf("expected white_pct 58, got %+v", rec.WhitePct)
	}
	if rec.EconomicallyDisadvantagedPct == nil || *rec.EconomicallyDisadvantagedPct != 12 {
		t.Fatalf("expected economically_disadvantaged_pct 12, got %+v", rec.EconomicallyDisadvantagedPct)
	}

	if rec.FieldConfidence.SchoolName != 95 || rec.FieldConfidence.Location != 90 ||
		rec.FieldConfidence.Rankings != 85 || rec.FieldConfidence.Academics != 80 ||
		rec.FieldConfidence.Demographics != 80 {
		t.Fatalf("unexpected field confidence: %+v", rec.FieldConfidence)
	}

	if math.Abs(rec.ExtractionConfidence-86) > 0.01 {
		t.Fatalf("expected overall confidence ~86, got %v", rec.ExtractionConfidence)
	}
}

func TestProcessRecordMarksBronzeProcessed(t *testing.T) {
	root := t.TempDir()
	// The JSON-LD alone fills 10 of the 34 payload fields (below the 0.3
	// partial cutoff); the enrollment span makes it 11, a partial extraction.
	page := strings.Replace(westfieldLD, "<body></body>", `<body><span data-test-id="enrollment">1,850</span></body>`, 1)
	path := writeHTML(t, root, "acme-high", "20250101_000000", page)

	bronze, silver := newTestStores(t)
	ctx := context.Background()

	b, err := bronze.Insert(ctx, storage.BronzeRecord{
		FilePath: path, SchoolSlug: "acme-high", ProcessingStatus: storage.BronzeStatusPending,
		SourceDataset: storage.SourceOther, PriorityBucket: storage.PriorityBucketUnknown,
	})
	if err != nil {
		t.Fatalf("bronze insert failed: %v", err)
	}

	proc := NewProcessor(config.SilverConfig{ParallelWorkers: 1}, bronze, silver, nil, logging.New(zapcore.InfoLevel, false))
	if _, err := proc.ProcessRecord(ctx, b.ID); err != nil {
		t.Fatalf("process_record failed: %v", err)
	}

	got, err := bronze.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get_by_id failed: %v", err)
	}
	if got.ProcessingStatus != storage.BronzeStatusProcessed {
		t.Fatalf("expected processed status, got %v", got.ProcessingStatus)
	}
}

func TestProcessBatchHandlesMultipleIds(t *testing.T) {
	root := t.TempDir()
	bronze, silver := newTestStores(t)
	ctx := context.Background()

	var ids []int64
	for i, slug := range []string{"a-high", "b-high"} {
		path := writeHTML(t, root, slug, "2025010"+string(rune('1'+i))+"_000000", westfieldLD)
		b, err := bronze.Insert(ctx, storage.BronzeRecord{
			FilePath: path, SchoolSlug: slug, ProcessingStatus: storage.BronzeStatusPending,
			SourceDataset: storage.SourceOther, PriorityBucket: storage.PriorityBucketUnknown,
		})
		if err != nil {
			t.Fatalf("bronze insert failed: %v", err)
		}
		ids = append(ids, b.ID)
	}

	proc := NewProcessor(config.SilverConfig{ParallelWorkers: 2}, bronze, silver, nil, logging.New(zapcore.InfoLevel, false))
	results, errs := proc.ProcessBatch(ctx, ids)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
}
