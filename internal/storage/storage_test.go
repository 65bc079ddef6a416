package storage

import (
	"context"
	"testing"
	"time"
)

func newTestDB(t *testing.T) (*BronzeStore, *SilverStore) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBronzeStore(db), NewSilverStore(db)
}

func TestBronzeInsertThenGetByPath(t *testing.T) {
	bronze, _ := newTestDB(t)
	ctx := context.Background()

	r := BronzeRecord{
		FilePath:         "/root/westfield-high-school-6921/docker_curl_20250821_061341.html",
		SchoolSlug:       "westfield-high-school-6921",
		CaptureTimestamp: time.Date(2025, 8, 21, 6, 13, 41, 0, time.UTC),
		FileSize:         4096,
		ProcessingStatus: BronzeStatusPending,
		SourceDataset:    SourceOther,
		PriorityBucket:   PriorityBucketUnknown,
	}

	inserted, err := bronze.Insert(ctx, r)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if inserted.ID == 0 {
		t.Fatalf("expected assigned id")
	}

	got, err := bronze.GetByPath(ctx, r.FilePath)
	if err != nil {
		t.Fatalf("get_by_path failed: %v", err)
	}
	if got.SchoolSlug != r.SchoolSlug || got.ID != inserted.ID {
		t.Fatalf("expected round-trip identity, got %+v", got)
	}
}

func TestBronzeInsertDuplicatePathFails(t *testing.T) {
	bronze, _ := newTestDB(t)
	ctx := context.Background()

	r := BronzeRecord{
		FilePath:         "/root/school-x/docker_curl_20250101_000000.html",
		SchoolSlug:       "school-x",
		CaptureTimestamp: time.Now().UTC(),
		ProcessingStatus: BronzeStatusPending,
		SourceDataset:    SourceOther,
		PriorityBucket:   PriorityBucketUnknown,
	}
	if _, err := bronze.Insert(ctx, r); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := bronze.Insert(ctx, r); err != ErrDuplicateFilePath {
		t.Fatalf("expected ErrDuplicateFilePath, got %v", err)
	}
}

func TestBronzeUpdateStatusAdvancesUpdatedAt(t *testing.T) {
	bronze, _ := newTestDB(t)
	ctx := context.Background()

	inserted, err := bronze.Insert(ctx, BronzeRecord{
		FilePath:         "/root/school-y/docker_curl_20250101_000000.html",
		SchoolSlug:       "school-y",
		CaptureTimestamp: time.Now().UTC(),
		ProcessingStatus: BronzeStatusPending,
		SourceDataset:    SourceOther,
		PriorityBucket:   PriorityBucketUnknown,
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	ok, err := bronze.UpdateStatus(ctx, inserted.ID, BronzeStatusProcessed, nil)
	if err != nil || !ok {
		t.Fatalf("update_status failed: ok=%v err=%v", ok, err)
	}

	got, err := bronze.GetByID(ctx, inserted.ID)
	if err != nil {
		t.Fatalf("get_by_id failed: %v", err)
	}
	if got.ProcessingStatus != BronzeStatusProcessed {
		t.Fatalf("expected processed status, got %v", got.ProcessingStatus)
	}
	if !got.UpdatedAt.After(inserted.UpdatedAt) {
		t.Fatalf("expected updated_at to strictly advance, got %v vs %v", got.UpdatedAt, inserted.UpdatedAt)
	}
}

func TestBronzeUpdateStatusUnknownIDReturnsFalse(t *testing.T) {
	bronze, _ := newTestDB(t)
	ok, err := bronze.UpdateStatus(context.Background(), 99999, BronzeStatusProcessed, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected false for unknown id")
	}
}

func TestBronzeAggregates(t *testing.T) {
	bronze, _ := newTestDB(t)
	ctx := context.Background()

	for i, status := range []BronzeStatus{BronzeStatusPending, BronzeStatusPending, BronzeStatusFailed} {
		_, err := bronze.Insert(ctx, BronzeRecord{
			FilePath:         "/root/school/docker_curl_2025010" + string(rune('1'+i)) + "_000000.html",
			SchoolSlug:       "school",
			CaptureTimestamp: time.Now().UTC(),
			FileSize:         int64(100 * (i + 1)),
			ProcessingStatus: status,
			SourceDataset:    SourceOther,
			PriorityBucket:   PriorityBucketUnknown,
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	byStatus, err := bronze.GetCountByStatus(ctx)
	if err != nil {
		t.Fatalf("get_count_by_status failed: %v", err)
	}
	if byStatus[BronzeStatusPending] != 2 || byStatus[BronzeStatusFailed] != 1 {
		t.Fatalf("unexpected status counts: %+v", byStatus)
	}

	total, err := bronze.GetTotalCount(ctx)
	if err != nil || total != 3 {
		t.Fatalf("expected total 3, got %d err=%v", total, err)
	}

	avg, err := bronze.GetAverageFileSize(ctx)
	if err != nil {
		t.Fatalf("average_file_size failed: %v", err)
	}
	if avg <= 0 {
		t.Fatalf("expected positive average, got %v", avg)
	}
}

func TestSilverInsertAndGetByBronzeRecordID(t *testing.T) {
	bronze, silver := newTestDB(t)
	ctx := context.Background()

	b, err := bronze.Insert(ctx, BronzeRecord{
		FilePath:         "/root/acme-high/docker_curl_20250101_000000.html",
		SchoolSlug:       "acme-high",
		CaptureTimestamp: time.Now().UTC(),
		ProcessingStatus: BronzeStatusPending,
		SourceDataset:    SourceOther,
		PriorityBucket:   PriorityBucketUnknown,
	})
	if err != nil {
		t.Fatalf("bronze insert failed: %v", err)
	}

	name := "Acme High"
	inserted, err := silver.Insert(ctx, SilverRecord{
		BronzeRecordID:       b.ID,
		SchoolSlug:           "acme-high",
		SchoolName:           &name,
		ExtractionStatus:     ExtractionStatusExtracted,
		ExtractionConfidence: 91.5,
		FieldConfidence:      FieldConfidence{SchoolName: 95},
	})
	if err != nil {
		t.Fatalf("silver insert failed: %v", err)
	}

	got, err := silver.GetByBronzeRecordID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get_by_bronze_record_id failed: %v", err)
	}
	if got.ID != inserted.ID || got.SchoolName == nil || *got.SchoolName != name {
		t.Fatalf("expected round-trip identity, got %+v", got)
	}
	if got.FieldConfidence.SchoolName != 95 {
		t.Fatalf("expected field_confidence round-trip, got %+v", got.FieldConfidence)
	}
}

func TestSilverDeleteRemovesRecord(t *testing.T) {
	bronze, silver := newTestDB(t)
	ctx := context.Background()

	b, _ := bronze.Insert(ctx, BronzeRecord{
		FilePath: "/root/x/docker_curl_20250101_000000.html", SchoolSlug: "x",
		CaptureTimestamp: time.Now().UTC(), ProcessingStatus: BronzeStatusPending,
		SourceDataset: SourceOther, PriorityBucket: PriorityBucketUnknown,
	})
	inserted, err := silver.Insert(ctx, SilverRecord{BronzeRecordID: b.ID, SchoolSlug: "x", ExtractionStatus: ExtractionStatusFailed})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := silver.Delete(ctx, inserted.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := silver.GetByID(ctx, inserted.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSilverStatisticsCountsByStatus(t *testing.T) {
	bronze, silver := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b, _ := bronze.Insert(ctx, BronzeRecord{
			FilePath: "/root/s" + string(rune('a'+i)) + "/docker_curl_20250101_000000.html", SchoolSlug: "s",
			CaptureTimestamp: time.Now().UTC(), ProcessingStatus: BronzeStatusPending,
			SourceDataset: SourceOther, PriorityBucket: PriorityBucketUnknown,
		})
		_, err := silver.Insert(ctx, SilverRecord{BronzeRecordID: b.ID, SchoolSlug: "s", ExtractionStatus: ExtractionStatusExtracted})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	stats, err := silver.Statistics(ctx)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.CountByStatus[ExtractionStatusExtracted] != 2 {
		t.Fatalf("expected 2 extracted records, got %+v", stats.CountByStatus)
	}
}
