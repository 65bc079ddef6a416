package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// SilverStore owns every SilverRecord, keyed by its own id and by the
// Bronze record it was extracted from.
type SilverStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSilverStore wraps an already-migrated database handle.
func NewSilverStore(db *sqlx.DB) *SilverStore {
	return &SilverStore{db: db}
}

var silverColumns = []string{
	"bronze_record_id", "school_slug", "source_year",
	"school_name", "nces_id", "grades_served",
	"street_address", "city", "state", "zip",
	"phone", "website", "setting",
	"enrollment", "student_teacher_ratio", "teacher_count",
	"national_rank", "state_rank",
	"ap_participation_rate", "ap_pass_rate",
	"math_proficiency", "reading_proficiency", "science_proficiency",
	"graduation_rate", "college_readiness_index",
	"white_pct", "black_pct", "hispanic_pct", "asian_pct",
	"american_indian_pct", "pacific_islander_pct", "two_or_more_races_pct",
	"male_pct", "female_pct",
	"economically_disadvantaged_pct", "free_lunch_pct", "reduced_lunch_pct",
	"extraction_status", "extraction_confidence", "field_confidence", "processing_errors",
	"created_at", "updated_at",
}

// Insert persists a new SilverRecord for a Bronze record id.
func (s *SilverStore) Insert(ctx context.Context, r SilverRecord) (SilverRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, s.db, r)
}

func (s *SilverStore) insertLocked(ctx context.Context, ext sqlx.ExtContext, r SilverRecord) (SilverRecord, error) {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.FieldConfidenceJSON = marshalFieldConfidence(r.FieldConfidence)
	r.ProcessingErrorsJSON = marshalStrings(r.ProcessingErrors)

	placeholders := make([]string, len(silverColumns))
	for i, c := range silverColumns {
		placeholders[i] = ":" + c
	}
	query := fmt.Sprintf(`INSERT INTO silver_records (%s) VALUES (%s)`,
		joinColumns(silverColumns, ", "), joinStrings(placeholders, ", "))

	res, err := sqlx.NamedExecContext(ctx, ext, query, r)
	if err != nil {
		return SilverRecord{}, fmt.Errorf("storage: silver insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return SilverRecord{}, fmt.Errorf("storage: silver insert id: %w", err)
	}
	r.ID = id
	return r, nil
}

// InsertBatch persists every record atomically in a single transaction.
func (s *SilverStore) InsertBatch(ctx context.Context, records []SilverRecord) ([]SilverRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: silver insert_batch begin: %w", err)
	}
	out := make([]SilverRecord, 0, len(records))
	for _, r := range records {
		inserted, err := s.insertLocked(ctx, tx, r)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		out = append(out, inserted)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("storage: silver insert_batch commit: %w", err)
	}
	return out, nil
}

// GetByID loads a single SilverRecord by primary key.
func (s *SilverStore) GetByID(ctx context.Context, id int64) (SilverRecord, error) {
	var r SilverRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM silver_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return SilverRecord{}, ErrNotFound
	}
	if err != nil {
		return SilverRecord{}, fmt.Errorf("storage: silver get_by_id: %w", err)
	}
	hydrateSilver(&r)
	return r, nil
}

// GetByBronzeRecordID loads the SilverRecord derived from a Bronze record, if any.
func (s *SilverStore) GetByBronzeRecordID(ctx context.Context, bronzeID int64) (SilverRecord, error) {
	var r SilverRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM silver_records WHERE bronze_record_id = ?`, bronzeID)
	if errors.Is(err, sql.ErrNoRows) {
		return SilverRecord{}, ErrNotFound
	}
	if err != nil {
		return SilverRecord{}, fmt.Errorf("storage: silver get_by_bronze_record_id: %w", err)
	}
	hydrateSilver(&r)
	return r, nil
}

// UpdateRecord applies a partial update by re-saving every payload column;
// callers construct the full SilverRecord (typically fetched then
// mutated) since "partial" applies at the field level, not the SQL
// level.
func (s *SilverStore) UpdateRecord(ctx context.Context, r SilverRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.UpdatedAt = time.Now().UTC()
	r.FieldConfidenceJSON = marshalFieldConfidence(r.FieldConfidence)
	r.ProcessingErrorsJSON = marshalStrings(r.ProcessingErrors)

	setClauses := make([]string, 0, len(silverColumns))
	for _, c := range silverColumns {
		setClauses = append(setClauses, fmt.Sprintf("%s = :%s", c, c))
	}
	query := fmt.Sprintf(`UPDATE silver_records SET %s WHERE id = :id`, joinStrings(setClauses, ", "))

	res, err := s.db.NamedExecContext(ctx, query, r)
	if err != nil {
		return fmt.Errorf("storage: silver update_record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: silver update_record rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a SilverRecord; an administrative operation
// permits but does not otherwise expose.
func (s *SilverStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM silver_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: silver delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storage: silver delete rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SilverStatistics summarizes coverage across every Silver record.
type SilverStatistics struct {
	CountByStatus     map[ExtractionStatus]int
	CountBySourceYear map[int]int
	FieldCoverage     map[string]int
	LastUpdated       time.Time
}

// Statistics computes counts by status/year, per-field non-null
// coverage, and the most recent updated_at.
func (s *SilverStore) Statistics(ctx context.Context) (SilverStatistics, error) {
	stats := SilverStatistics{
		CountByStatus:     make(map[ExtractionStatus]int),
		CountBySourceYear: make(map[int]int),
		FieldCoverage:     make(map[string]int),
	}

	byStatus, err := countGroupBy[ExtractionStatus](ctx, s.db, "extraction_status", "silver_records")
	if err != nil {
		return stats, err
	}
	stats.CountByStatus = byStatus

	rows, err := s.db.QueryContext(ctx, `SELECT source_year, COUNT(*) FROM silver_records WHERE source_year IS NOT NULL GROUP BY source_year`)
	if err != nil {
		return stats, fmt.Errorf("storage: silver stats by_source_year: %w", err)
	}
	for rows.Next() {
		var year, count int
		if err := rows.Scan(&year, &count); err != nil {
			rows.Close()
			return stats, fmt.Errorf("storage: silver stats by_source_year scan: %w", err)
		}
		stats.CountBySourceYear[year] = count
	}
	rows.Close()

	for _, col := range payloadColumnNames() {
		var n int
		q := fmt.Sprintf(`SELECT COUNT(*) FROM silver_records WHERE %s IS NOT NULL`, col) //nolint:gosec // col drawn from internal constant list
		if err := s.db.GetContext(ctx, &n, q); err != nil {
			return stats, fmt.Errorf("storage: silver stats field_coverage(%s): %w", col, err)
		}
		stats.FieldCoverage[col] = n
	}

	var lastUpdated sql.NullTime
	if err := s.db.GetContext(ctx, &lastUpdated, `SELECT MAX(updated_at) FROM silver_records`); err != nil {
		return stats, fmt.Errorf("storage: silver stats last_updated: %w", err)
	}
	if lastUpdated.Valid {
		stats.LastUpdated = lastUpdated.Time
	}
	return stats, nil
}

func payloadColumnNames() []string {
	return []string{
		"school_name", "nces_id", "grades_served",
		"street_address", "city", "state", "zip",
		"phone", "website", "setting",
		"enrollment", "student_teacher_ratio", "teacher_count",
		"national_rank", "state_rank",
		"ap_participation_rate", "ap_pass_rate",
		"math_proficiency", "reading_proficiency", "science_proficiency",
		"graduation_rate", "college_readiness_index",
		"white_pct", "black_pct", "hispanic_pct", "asian_pct",
		"american_indian_pct", "pacific_islander_pct", "two_or_more_races_pct",
		"male_pct", "female_pct",
		"economically_disadvantaged_pct", "free_lunch_pct", "reduced_lunch_pct",
	}
}

func hydrateSilver(r *SilverRecord) {
	r.ProcessingErrors = unmarshalStrings(r.ProcessingErrorsJSON)
	r.FieldConfidence = unmarshalFieldConfidence(r.FieldConfidenceJSON)
}

func marshalFieldConfidence(fc FieldConfidence) string {
	b, _ := json.Marshal(fc)
	return string(b)
}

func unmarshalFieldConfidence(s string) FieldConfidence {
	var fc FieldConfidence
	if s == "" {
		return fc
	}
	_ = json.Unmarshal([]byte(s), &fc)
	return fc
}

func joinColumns(cols []string, sep string) string {
	return joinStrings(cols, sep)
}

func joinStrings(ss []string, sep string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}
