package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by get-by-identity lookups that find nothing.
var ErrNotFound = errors.New("storage: record not found")

// ErrDuplicateFilePath classifies a file_path uniqueness violation on
// BronzeStore.Insert.
var ErrDuplicateFilePath = errors.New("storage: file_path already exists")

// BronzeStore owns every BronzeRecord. Writes are serialized through mu
// so two goroutines never race a file_path uniqueness check against an
// insert.
type BronzeStore struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewBronzeStore wraps an already-migrated database handle.
func NewBronzeStore(db *sqlx.DB) *BronzeStore {
	return &BronzeStore{db: db}
}

// Insert assigns identity fields and persists a new BronzeRecord,
// failing with ErrDuplicateFilePath on a file_path uniqueness violation.
func (s *BronzeStore) Insert(ctx context.Context, r BronzeRecord) (BronzeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ProcessingErrorsJSON == "" {
		r.ProcessingErrorsJSON = marshalStrings(r.ProcessingErrors)
	}

	const q = `INSERT INTO bronze_records
		(file_path, school_slug, capture_timestamp, file_size, checksum_sha256,
		 processing_status, source_dataset, priority_bucket, processing_errors,
		 created_at, updated_at)
		VALUES (:file_path, :school_slug, :capture_timestamp, :file_size, :checksum_sha256,
		 :processing_status, :source_dataset, :priority_bucket, :processing_errors,
		 :created_at, :updated_at)`

	res, err := s.db.NamedExecContext(ctx, q, r)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return BronzeRecord{}, ErrDuplicateFilePath
		}
		return BronzeRecord{}, fmt.Errorf("storage: bronze insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return BronzeRecord{}, fmt.Errorf("storage: bronze insert id: %w", err)
	}
	r.ID = id
	return r, nil
}

// GetByID loads a single BronzeRecord by primary key.
func (s *BronzeStore) GetByID(ctx context.Context, id int64) (BronzeRecord, error) {
	var r BronzeRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM bronze_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return BronzeRecord{}, ErrNotFound
	}
	if err != nil {
		return BronzeRecord{}, fmt.Errorf("storage: bronze get_by_id: %w", err)
	}
	r.ProcessingErrors = unmarshalStrings(r.ProcessingErrorsJSON)
	return r, nil
}

// GetBySlug loads every BronzeRecord for a given school_slug.
func (s *BronzeStore) GetBySlug(ctx context.Context, slug string) ([]BronzeRecord, error) {
	var rows []BronzeRecord
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM bronze_records WHERE school_slug = ?`, slug); err != nil {
		return nil, fmt.Errorf("storage: bronze get_by_slug: %w", err)
	}
	return hydrateBronzeErrors(rows), nil
}

// GetByPath loads the BronzeRecord for a unique file_path.
func (s *BronzeStore) GetByPath(ctx context.Context, path string) (BronzeRecord, error) {
	var r BronzeRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM bronze_records WHERE file_path = ?`, path)
	if errors.Is(err, sql.ErrNoRows) {
		return BronzeRecord{}, ErrNotFound
	}
	if err != nil {
		return BronzeRecord{}, fmt.Errorf("storage: bronze get_by_path: %w", err)
	}
	r.ProcessingErrors = unmarshalStrings(r.ProcessingErrorsJSON)
	return r, nil
}

// GetByStatus loads every BronzeRecord with the given processing_status.
func (s *BronzeStore) GetByStatus(ctx context.Context, status BronzeStatus) ([]BronzeRecord, error) {
	var rows []BronzeRecord
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM bronze_records WHERE processing_status = ?`, status); err != nil {
		return nil, fmt.Errorf("storage: bronze get_by_status: %w", err)
	}
	return hydrateBronzeErrors(rows), nil
}

// GetAll loads every BronzeRecord.
func (s *BronzeStore) GetAll(ctx context.Context) ([]BronzeRecord, error) {
	var rows []BronzeRecord
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM bronze_records`); err != nil {
		return nil, fmt.Errorf("storage: bronze get_all: %w", err)
	}
	return hydrateBronzeErrors(rows), nil
}

// UpdateStatus advances processing_status and, optionally, the
// processing_errors list, guaranteeing updated_at strictly increases
// even if the clock has not
// visibly ticked since the previous write.
func (s *BronzeStore) UpdateStatus(ctx context.Context, id int64, status BronzeStatus, errs []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getByIDLocked(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	if !now.After(existing.UpdatedAt) {
		now = existing.UpdatedAt.Add(time.Millisecond)
	}

	errsJSON := existing.ProcessingErrorsJSON
	if errs != nil {
		errsJSON = marshalStrings(errs)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bronze_records SET processing_status = ?, processing_errors = ?, updated_at = ? WHERE id = ?`,
		status, errsJSON, now, id)
	if err != nil {
		return false, fmt.Errorf("storage: bronze update_status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("storage: bronze update_status rows: %w", err)
	}
	return n > 0, nil
}

func (s *BronzeStore) getByIDLocked(ctx context.Context, id int64) (BronzeRecord, error) {
	var r BronzeRecord
	err := s.db.GetContext(ctx, &r, `SELECT * FROM bronze_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return BronzeRecord{}, ErrNotFound
	}
	if err != nil {
		return BronzeRecord{}, fmt.Errorf("storage: bronze get_by_id: %w", err)
	}
	return r, nil
}

// GetCountByStatus aggregates record counts grouped by processing_status.
func (s *BronzeStore) GetCountByStatus(ctx context.Context) (map[BronzeStatus]int, error) {
	return countGroupBy[BronzeStatus](ctx, s.db, "processing_status", "bronze_records")
}

// GetCountByDataset aggregates record counts grouped by source_dataset.
func (s *BronzeStore) GetCountByDataset(ctx context.Context) (map[SourceDataset]int, error) {
	return countGroupBy[SourceDataset](ctx, s.db, "source_dataset", "bronze_records")
}

// GetCountByPriority aggregates record counts grouped by priority_bucket.
func (s *BronzeStore) GetCountByPriority(ctx context.Context) (map[PriorityBucket]int, error) {
	return countGroupBy[PriorityBucket](ctx, s.db, "priority_bucket", "bronze_records")
}

// GetTotalCount returns the total number of Bronze records.
func (s *BronzeStore) GetTotalCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bronze_records`); err != nil {
		return 0, fmt.Errorf("storage: bronze total_count: %w", err)
	}
	return n, nil
}

// GetAverageFileSize returns the mean file_size across all Bronze records.
func (s *BronzeStore) GetAverageFileSize(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.GetContext(ctx, &avg, `SELECT AVG(file_size) FROM bronze_records`); err != nil {
		return 0, fmt.Errorf("storage: bronze average_file_size: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// Transaction runs fn atomically against the underlying database.
func (s *BronzeStore) Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: bronze transaction begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: bronze transaction commit: %w", err)
	}
	return nil
}

func hydrateBronzeErrors(rows []BronzeRecord) []BronzeRecord {
	for i := range rows {
		rows[i].ProcessingErrors = unmarshalStrings(rows[i].ProcessingErrorsJSON)
	}
	return rows
}

func countGroupBy[T ~string](ctx context.Context, db *sqlx.DB, column, table string) (map[T]int, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT %s, COUNT(*) FROM %s GROUP BY %s`, column, table, column)) //nolint:gosec // column/table are internal constants, never user input
	if err != nil {
		return nil, fmt.Errorf("storage: count_by_%s: %w", column, err)
	}
	defer rows.Close()

	out := make(map[T]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("storage: count_by_%s scan: %w", column, err)
		}
		out[T(key)] = count
	}
	return out, rows.Err()
}

func marshalStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func unmarshalStrings(s string) []string {
	if s == "" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

func isUniqueConstraintErr(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
