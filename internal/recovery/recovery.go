package recovery

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/bronze"
	apperrors "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// ErrorRecovery re-runs failed/quarantined Bronze records through the
// processor per their classified error kind, resolves duplicate slugs,
// and probes source-directory health. It holds the processor as a
// collaborator and is never held by it, avoiding a circular reference
// between the two packages.
type ErrorRecovery struct {
	store             *storage.BronzeStore
	processor         *bronze.FileProcessor
	sourceDirectories []string
	logger            *logging.Logger

	sleeper func(time.Duration)
	statDir func(string) error

	mu      sync.Mutex
	metrics RecoveryMetrics
}

// New wires an ErrorRecovery over a store, a processor to re-run files
// through, and the directories drive-health recovery probes.
func New(store *storage.BronzeStore, processor *bronze.FileProcessor, sourceDirectories []string, logger *logging.Logger) *ErrorRecovery {
	if logger == nil {
		logger = logging.Default()
	}
	return &ErrorRecovery{
		store:             store,
		processor:         processor,
		sourceDirectories: sourceDirectories,
		logger:            logger,
		sleeper:           time.Sleep,
		statDir: func(dir string) error {
			_, err := os.Stat(dir)
			return err
		},
	}
}

// RecoverAllFailedRecords loads every failed/quarantined record, groups
// them by classified error kind, and retries each group per its policy.
// duplicate_slug records are routed to HandleDuplicateSlugRecords
// instead of the generic retry loop.
func (r *ErrorRecovery) RecoverAllFailedRecords(ctx context.Context) (RecoveryResult, error) {
	start := time.Now()
	result := RecoveryResult{}

	failed, err := r.store.GetByStatus(ctx, storage.BronzeStatusFailed)
	if err != nil {
		return result, err
	}
	quarantined, err := r.store.GetByStatus(ctx, storage.BronzeStatusQuarantined)
	if err != nil {
		return result, err
	}
	records := append(append([]storage.BronzeRecord{}, failed...), quarantined...)
	result.TotalAttempted = len(records)

	groups := map[apperrors.Kind][]storage.BronzeRecord{}
	for _, rec := range records {
		kind := classifyPrimaryErrorType(rec.ProcessingErrors)
		groups[kind] = append(groups[kind], rec)
	}

	if dupes, ok := groups[apperrors.KindDuplicateSlug]; ok {
		if err := r.HandleDuplicateSlugRecords(ctx, dupes); err != nil {
			result.Errors = append(result.Errors, err.Error())
		} else {
			result.Successful += len(dupes)
		}
		delete(groups, apperrors.KindDuplicateSlug)
	}

	for kind, group := range groups {
		policy, ok := policies[kind]
		if !ok {
			result.Skipped += len(group)
			continue
		}
		for _, rec := range group {
			recovered := r.retryRecord(ctx, rec, policy)
			elapsed := time.Since(start)
			r.mu.Lock()
			r.metrics.recordRun(recovered, elapsed, kind)
			r.mu.Unlock()
			if recovered {
				result.Successful++
			} else {
				result.StillFailed++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: exhausted retries for %s", kind, rec.FilePath))
			}
		}
	}

	result.RecoveryTime = time.Since(start)
	return result, nil
}

// retryRecord loops until success or the policy's retries are
// exhausted, sleeping the computed delay before each non-first attempt.
// Success is successful_ingestions > 0.
func (r *ErrorRecovery) retryRecord(ctx context.Context, rec storage.BronzeRecord, policy Policy) bool {
	correlationID := uuid.NewString()
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			r.sleeper(policy.delayForAttempt(attempt - 1))
		}
		batchResult := r.processor.ProcessBatch(ctx, []string{rec.FilePath}, correlationID, "recovery")
		if batchResult.SuccessfulIngestions > 0 {
			return true
		}
	}
	return false
}

// HandleDuplicateSlugRecords groups records by school_slug, keeps the
// newest capture, and marks every other sibling superseded.
func (r *ErrorRecovery) HandleDuplicateSlugRecords(ctx context.Context, records []storage.BronzeRecord) error {
	groups := map[string][]storage.BronzeRecord{}
	for _, rec := range records {
		groups[rec.SchoolSlug] = append(groups[rec.SchoolSlug], rec)
	}

	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool {
			return group[i].CaptureTimestamp.After(group[j].CaptureTimestamp)
		})
		newest := group[0]
		newestStamp := newest.CaptureTimestamp.UTC().Format(time.RFC3339)

		if _, err := r.store.UpdateStatus(ctx, newest.ID, storage.BronzeStatusProcessed,
			[]string{fmt.Sprintf("kept most recent capture %s", newestStamp)}); err != nil {
			return err
		}
		for _, older := range group[1:] {
			if _, err := r.store.UpdateStatus(ctx, older.ID, storage.BronzeStatusProcessed,
				[]string{fmt.Sprintf("superseded by %s", newestStamp)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// PerformDriveHealthRecovery probes every configured source directory,
// retrying a failed directory up to 3 times with 5s×attempt backoff,
// and resets every breaker the processor owns if any directory
// recovered.
func (r *ErrorRecovery) PerformDriveHealthRecovery(ctx context.Context) DriveHealthResult {
	var recovered []string
	allHealthy := true

	for _, dir := range r.sourceDirectories {
		if err := r.statDir(dir); err == nil {
			continue
		}

		healedThisDir := false
		for attempt := 1; attempt <= 3; attempt++ {
			r.sleeper(5 * time.Second * time.Duration(attempt))
			if err := r.statDir(dir); err == nil {
				healedThisDir = true
				break
			}
		}
		if healedThisDir {
			recovered = append(recovered, dir)
		} else {
			allHealthy = false
		}
	}

	if len(recovered) > 0 {
		r.processor.ResetCircuitBreakers()
	}

	return DriveHealthResult{Healthy: allHealthy, RecoveredDrives: recovered}
}

// Metrics returns a copy of the rolling recovery metrics.
func (r *ErrorRecovery) Metrics() RecoveryMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	patterns := make(map[apperrors.Kind]int, len(r.metrics.ErrorPatterns))
	for k, v := range r.metrics.ErrorPatterns {
		patterns[k] = v
	}
	m := r.metrics
	m.ErrorPatterns = patterns
	return m
}
