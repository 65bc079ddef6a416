// Package recovery implements per-error-kind retry policies, duplicate
// slug resolution, and external-drive health recovery over Bronze
// records.
package recovery

import (
	"time"

	apperrors "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
)

// Policy is one error kind's retry schedule.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	Backoff      float64 // multiplier per attempt; 1.0 means no backoff
	MaxDelay     time.Duration
}

// delayForAttempt returns the sleep duration before the given
// zero-based retry attempt, capped at MaxDelay.
func (p Policy) delayForAttempt(attempt int) time.Duration {
	delay := float64(p.InitialDelay)
	for i := 0; i < attempt; i++ {
		delay *= p.Backoff
	}
	d := time.Duration(delay)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// policies is the fixed retry table keyed by error kind. duplicate_slug
// is absent: it has zero retries and is handled by
// HandleDuplicateSlugRecords instead of the generic retry loop.
var policies = map[apperrors.Kind]Policy{
	apperrors.KindFileNotFound:     {MaxRetries: 2, InitialDelay: 5 * time.Second, Backoff: 2, MaxDelay: 30 * time.Second},
	apperrors.KindPermissionDenied: {MaxRetries: 1, InitialDelay: 10 * time.Second, Backoff: 1, MaxDelay: 10 * time.Second},
	apperrors.KindCorruptedFile:    {MaxRetries: 3, InitialDelay: 1 * time.Second, Backoff: 2, MaxDelay: 8 * time.Second},
	apperrors.KindInvalidFormat:    {MaxRetries: 1, InitialDelay: 2 * time.Second, Backoff: 1, MaxDelay: 2 * time.Second},
	apperrors.KindChecksumMismatch: {MaxRetries: 2, InitialDelay: 3 * time.Second, Backoff: 2, MaxDelay: 12 * time.Second},
}

// RecoveryMetrics is a rolling summary of every recovery invocation.
type RecoveryMetrics struct {
	RecoveryAttempts     int
	SuccessfulRecoveries int
	FailedRecoveries     int
	AverageRecoveryTime  time.Duration
	ErrorPatterns        map[apperrors.Kind]int
}

// recordRun updates the rolling metrics with one recovery invocation's
// outcome and elapsed time, maintaining AverageRecoveryTime as a
// weighted mean across invocations.
func (m *RecoveryMetrics) recordRun(success bool, elapsed time.Duration, kind apperrors.Kind) {
	if m.ErrorPatterns == nil {
		m.ErrorPatterns = map[apperrors.Kind]int{}
	}
	prevTotal := m.RecoveryAttempts
	m.RecoveryAttempts++
	if success {
		m.SuccessfulRecoveries++
	} else {
		m.FailedRecoveries++
		m.ErrorPatterns[kind]++
	}
	weighted := time.Duration((int64(m.AverageRecoveryTime)*int64(prevTotal) + int64(elapsed)) / int64(m.RecoveryAttempts))
	m.AverageRecoveryTime = weighted
}

// RecoveryResult aggregates recover_all_failed_records' outcome.
type RecoveryResult struct {
	TotalAttempted int
	Successful     int
	StillFailed    int
	Skipped        int
	RecoveryTime   time.Duration
	Errors         []string
}

// DriveHealthResult is perform_drive_health_recovery's outcome.
type DriveHealthResult struct {
	Healthy         bool
	RecoveredDrives []string
}
