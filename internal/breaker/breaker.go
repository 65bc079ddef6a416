// Package breaker implements the three-state circuit breaker described
// in: CLOSED allows all calls, OPEN denies all calls until
// a recovery window elapses, HALF_OPEN admits calls again as probes and
// closes after enough consecutive successes (it does not cap how many
// calls are admitted).
package breaker

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// State is one of the three circuit breaker states.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Config tunes a single named breaker's thresholds and retry behavior.
type Config struct {
	Name             string
	FailureThreshold int
	SuccessThreshold int
	TimeoutMs        int
	RecoveryTimeMs   int
	MaxRetries       int
	RetryDelayMs     int
	MaxRetryDelayMs  int
}

// DefaultExternalDriveConfig tunes a breaker wrapping calls to the
// removable/network volume the captured HTML lives on: patient retries,
// a long recovery window, since the drive recovering is often slow.
func DefaultExternalDriveConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		TimeoutMs:        10_000,
		RecoveryTimeMs:   30_000,
		MaxRetries:       3,
		RetryDelayMs:     1_000,
		MaxRetryDelayMs:  8_000,
	}
}

// DefaultDatabaseConfig tunes a breaker wrapping store operations:
// tighter timeout, faster recovery probe, since a local store failing
// usually means contention, not a dead dependency.
func DefaultDatabaseConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		SuccessThreshold: 2,
		TimeoutMs:        5_000,
		RecoveryTimeMs:   10_000,
		MaxRetries:       2,
		RetryDelayMs:     500,
		MaxRetryDelayMs:  4_000,
	}
}

// DefaultFileProcessingConfig tunes a breaker wrapping per-file stat,
// read, and checksum operations during Bronze ingestion.
func DefaultFileProcessingConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 10,
		SuccessThreshold: 3,
		TimeoutMs:        3_000,
		RecoveryTimeMs:   15_000,
		MaxRetries:       2,
		RetryDelayMs:     200,
		MaxRetryDelayMs:  2_000,
	}
}

// Result is returned by every Execute call regardless of outcome.
type Result struct {
	Success        bool
	Data           any
	Err            error
	RetryCount     int
	ResponseTimeMs int64
}

// Metrics is a point-in-time snapshot of a breaker's counters, safe to
// read concurrently with Execute.
type Metrics struct {
	Name             string
	State            State
	FailureCount     int
	SuccessCount     int
	TotalCalls       int64
	TotalFailures    int64
	TotalSuccesses   int64
	NextAttemptTime  time.Time
	LastStateChange  time.Time
}

// CircuitBreaker wraps fallible operations with a timeout, retries with
// exponential backoff and jitter, and three-state failure gating.
type CircuitBreaker struct {
	cfg Config

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	nextAttemptTime time.Time
	lastStateChange time.Time

	totalCalls     int64
	totalFailures  int64
	totalSuccesses int64

	// rand is overridable so tests can make jitter deterministic.
	rand func() float64

	// backoffFactory builds the exponential-multiplier engine used by
	// backoffDelay; the struct's own jitter is disabled (RandomizationFactor
	// 0) since one-sided jitter term is added separately.
	backoffFactory func() *backoff.ExponentialBackOff
}

// New constructs a CircuitBreaker in the CLOSED state.
func New(cfg Config) *CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "unnamed"
	}
	b := &CircuitBreaker{
		cfg:             cfg,
		state:           StateClosed,
		lastStateChange: time.Now(),
		rand:            rand.Float64,
	}
	b.backoffFactory = func() *backoff.ExponentialBackOff {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = time.Duration(cfg.RetryDelayMs) * time.Millisecond
		eb.Multiplier = 2.0
		eb.RandomizationFactor = 0 // jitter is applied separately, see backoffDelay
		eb.MaxInterval = time.Duration(cfg.MaxRetryDelayMs) * time.Millisecond
		eb.MaxElapsedTime = 0 // never auto-stop; MaxRetries governs attempt count
		return eb
	}
	return b
}

// State reports the breaker's current state.
func (b *CircuitBreaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Metrics returns a snapshot safe for concurrent health-server reads.
func (b *CircuitBreaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Metrics{
		Name:            b.cfg.Name,
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		TotalCalls:      b.totalCalls,
		TotalFailures:   b.totalFailures,
		TotalSuccesses:  b.totalSuccesses,
		NextAttemptTime: b.nextAttemptTime,
		LastStateChange: b.lastStateChange,
	}
}

// Reset returns the breaker to CLOSED with all counters zeroed.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
	b.nextAttemptTime = time.Time{}
	b.lastStateChange = time.Now()
}

// Operation is the fallible call a CircuitBreaker wraps.
type Operation func(ctx context.Context) (any, error)

// Execute runs op per the contract in: fail fast while
// OPEN and the recovery window hasn't elapsed, otherwise attempt the
// call with a per-call timeout, retrying retriable failures with
// exponential backoff and jitter up to MaxRetries.
func (b *CircuitBreaker) Execute(ctx context.Context, op Operation) Result {
	start := time.Now()

	if !b.allowRequest() {
		return Result{
			Success:        false,
			Err:            fmt.Errorf("circuit breaker '%s' is OPEN", b.cfg.Name),
			RetryCount:     0,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		}
	}

	var lastErr error
	retries := 0
	for attempt := 0; ; attempt++ {
		data, err := b.callWithTimeout(ctx, op)
		if err == nil {
			b.onSuccess()
			return Result{Success: true, Data: data, RetryCount: retries, ResponseTimeMs: time.Since(start).Milliseconds()}
		}

		lastErr = err
		b.onFailure()

		if attempt >= b.cfg.MaxRetries || !isRetriable(err) {
			break
		}
		retries++

		delay := b.backoffDelay(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			lastErr = ctx.Err()
			goto done
		case <-timer.C:
		}
	}
done:
	return Result{
		Success:        false,
		Err:            lastErr,
		RetryCount:     retries,
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
}

func (b *CircuitBreaker) callWithTimeout(ctx context.Context, op Operation) (any, error) {
	callCtx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	type outcome struct {
		data any
		err  error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		data, err := op(callCtx)
		resultCh <- outcome{data, err}
	}()

	select {
	case out := <-resultCh:
		return out.data, out.err
	case <-callCtx.Done():
		return nil, fmt.Errorf("operation timed out after %dms: %w", b.cfg.TimeoutMs, callCtx.Err())
	}
}

func (b *CircuitBreaker) allowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Now().Before(b.nextAttemptTime) {
			return false
		}
		b.transitionTo(StateHalfOpen)
		return true
	default:
		return true
	}
}

func (b *CircuitBreaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	b.totalSuccesses++

	switch b.state {
	case StateHalfOpen:
		b.successCount++
		if b.successCount >= b.cfg.SuccessThreshold {
			b.transitionTo(StateClosed)
			b.failureCount = 0
			b.successCount = 0
		}
	case StateClosed:
		b.failureCount = 0
	}
}

func (b *CircuitBreaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	b.totalFailures++

	switch b.state {
	case StateHalfOpen:
		b.transitionTo(StateOpen)
		b.nextAttemptTime = time.Now().Add(time.Duration(b.cfg.RecoveryTimeMs) * time.Millisecond)
		b.successCount = 0
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.cfg.FailureThreshold {
			b.transitionTo(StateOpen)
			b.nextAttemptTime = time.Now().Add(time.Duration(b.cfg.RecoveryTimeMs) * time.Millisecond)
		}
	}
}

func (b *CircuitBreaker) transitionTo(s State) {
	b.state = s
	b.lastStateChange = time.Now()
}

// backoffDelay computes retry_delay × 2^attempt (via a fresh
// ExponentialBackOff run to `attempt` steps), adds jitter ∈ [0, 0.1·delay),
// and caps at MaxRetryDelayMs, per step 4.
func (b *CircuitBreaker) backoffDelay(attempt int) time.Duration {
	eb := b.backoffFactory()
	eb.Reset()

	var base time.Duration
	for i := 0; i <= attempt; i++ {
		base = eb.NextBackOff()
	}

	baseMs := float64(base.Milliseconds())
	jitter := baseMs * 0.1 * b.rand()
	delay := baseMs + jitter
	if max := float64(b.cfg.MaxRetryDelayMs); delay > max {
		delay = max
	}
	return time.Duration(delay) * time.Millisecond
}

var retriablePatterns = []string{
	"timeout", "ebusy", "eagain", "econnreset", "etimedout", "enetunreach", "ehostunreach", "temporary",
}

var nonRetriablePatterns = []string{
	"enoent", "eacces", "enotdir", "eisdir", "emfile", "enfile", "enospc", "erofs",
}

// isRetriable classifies an error by message substring.
// Unknown error shapes default to retriable.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range nonRetriablePatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, p := range retriablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return true
}
