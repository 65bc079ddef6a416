package breaker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain ensures no goroutines leak across this package's circuit
// breaker and manager tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func noRetryConfig(name string, failureThreshold int) Config {
	return Config{
		Name:             name,
		FailureThreshold: failureThreshold,
		SuccessThreshold: 2,
		TimeoutMs:        50,
		RecoveryTimeMs:   50,
		MaxRetries:       0,
		RetryDelayMs:     10,
		MaxRetryDelayMs:  100,
	}
}

func TestOpensAfterExactlyFailureThreshold(t *testing.T) {
	cb := New(noRetryConfig("stat", 3))
	fail := func(ctx context.Context) (any, error) { return nil, errors.New("enoent: no such file") }

	for i := 0; i < 2; i++ {
		res := cb.Execute(context.Background(), fail)
		require.False(t, res.Success, "expected failure on attempt %d", i+1)
		require.Equal(t, StateClosed, cb.State(), "expected CLOSED before threshold, attempt %d", i+1)
	}

	res := cb.Execute(context.Background(), fail)
	assert.False(t, res.Success, "expected failure on threshold attempt")
	assert.Equal(t, StateOpen, cb.State(), "expected OPEN after exactly %d failures", 3)
}

func TestOpenCircuitFailsFastWithoutInvokingOperation(t *testing.T) {
	cb := New(noRetryConfig("db", 1))
	calls := 0
	fail := func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("timeout")
	}
	cb.Execute(context.Background(), fail)
	require.Equal(t, StateOpen, cb.State(), "expected OPEN after single failure with threshold 1")

	res := cb.Execute(context.Background(), fail)
	assert.Equal(t, 1, calls, "expected wrapped operation not to run while OPEN")
	assert.Zero(t, res.RetryCount, "expected retry_count 0 for fast-fail")
	require.Error(t, res.Err)
	assert.Equal(t, "circuit breaker 'db' is OPEN", res.Err.Error())
}

func TestHalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	cfg := noRetryConfig("volume", 1)
	cfg.RecoveryTimeMs = 0 // window elapses immediately for this test
	cfg.SuccessThreshold = 2
	cb := New(cfg)

	cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("timeout")
	})
	require.Equal(t, StateOpen, cb.State())

	ok := func(ctx context.Context) (any, error) { return "ok", nil }

	cb.Execute(context.Background(), ok) // transitions OPEN -> HALF_OPEN, first success
	require.Equal(t, StateHalfOpen, cb.State(), "expected HALF_OPEN after one success")

	cb.Execute(context.Background(), ok) // second consecutive success
	assert.Equal(t, StateClosed, cb.State(), "expected CLOSED after success_threshold consecutive successes")
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cfg := noRetryConfig("volume", 1)
	cfg.RecoveryTimeMs = 0
	cb := New(cfg)

	cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("timeout")
	})

	cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("timeout")
	})
	assert.Equal(t, StateOpen, cb.State(), "expected a HALF_OPEN failure to reopen the circuit")
}

func TestRetriableClassification(t *testing.T) {
	cases := map[string]bool{
		"ETIMEDOUT":                     true,
		"connection reset (ECONNRESET)": true,
		"ENOENT: no such file":          false,
		"EACCES: permission":            false,
		"some unknown wobble":           true,
	}
	for msg, want := range cases {
		assert.Equal(t, want, isRetriable(errors.New(msg)), "isRetriable(%q)", msg)
	}
}

func TestManagerGetOrCreateAndReset(t *testing.T) {
	mgr := NewManager()
	cb := mgr.GetOrCreate(noRetryConfig("fs", 1))
	cb.Execute(context.Background(), func(ctx context.Context) (any, error) {
		return nil, errors.New("timeout")
	})
	require.Len(t, mgr.GetOpenCircuits(), 1)
	mgr.ResetAll()
	assert.Empty(t, mgr.GetOpenCircuits(), "expected no open circuits after ResetAll")
}
