package logging

import (
	"time"

	"go.uber.org/zap"
)

// PerformanceTimer captures a start time, operation name, and a snapshot
// of the owning logger's context, so elapsed-time events can be emitted
// without re-deriving context at End time.
type PerformanceTimer struct {
	logger    *Logger
	operation string
	started   time.Time
	context   map[string]any
}

// StartTimer begins timing an operation against this logger.
func (l *Logger) StartTimer(operation string) *PerformanceTimer {
	return &PerformanceTimer{
		logger:    l,
		operation: operation,
		started:   time.Now(),
		context:   l.Context(),
	}
}

// End emits an info event with the elapsed duration in milliseconds.
func (t *PerformanceTimer) End(message string) {
	if message == "" {
		message = t.operation + " completed"
	}
	t.logger.Info(message,
		zap.String("operation", t.operation),
		zap.Int64("duration_ms", t.elapsedMillis()),
		zap.Any("context", t.context),
	)
}

// EndWithError emits an error event with the elapsed duration plus the
// error's message.
func (t *PerformanceTimer) EndWithError(err error, message string) {
	if message == "" {
		message = t.operation + " failed"
	}
	t.logger.Error(message,
		zap.String("operation", t.operation),
		zap.Int64("duration_ms", t.elapsedMillis()),
		zap.Any("context", t.context),
		zap.Error(err),
	)
}

func (t *PerformanceTimer) elapsedMillis() int64 {
	return time.Since(t.started).Milliseconds()
}

// Elapsed returns the duration since the timer started, for callers
// that want to branch on elapsed time without ending the timer.
func (t *PerformanceTimer) Elapsed() time.Duration {
	return time.Since(t.started)
}
