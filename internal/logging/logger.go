// Package logging provides the process-wide structured logger used by
// every other component: context-inheriting child loggers, performance
// timers, and correlation-id generation.
package logging

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger with an immutable context map. WithContext
// returns a new Logger; it never mutates the receiver, so sibling
// loggers derived from the same parent never see each other's fields.
type Logger struct {
	z       *zap.Logger
	context map[string]any
}

var (
	baseOnce   sync.Once
	baseLogger *Logger
)

// Default returns the process-wide base logger, built once from
// LOG_LEVEL and APP_ENV. Callers that need isolated loggers (tests)
// should use New directly instead.
func Default() *Logger {
	baseOnce.Do(func() {
		baseLogger = New(levelFromEnv(), productionFromEnv())
	})
	return baseLogger
}

// New builds a Logger at the given level, using zap's JSON encoder in
// production profiles and its colored console encoder otherwise.
func New(level zapcore.Level, production bool) *Logger {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(level)

	z, err := cfg.Build()
	if err != nil {
		// Building a zap config from well-formed defaults cannot fail in
		// practice; fall back to a no-op logger rather than panic.
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

func levelFromEnv() zapcore.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func productionFromEnv() bool {
	env := strings.ToLower(os.Getenv("APP_ENV"))
	return env == "production" || env == "prod"
}

// WithContext returns a derived Logger whose emitted events carry the
// union of the parent's context and the supplied keys. The receiver is
// never mutated.
func (l *Logger) WithContext(extra map[string]any) *Logger {
	merged := make(map[string]any, len(l.context)+len(extra))
	for k, v := range l.context {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &Logger{z: l.z.With(toFields(extra)...), context: merged}
}

func toFields(ctx map[string]any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx))
	for k, v := range ctx {
		fields = append(fields, zap.Any(k, v))
	}
	return fields
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.z.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.z.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.z.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...zap.Field) { l.z.Error(msg, fields...) }

// Sync flushes any buffered log entries. Callers should defer this at
// process shutdown; a sync error on stderr/stdout is expected on some
// platforms and is intentionally ignored.
func (l *Logger) Sync() {
	_ = l.z.Sync()
}

// Context returns a copy of this logger's accumulated context map, used
// by PerformanceTimer to snapshot context at timer creation.
func (l *Logger) Context() map[string]any {
	out := make(map[string]any, len(l.context))
	for k, v := range l.context {
		out[k] = v
	}
	return out
}
