package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestWithContextDoesNotMutateParent(t *testing.T) {
	parent := New(zapcore.InfoLevel, false)
	child := parent.WithContext(map[string]any{"correlation_id": "abc123"})

	if len(parent.Context()) != 0 {
		t.Errorf("expected parent context to stay empty, got %v", parent.Context())
	}
	if child.Context()["correlation_id"] != "abc123" {
		t.Errorf("expected child context to carry correlation_id")
	}

	grandchild := child.WithContext(map[string]any{"batch_id": "b-1"})
	if _, ok := child.Context()["batch_id"]; ok {
		t.Errorf("expected child context to be unaffected by grandchild derivation")
	}
	if grandchild.Context()["correlation_id"] != "abc123" || grandchild.Context()["batch_id"] != "b-1" {
		t.Errorf("expected grandchild to carry union of ancestor context, got %v", grandchild.Context())
	}
}

func TestGenerateCorrelationIDUnique(t *testing.T) {
	a := GenerateCorrelationID()
	b := GenerateCorrelationID()
	if a == b {
		t.Errorf("expected distinct correlation ids, got %q twice", a)
	}
	if a == "" {
		t.Errorf("expected non-empty correlation id")
	}
}

func TestPerformanceTimerEnd(t *testing.T) {
	l := New(zapcore.InfoLevel, false)
	timer := l.StartTimer("discover_files")
	timer.End("")
	if timer.Elapsed() < 0 {
		t.Errorf("expected non-negative elapsed duration")
	}
}
