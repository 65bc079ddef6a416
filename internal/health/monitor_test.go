package health

import (
	"context"
	"testing"
)

func componentFunc(status Status) ComponentCheck {
	return func(ctx context.Context) (ComponentHealth, error) {
		return ComponentHealth{Status: status, Message: string(status)}, nil
	}
}

func metricFunc(v float64) MetricCollector {
	return func(ctx context.Context) (float64, error) { return v, nil }
}

func TestHealthStatusCascadeDegradedThenCritical(t *testing.T) {
	m := NewMonitor(nil)
	m.RegisterComponent("bronze", componentFunc(StatusOperational))
	m.RegisterComponent("silver", componentFunc(StatusDegraded))
	m.RegisterMetric("error_rate", metricFunc(3))
	m.RegisterMetric("processing_rate", metricFunc(900))

	check := m.GetHealthCheck(context.Background())
	if check.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", check.Status)
	}
	if len(check.Violations) != 1 || check.Violations[0].Name != "error_rate" || check.Violations[0].Severity != "warning" {
		t.Fatalf("expected a single warning violation on error_rate, got %+v", check.Violations)
	}

	m.RegisterComponent("silver", componentFunc(StatusFailed))
	check = m.GetHealthCheck(context.Background())
	if check.Status != StatusCritical {
		t.Fatalf("expected critical after component failure, got %s", check.Status)
	}
}

func TestMetricCollectorFailureYieldsSentinel(t *testing.T) {
	m := NewMonitor(nil)
	m.RegisterMetric("broken", func(ctx context.Context) (float64, error) {
		return 0, errBroken
	})
	check := m.GetHealthCheck(context.Background())
	if check.Metrics["broken"] != -1 {
		t.Fatalf("expected sentinel -1, got %v", check.Metrics["broken"])
	}
	if check.Status != StatusHealthy {
		t.Fatalf("a collector failure must not abort the check, got status %s", check.Status)
	}
}

func TestComponentCheckFailureBecomesFailedEntry(t *testing.T) {
	m := NewMonitor(nil)
	m.RegisterComponent("storage", func(ctx context.Context) (ComponentHealth, error) {
		return ComponentHealth{}, errBroken
	})
	check := m.GetHealthCheck(context.Background())
	if check.Components["storage"].Status != StatusFailed {
		t.Fatalf("expected failed component entry, got %+v", check.Components["storage"])
	}
	if check.Status != StatusCritical {
		t.Fatalf("a failed component must drive overall status to critical, got %s", check.Status)
	}
}

func TestAlertCreateResolveAndActiveList(t *testing.T) {
	m := NewMonitor(nil)
	a := m.CreateAlert(SeverityWarning, "drive slow", "external volume degraded", "bronze")
	if len(m.GetActiveAlerts()) != 1 {
		t.Fatalf("expected one active alert")
	}
	if !m.ResolveAlert(a.ID) {
		t.Fatalf("expected resolve to succeed")
	}
	if len(m.GetActiveAlerts()) != 0 {
		t.Fatalf("expected zero active alerts after resolve")
	}
	if m.ResolveAlert(999) {
		t.Fatalf("expected resolve of unknown id to fail")
	}
}

type sentinelErr struct{ msg string }

func (e *sentinelErr) Error() string { return e.msg }

var errBroken = &sentinelErr{msg: "broken"}
