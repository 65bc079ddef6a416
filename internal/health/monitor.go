package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
)

// Monitor aggregates component checks and metric collectors registered
// in sync.Maps, the same lock-free-reads registry pattern used
// elsewhere, and evaluates SLOs and alerts against them on demand.
type Monitor struct {
	components sync.Map // map[string]ComponentCheck
	metrics    sync.Map // map[string]MetricCollector
	slos       []SLO

	startedAt time.Time
	logger    *logging.Logger

	mu     sync.Mutex
	alerts []Alert
}

// NewMonitor constructs a Monitor with the fixed default SLOs and a
// start time used for component uptime reporting.
func NewMonitor(logger *logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Monitor{
		slos:      DefaultSLOs(),
		startedAt: time.Now(),
		logger:    logger,
	}
}

// DefaultSLOs returns the monitor's baseline service-level objectives:
// an error rate ceiling and a processing-throughput floor.
func DefaultSLOs() []SLO {
	return []SLO{
		{Name: "error_rate", Target: 1, WarningThreshold: 2, CriticalThresh: 5, Unit: "percent", Description: "fraction of processed files that error"},
		{Name: "processing_rate", Target: 1000, WarningThreshold: 800, CriticalThresh: 500, Unit: "files/min", Description: "sustained file processing throughput", Floor: true},
	}
}

// RegisterComponent adds or replaces a named component check.
func (m *Monitor) RegisterComponent(name string, check ComponentCheck) {
	m.components.Store(name, check)
}

// RegisterMetric adds or replaces a named metric collector.
func (m *Monitor) RegisterMetric(name string, collector MetricCollector) {
	m.metrics.Store(name, collector)
}

// RegisterSLO appends an SLO to the evaluated set, replacing any
// existing SLO of the same name.
func (m *Monitor) RegisterSLO(slo SLO) {
	for i, existing := range m.slos {
		if existing.Name == slo.Name {
			m.slos[i] = slo
			return
		}
	}
	m.slos = append(m.slos, slo)
}

// GetHealthCheck runs every registered component check and metric
// collector, evaluates SLOs against the resulting metrics snapshot,
// and folds in active alerts.
func (m *Monitor) GetHealthCheck(ctx context.Context) SystemHealthCheck {
	now := time.Now()
	components := m.runComponents(ctx, now)
	metrics := m.runMetrics(ctx)
	violations := evaluateSLOs(m.slos, metrics, now)

	return SystemHealthCheck{
		Status:     overallStatus(components, violations),
		Components: components,
		Metrics:    metrics,
		Violations: violations,
		Alerts:     m.GetActiveAlerts(),
		CheckedAt:  now,
	}
}

func (m *Monitor) runComponents(ctx context.Context, now time.Time) map[string]ComponentHealth {
	results := make(map[string]ComponentHealth)
	m.components.Range(func(key, value any) bool {
		name := key.(string)
		check := value.(ComponentCheck)
		result, err := check(ctx)
		if err != nil {
			result = ComponentHealth{
				Name:        name,
				Status:      StatusFailed,
				Message:     err.Error(),
				LastChecked: now,
			}
			m.logger.Error("component health check failed", zap.String("component", name), zap.Error(err))
		}
		if result.Name == "" {
			result.Name = name
		}
		if result.LastChecked.IsZero() {
			result.LastChecked = now
		}
		results[name] = result
		return true
	})
	return results
}

func (m *Monitor) runMetrics(ctx context.Context) map[string]float64 {
	results := make(map[string]float64)
	m.metrics.Range(func(key, value any) bool {
		name := key.(string)
		collector := value.(MetricCollector)
		v, err := collector(ctx)
		if err != nil {
			v = -1
			m.logger.Error("metric collector failed", zap.String("metric", name), zap.Error(err))
		}
		results[name] = v
		return true
	})
	return results
}

func evaluateSLOs(slos []SLO, metrics map[string]float64, now time.Time) []Violation {
	var violations []Violation
	for _, slo := range slos {
		actual, ok := metrics[slo.Name]
		if !ok {
			continue
		}
		severity := ""
		if slo.Floor {
			switch {
			case actual < slo.CriticalThresh:
				severity = "critical"
			case actual < slo.WarningThreshold:
				severity = "warning"
			}
		} else {
			switch {
			case actual > slo.CriticalThresh:
				severity = "critical"
			case actual > slo.WarningThreshold:
				severity = "warning"
			}
		}
		if severity == "" {
			continue
		}
		violations = append(violations, Violation{
			Name:        slo.Name,
			Target:      slo.Target,
			Actual:      actual,
			Severity:    severity,
			Description: slo.Description,
			Timestamp:   now,
		})
	}
	return violations
}

// overallStatus classifies the system per: critical if any
// component failed or any critical violation exists; unhealthy if
// more than one component is degraded; degraded if exactly one
// component is degraded, or at least one warning violation exists
// (with no degraded component); healthy otherwise.
func overallStatus(components map[string]ComponentHealth, violations []Violation) Status {
	degradedCount := 0
	failed := false
	for _, c := range components {
		switch c.Status {
		case StatusFailed:
			failed = true
		case StatusDegraded:
			degradedCount++
		}
	}

	criticalViolation := false
	warningCount := 0
	for _, v := range violations {
		if v.Severity == "critical" {
			criticalViolation = true
		} else if v.Severity == "warning" {
			warningCount++
		}
	}

	switch {
	case failed || criticalViolation:
		return StatusCritical
	case degradedCount > 1:
		return StatusUnhealthy
	case degradedCount == 1 || warningCount >= 1:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

// CreateAlert appends a new unresolved alert to the append-only log.
func (m *Monitor) CreateAlert(severity AlertSeverity, title, description, component string) Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	alert := Alert{
		ID:          len(m.alerts),
		Severity:    severity,
		Title:       title,
		Description: description,
		Component:   component,
		Timestamp:   time.Now(),
	}
	m.alerts = append(m.alerts, alert)
	return alert
}

// ResolveAlert flips the resolved flag for the alert at the given id.
func (m *Monitor) ResolveAlert(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.alerts) {
		return false
	}
	m.alerts[id].Resolved = true
	return true
}

// GetActiveAlerts returns every unresolved alert.
func (m *Monitor) GetActiveAlerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := make([]Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		if !a.Resolved {
			active = append(active, a)
		}
	}
	return active
}

// Uptime reports seconds elapsed since the monitor started.
func (m *Monitor) Uptime() float64 {
	return time.Since(m.startedAt).Seconds()
}
