// Package health implements the HealthMonitor and HealthServer: component
// and metric registration, SLO evaluation, append-only alerting, and the
// JSON HTTP surface served over them.
package health

import (
	"context"
	"time"
)

// Status is a component's or the system's overall classification.
type Status string

const (
	StatusOperational Status = "operational"
	StatusDegraded    Status = "degraded"
	StatusFailed      Status = "failed"

	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusCritical  Status = "critical"
)

// ComponentHealth is one registered component's check result.
type ComponentHealth struct {
	Name          string         `json:"name"`
	Status        Status         `json:"status"`
	Message       string         `json:"message"`
	Metrics       map[string]any `json:"metrics,omitempty"`
	LastChecked   time.Time      `json:"last_checked"`
	UptimeSeconds *float64       `json:"uptime_seconds,omitempty"`
}

// SLO is a numeric service-level objective evaluated against a live
// metric of the same name. Floor carries whether the thresholds name a
// minimum acceptable value (a throughput SLO, violated when actual
// drops below the threshold) rather than a maximum (an error-rate SLO,
// violated when actual rises above it).
type SLO struct {
	Name             string
	Target           float64
	WarningThreshold float64
	CriticalThresh   float64
	Unit             string
	Description      string
	Floor            bool
}

// Violation records one SLO breach observed during a health check.
type Violation struct {
	Name        string    `json:"name"`
	Target      float64   `json:"target"`
	Actual      float64   `json:"actual"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// AlertSeverity is the severity band of a created Alert.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityError    AlertSeverity = "error"
	SeverityCritical AlertSeverity = "critical"
)

// Alert is an append-only, index-resolved event raised by the monitor
// or by a caller.
type Alert struct {
	ID          int           `json:"id"`
	Severity    AlertSeverity `json:"severity"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Component   string        `json:"component"`
	Timestamp   time.Time     `json:"timestamp"`
	Resolved    bool          `json:"resolved"`
}

// SystemHealthCheck is the full computed snapshot get_health_check
// returns.
type SystemHealthCheck struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Metrics    map[string]float64         `json:"metrics"`
	Violations []Violation                `json:"violations"`
	Alerts     []Alert                    `json:"alerts"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// ComponentCheck is the async function a component registers.
type ComponentCheck func(ctx context.Context) (ComponentHealth, error)

// MetricCollector is the function a metric registers; a failure yields
// the sentinel -1 and is logged, never aborting the overall check.
type MetricCollector func(ctx context.Context) (float64, error)
