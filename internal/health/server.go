package health

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/recovery"
)

// Version is embedded in /health responses; set at build time via
// -ldflags, defaulting to "dev" otherwise.
var Version = "dev"

// Server serves the HTTP health/readiness/liveness surface over a
// Monitor, via chi routing with a request-id and request-timeout
// middleware stack.
type Server struct {
	monitor *Monitor
	cfg     config.HealthServerConfig
	router  chi.Router

	breakers *breaker.Manager
	recovery *recovery.ErrorRecovery

	lc lifecycle
}

// NewServer wires a chi router exposing the documented health
// endpoints plus the supplemental recovery/breaker introspection
// endpoints. breakers and rec may be nil; their endpoints then report
// 404, since nothing is registered to introspect.
func NewServer(monitor *Monitor, cfg config.HealthServerConfig, breakers *breaker.Manager, rec *recovery.ErrorRecovery) *Server {
	s := &Server{monitor: monitor, cfg: cfg, breakers: breakers, recovery: rec}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	if cfg.MaxRequestTimeMs > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.MaxRequestTimeMs) * time.Millisecond))
	}
	if cfg.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		}))
	}
	r.Use(methodGateMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/health/detailed", s.handleDetailed)
	r.Get("/health/metrics", s.handleMetrics)
	r.Get("/health/slo", s.handleSLO)
	r.Get("/health/alerts", s.handleAlerts)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)
	r.Get("/health/recovery", s.handleRecovery)
	r.Get("/health/breakers", s.handleBreakers)
	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	s.router = r
	return s
}

// Router exposes the underlying chi.Router for http.Server wiring or
// testing via httptest.
func (s *Server) Router() chi.Router {
	return s.router
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, req)
	})
}

// methodGateMiddleware enforces "only GET and OPTIONS
// are accepted" rule ahead of chi's route matching, so a POST to a
// known path still 405s instead of 404ing via no route match.
func methodGateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodOptions {
			methodNotAllowedHandler(w, req)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	check := s.monitor.GetHealthCheck(r.Context())
	writeJSON(w, r, statusCode(check.Status), map[string]any{
		"status":  check.Status,
		"uptime":  s.monitor.Uptime(),
		"version": Version,
	})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	check := s.monitor.GetHealthCheck(r.Context())
	writeJSON(w, r, statusCode(check.Status), check)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	check := s.monitor.GetHealthCheck(r.Context())
	writeJSON(w, r, http.StatusOK, check.Metrics)
}

func (s *Server) handleSLO(w http.ResponseWriter, r *http.Request) {
	check := s.monitor.GetHealthCheck(r.Context())
	writeJSON(w, r, http.StatusOK, map[string]any{
		"violations": check.Violations,
		"count":      len(check.Violations),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"alerts": s.monitor.GetActiveAlerts(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	check := s.monitor.GetHealthCheck(r.Context())
	ready := check.Status != StatusCritical
	for _, c := range check.Components {
		if c.Status == StatusFailed {
			ready = false
		}
	}
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, map[string]any{"ready": ready})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"alive": true})
}

// handleRecovery exposes ErrorRecovery's rolling metrics, generalizing
// metric-collector registration into its own read-only view.
func (s *Server) handleRecovery(w http.ResponseWriter, r *http.Request) {
	if s.recovery == nil {
		notFoundHandler(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, s.recovery.Metrics())
}

// handleBreakers lists every named breaker's state and counters,
// pairing get_circuit_breaker_metrics()'s in-process getter with a
// served view.
func (s *Server) handleBreakers(w http.ResponseWriter, r *http.Request) {
	if s.breakers == nil {
		notFoundHandler(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, s.breakers.GetAllMetrics())
}

func statusCode(status Status) int {
	switch status {
	case StatusHealthy, StatusDegraded:
		return http.StatusOK
	default:
		return http.StatusServiceUnavailable
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, message string) {
	body, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":       code,
			"message":    message,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"request_id": w.Header().Get("X-Request-ID"),
		},
	})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusNotFound, "not found")
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
