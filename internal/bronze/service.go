package bronze

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// Statistics summarizes the current state of the bronze_records table
// for the health server and operator tooling.
type Statistics struct {
	TotalRecords     int
	CountByStatus    map[storage.BronzeStatus]int
	CountByDataset   map[storage.SourceDataset]int
	CountByPriority  map[storage.PriorityBucket]int
	AverageFileSize  float64
}

// Service orchestrates Bronze runs end to end: it owns the FileProcessor
// and the store, and surfaces run statistics and breaker health to
// callers like the health server and cmd/bronze-ingest.
type Service struct {
	processor *FileProcessor
	store     *storage.BronzeStore
	logger    *logging.Logger
}

// NewService wires a Service from configuration and an open store.
func NewService(cfg config.BronzeConfig, store *storage.BronzeStore, breakerCfg config.BreakerConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		processor: NewFileProcessor(cfg, store, breakerCfg, logger),
		store:     store,
		logger:    logger,
	}
}

// RunOnce discovers and ingests every file under the configured source
// directories in a single batch run, generating a correlation id if the
// caller doesn't supply one.
func (s *Service) RunOnce(ctx context.Context, correlationID string) (BatchResult, error) {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	if err := s.processor.ValidateConfiguration(); err != nil {
		return BatchResult{}, err
	}

	log := s.logger.WithContext(map[string]any{"correlation_id": correlationID})
	log.Info("bronze run starting")

	result, err := s.processor.ProcessAllFiles(ctx, correlationID)
	if err != nil {
		log.Error("bronze run failed")
		return result, err
	}

	log.Info("bronze run complete")
	return result, nil
}

// GetStatistics aggregates the store's current counts for reporting.
func (s *Service) GetStatistics(ctx context.Context) (Statistics, error) {
	byStatus, err := s.store.GetCountByStatus(ctx)
	if err != nil {
		return Statistics{}, err
	}
	byDataset, err := s.store.GetCountByDataset(ctx)
	if err != nil {
		return Statistics{}, err
	}
	byPriority, err := s.store.GetCountByPriority(ctx)
	if err != nil {
		return Statistics{}, err
	}
	total, err := s.store.GetTotalCount(ctx)
	if err != nil {
		return Statistics{}, err
	}
	avg, err := s.store.GetAverageFileSize(ctx)
	if err != nil {
		return Statistics{}, err
	}

	return Statistics{
		TotalRecords:    total,
		CountByStatus:   byStatus,
		CountByDataset:  byDataset,
		CountByPriority: byPriority,
		AverageFileSize: avg,
	}, nil
}

// HealthSnapshot is the shape BronzeService exposes to the health server.
type HealthSnapshot struct {
	Healthy       bool
	OpenCircuits  []string
	Breakers      map[string]breaker.Metrics
	LastCheckedAt time.Time
}

// CheckHealth reports whether any owned breaker is OPEN.
func (s *Service) CheckHealth() HealthSnapshot {
	metrics := s.processor.GetCircuitBreakerMetrics()
	var open []string
	for name, m := range metrics {
		if m.State == breaker.StateOpen {
			open = append(open, name)
		}
	}
	return HealthSnapshot{
		Healthy:       len(open) == 0,
		OpenCircuits:  open,
		Breakers:      metrics,
		LastCheckedAt: time.Now(),
	}
}

// Processor exposes the underlying FileProcessor to collaborators that
// need lower-level access (recovery, cmd wiring).
func (s *Service) Processor() *FileProcessor {
	return s.processor
}
