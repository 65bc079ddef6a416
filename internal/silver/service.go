package silver

import (
	"context"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// Service orchestrates Silver runs: pulling pending Bronze ids and
// driving the Processor over them, plus statistics for the health
// server.
type Service struct {
	processor   *Processor
	bronzeStore *storage.BronzeStore
	silverStore *storage.SilverStore
}

// NewService wires a Service from configuration and both open stores.
func NewService(cfg config.SilverConfig, bronzeStore *storage.BronzeStore, silverStore *storage.SilverStore, readBreakerCfg breaker.Config, logger *logging.Logger) *Service {
	cb := breaker.New(readBreakerCfg)
	return &Service{
		processor:   NewProcessor(cfg, bronzeStore, silverStore, cb, logger),
		bronzeStore: bronzeStore,
		silverStore: silverStore,
	}
}

// RunPending loads every bronze_records row still pending and extracts
// each one.
func (s *Service) RunPending(ctx context.Context) ([]storage.SilverRecord, []error) {
	pending, err := s.bronzeStore.GetByStatus(ctx, storage.BronzeStatusPending)
	if err != nil {
		return nil, []error{err}
	}
	ids := make([]int64, len(pending))
	for i, r := range pending {
		ids[i] = r.ID
	}
	return s.processor.ProcessBatch(ctx, ids)
}

// GetStatistics delegates to the SilverStore's statistics view.
func (s *Service) GetStatistics(ctx context.Context) (storage.SilverStatistics, error) {
	return s.silverStore.Statistics(ctx)
}

// Processor exposes the underlying Processor for direct single-record
// use (e.g. reprocessing one id from recovery).
func (s *Service) Processor() *Processor {
	return s.processor
}
