package bronze

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	apperrors "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
	"github.com/jshin42/highschooltrends-v2-sub000/pkg/pathutil"
)

// FileProcessor discovers, validates, checksums, and persists Bronze
// records.
type FileProcessor struct {
	cfg     config.BronzeConfig
	store   *storage.BronzeStore
	logger  *logging.Logger
	breakers *breaker.Manager

	statBreaker  *breaker.CircuitBreaker
	readBreaker  *breaker.CircuitBreaker
	walkBreaker  *breaker.CircuitBreaker
}

// NewFileProcessor wires a FileProcessor against its store, breaker
// manager, and logger.
func NewFileProcessor(cfg config.BronzeConfig, store *storage.BronzeStore, breakerCfg config.BreakerConfig, logger *logging.Logger) *FileProcessor {
	mgr := breaker.NewManager()
	base := breakerCfg.ToBreakerConfig()

	statCfg := base
	statCfg.Name = base.Name + "-stat"
	readCfg := base
	readCfg.Name = base.Name + "-read"
	walkCfg := base
	walkCfg.Name = base.Name + "-walk"

	return &FileProcessor{
		cfg:         cfg,
		store:       store,
		logger:      logger,
		breakers:    mgr,
		statBreaker: mgr.GetOrCreate(statCfg),
		readBreaker: mgr.GetOrCreate(readCfg),
		walkBreaker: mgr.GetOrCreate(walkCfg),
	}
}

// ValidateConfiguration rejects the configuration's fatal conditions.
func (p *FileProcessor) ValidateConfiguration() error {
	return p.cfg.Validate()
}

// DiscoverFiles scans every configured source directory, wrapped by the
// filesystem circuit breaker.
func (p *FileProcessor) DiscoverFiles(ctx context.Context) ([]string, error) {
	res := p.walkBreaker.Execute(ctx, func(ctx context.Context) (any, error) {
		return DiscoverFiles(ctx, p.cfg.SourceDirectories)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data.([]string), nil
}

// ProcessAllFiles runs discovery followed by ProcessBatch over every
// discovered path.
func (p *FileProcessor) ProcessAllFiles(ctx context.Context, correlationID string) (BatchResult, error) {
	paths, err := p.DiscoverFiles(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	return p.ProcessBatch(ctx, paths, correlationID, ""), nil
}

// ProcessBatch chunks paths by parallel_workers, processes each chunk
// concurrently, and persists every record it can insert: valid files as
// pending, invalid ones as quarantined.
func (p *FileProcessor) ProcessBatch(ctx context.Context, paths []string, correlationID, batchID string) BatchResult {
	start := time.Now()
	result := BatchResult{CorrelationID: correlationID, BatchID: batchID, Total: len(paths)}

	chunkSize := p.cfg.ParallelWorkers
	if chunkSize <= 0 {
		chunkSize = 1
	}

	log := p.logger.WithContext(map[string]any{"correlation_id": correlationID, "batch_id": batchID})
	timer := log.StartTimer("bronze.process_batch")

	for start := 0; start < len(paths); start += chunkSize {
		end := start + chunkSize
		if end > len(paths) {
			end = len(paths)
		}
		chunk := paths[start:end]

		outcomes := make([]chunkOutcome, len(chunk))
		g, gctx := errgroup.WithContext(ctx)
		for i, path := range chunk {
			i, path := i, path
			g.Go(func() error {
				outcomes[i] = p.processOne(gctx, path)
				return nil
			})
		}
		_ = g.Wait()

		for _, o := range outcomes {
			switch {
			case o.skipped:
				result.SkippedFiles++
			case o.err != nil:
				result.FailedIngestions++
				result.Errors = append(result.Errors, *o.err)
			default:
				result.SuccessfulIngestions++
			}
		}
	}

	result.Duration = time.Since(start)
	timer.End(fmt.Sprintf("processed %d files: %d ok, %d failed, %d skipped",
		result.Total, result.SuccessfulIngestions, result.FailedIngestions, result.SkippedFiles))
	return result
}

type chunkOutcome struct {
	skipped bool
	err     *ProcessingError
}

func (p *FileProcessor) processOne(ctx context.Context, path string) chunkOutcome {
	meta := ExtractMetadata(ctx, path, p.cfg.MaxFileSize, p.cfg.ChecksumVerification, p.statBreaker, p.readBreaker)

	status := storage.BronzeStatusPending
	if !meta.IsValid {
		status = storage.BronzeStatusQuarantined
	}

	record := storage.BronzeRecord{
		FilePath:         meta.FilePath,
		SchoolSlug:       meta.SchoolSlug,
		CaptureTimestamp: meta.CaptureTimestamp,
		FileSize:         meta.FileSize,
		ChecksumSHA256:   meta.ChecksumSHA256,
		ProcessingStatus: status,
		SourceDataset:    classifySourceDataset(meta.FilePath),
		PriorityBucket:   storage.PriorityBucketUnknown,
		ProcessingErrors: meta.Reasons,
	}

	if p.store == nil {
		return chunkOutcome{}
	}

	_, err := p.store.Insert(ctx, record)
	if err == nil {
		return chunkOutcome{}
	}

	kind := classifyStoreOrValidationError(err, meta)
	return chunkOutcome{err: &ProcessingError{
		FilePath:  p.displayPath(path),
		ErrorType: string(kind),
		Message:   err.Error(),
	}}
}

// displayPath converts an absolute capture path to a path relative to
// whichever configured source directory contains it, for surfacing in
// ProcessingErrors and logs without the operator's full local mount
// prefix. Falls back to the absolute path when none of the configured
// roots contain it.
func (p *FileProcessor) displayPath(path string) string {
	for _, root := range p.cfg.SourceDirectories {
		if rel := pathutil.ToRelative(path, root); rel != path {
			return rel
		}
	}
	return path
}

func classifyStoreOrValidationError(err error, meta FileMetadata) apperrors.Kind {
	if err == storage.ErrDuplicateFilePath {
		return apperrors.KindDuplicateSlug
	}
	if !meta.IsValid {
		return apperrors.KindInvalidFormat
	}
	return apperrors.KindStore
}

// GetCircuitBreakerMetrics returns a snapshot of every breaker this
// processor owns.
func (p *FileProcessor) GetCircuitBreakerMetrics() map[string]breaker.Metrics {
	return p.breakers.GetAllMetrics()
}

// ResetCircuitBreakers resets every breaker this processor owns to CLOSED.
func (p *FileProcessor) ResetCircuitBreakers() {
	p.breakers.ResetAll()
}

// Breakers exposes the processor's breaker manager to collaborators like
// ErrorRecovery without giving them direct field access.
func (p *FileProcessor) Breakers() *breaker.Manager {
	return p.breakers
}
