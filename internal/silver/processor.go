package silver

import (
	"context"
	"os"
	"time"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/cache"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// Processor runs the three-tier extraction pipeline over Bronze
// records and persists the result as a SilverRecord.
type Processor struct {
	cfg         config.SilverConfig
	bronzeStore *storage.BronzeStore
	silverStore *storage.SilverStore
	cache       *cache.ExtractionCache
	readBreaker *breaker.CircuitBreaker
	logger      *logging.Logger
}

// NewProcessor wires a Processor against both stores and an extraction
// cache keyed by content hash.
func NewProcessor(cfg config.SilverConfig, bronzeStore *storage.BronzeStore, silverStore *storage.SilverStore, readBreaker *breaker.CircuitBreaker, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Processor{
		cfg:         cfg,
		bronzeStore: bronzeStore,
		silverStore: silverStore,
		cache:       cache.New(cache.DefaultConfig()),
		readBreaker: readBreaker,
		logger:      logger,
	}
}

// ProcessRecord extracts and persists one Bronze record by id.
func (p *Processor) ProcessRecord(ctx context.Context, bronzeRecordID int64) (storage.SilverRecord, error) {
	bronze, err := p.bronzeStore.GetByID(ctx, bronzeRecordID)
	if err != nil {
		return storage.SilverRecord{}, err
	}

	raw, err := p.readFile(ctx, bronze.FilePath)
	if err != nil {
		_, _ = p.bronzeStore.UpdateStatus(ctx, bronze.ID, storage.BronzeStatusFailed, []string{err.Error()})
		return storage.SilverRecord{}, err
	}

	merged, extractionErrs := p.extract(bronze.FilePath, raw)

	rec := storage.SilverRecord{
		BronzeRecordID: bronze.ID,
		SchoolSlug:     bronze.SchoolSlug,
	}
	year := NewExtractionContext(bronze.FilePath, raw).SourceYear(time.Now())
	rec.SourceYear = &year

	ApplyToRecord(&rec, merged)
	rec.FieldConfidence = ComputeFieldConfidence(merged)
	rec.ExtractionConfidence = OverallConfidence(rec.FieldConfidence)
	rec.ExtractionStatus = ClassifyStatus(rec.NonNullPayloadFieldCount(), storage.PayloadFieldCount())
	for _, e := range extractionErrs {
		rec.ProcessingErrors = append(rec.ProcessingErrors, e.Error())
	}

	existing, err := p.silverStore.GetByBronzeRecordID(ctx, bronze.ID)
	if err == nil {
		rec.ID = existing.ID
		if updErr := p.silverStore.UpdateRecord(ctx, rec); updErr != nil {
			return storage.SilverRecord{}, updErr
		}
	} else if err == storage.ErrNotFound {
		inserted, insErr := p.silverStore.Insert(ctx, rec)
		if insErr != nil {
			return storage.SilverRecord{}, insErr
		}
		rec = inserted
	} else {
		return storage.SilverRecord{}, err
	}

	finalStatus := storage.BronzeStatusProcessed
	if rec.ExtractionStatus == storage.ExtractionStatusFailed {
		finalStatus = storage.BronzeStatusFailed
	}
	_, _ = p.bronzeStore.UpdateStatus(ctx, bronze.ID, finalStatus, rec.ProcessingErrors)

	return rec, nil
}

// ProcessBatch runs ProcessRecord over every id in ids, chunked by
// parallel_workers, and never aborts the batch on a single failure.
func (p *Processor) ProcessBatch(ctx context.Context, ids []int64) ([]storage.SilverRecord, []error) {
	chunkSize := p.cfg.ParallelWorkers
	if chunkSize <= 0 {
		chunkSize = 1
	}

	var results []storage.SilverRecord
	var errs []error

	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		type outcome struct {
			rec storage.SilverRecord
			err error
		}
		outcomes := make([]outcome, len(chunk))
		done := make(chan struct{}, len(chunk))
		for i, id := range chunk {
			i, id := i, id
			go func() {
				rec, err := p.ProcessRecord(ctx, id)
				outcomes[i] = outcome{rec: rec, err: err}
				done <- struct{}{}
			}()
		}
		for range chunk {
			<-done
		}
		for _, o := range outcomes {
			if o.err != nil {
				errs = append(errs, o.err)
				continue
			}
			results = append(results, o.rec)
		}
	}

	return results, errs
}

// extract runs all three tiers, reusing a cached merge keyed by the
// content hash when available.
func (p *Processor) extract(filePath string, raw []byte) (map[string]FieldResult, []*errors.ExtractionError) {
	hash := cache.HashContent(raw)
	if cached, ok := p.cache.Get(hash); ok {
		if merged, ok := cached.(map[string]FieldResult); ok {
			return merged, nil
		}
	}

	extractionCtx := NewExtractionContext(filePath, raw)
	defer extractionCtx.Cleanup()

	var extractionErrs []*errors.ExtractionError

	tier1 := safeExtract(func() map[string]FieldResult { return ExtractStructuredData(extractionCtx) }, tierStructured, &extractionErrs)
	tier2 := safeExtract(func() map[string]FieldResult { return ExtractViaSelectors(extractionCtx) }, tierSelectors, &extractionErrs)

	merged := mergeTiers(tier1, tier2, nil)

	if p.cfg.EnableFallbackExtraction {
		tier3 := safeExtract(func() map[string]FieldResult {
			return ExtractViaRegexFallback(extractionCtx, filledMask(merged))
		}, tierRegexFallback, &extractionErrs)
		merged = mergeTiers(tier1, tier2, tier3)
	}

	p.cache.Put(hash, merged)
	return merged, extractionErrs
}

// safeExtract recovers from a panicking tier, converting it into a
// per-tier ExtractionError instead of aborting the pipeline.
func safeExtract(run func() map[string]FieldResult, tier string, errs *[]*errors.ExtractionError) (result map[string]FieldResult) {
	defer func() {
		if r := recover(); r != nil {
			*errs = append(*errs, &errors.ExtractionError{Tier: tier, Field: "*", Underlying: panicToError(r)})
			result = nil
		}
	}()
	return run()
}

func panicToError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return errors.NewProcessingError(errors.KindExtraction, "tier_panic", "", nil)
}

func (p *Processor) readFile(ctx context.Context, path string) ([]byte, error) {
	read := func(ctx context.Context) (any, error) {
		return os.ReadFile(path)
	}
	if p.readBreaker == nil {
		v, err := read(ctx)
		if err != nil {
			return nil, err
		}
		return v.([]byte), nil
	}
	res := p.readBreaker.Execute(ctx, read)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data.([]byte), nil
}
