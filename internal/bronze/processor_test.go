package bronze

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/config"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/logging"
	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// TestMain ensures batch processing never leaks a worker goroutine
// across ProcessBatch/ProcessAllFiles runs.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

func testLogger() *logging.Logger {
	return logging.New(zapcore.InfoLevel, false)
}

func writeCapture(t *testing.T, root, slug, stamp, body string) string {
	t.Helper()
	dir := filepath.Join(root, slug)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "docker_curl_"+stamp+".html")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newTestStore(t *testing.T) *storage.BronzeStore {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewBronzeStore(db)
}

func TestProcessBatchIngestsValidCapture(t *testing.T) {
	root := t.TempDir()
	path := writeCapture(t, root, "westfield-high-school-6921", "20250821_061341", "<html>valid</html>")

	cfg := config.BronzeConfig{
		SourceDirectories:    []string{root},
		BatchSize:            10,
		MaxFileSize:          1024 * 1024,
		ParallelWorkers:      2,
		ChecksumVerification: true,
	}
	store := newTestStore(t)
	bc := config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 5, SuccessThreshold: 2,
		TimeoutMs: 1000, RecoveryTimeMs: 1000, MaxRetries: 1, RetryDelayMs: 10, MaxRetryDelayMs: 100,
	}
	proc := NewFileProcessor(cfg, store, bc, testLogger())

	result := proc.ProcessBatch(context.Background(), []string{path}, "corr-1", "batch-1")
	require.Equal(t, 1, result.SuccessfulIngestions)
	require.Zero(t, result.FailedIngestions)

	got, err := store.GetBySlug(context.Background(), "westfield-high-school-6921")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, storage.BronzeStatusPending, got[0].ProcessingStatus)
}

func TestProcessBatchQuarantinesBadFilename(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "acme-high")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "not-a-capture.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o644))

	cfg := config.BronzeConfig{
		SourceDirectories: []string{root}, BatchSize: 10, MaxFileSize: 1024 * 1024,
		ParallelWorkers: 1, ChecksumVerification: false,
	}
	store := newTestStore(t)
	bc := config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 5, SuccessThreshold: 2,
		TimeoutMs: 1000, RecoveryTimeMs: 1000, MaxRetries: 1, RetryDelayMs: 10, MaxRetryDelayMs: 100,
	}
	proc := NewFileProcessor(cfg, store, bc, testLogger())

	result := proc.ProcessBatch(context.Background(), []string{path}, "corr-2", "batch-2")
	require.Equal(t, 1, result.SuccessfulIngestions, "expected quarantined record still inserted as successful ingestion")

	records, err := store.GetByStatus(context.Background(), storage.BronzeStatusQuarantined)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProcessBatchReportsDuplicatePath(t *testing.T) {
	root := t.TempDir()
	path := writeCapture(t, root, "dup-high", "20250101_000000", "<html>a</html>")

	cfg := config.BronzeConfig{
		SourceDirectories: []string{root}, BatchSize: 10, MaxFileSize: 1024 * 1024,
		ParallelWorkers: 1, ChecksumVerification: false,
	}
	store := newTestStore(t)
	bc := config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 5, SuccessThreshold: 2,
		TimeoutMs: 1000, RecoveryTimeMs: 1000, MaxRetries: 1, RetryDelayMs: 10, MaxRetryDelayMs: 100,
	}
	proc := NewFileProcessor(cfg, store, bc, testLogger())

	first := proc.ProcessBatch(context.Background(), []string{path}, "corr-3", "batch-3a")
	require.Equal(t, 1, first.SuccessfulIngestions)

	second := proc.ProcessBatch(context.Background(), []string{path}, "corr-3", "batch-3b")
	require.Equal(t, 1, second.FailedIngestions)
	require.Len(t, second.Errors, 1)
	assert.Equal(t, "duplicate_slug", second.Errors[0].ErrorType)
}

func TestProcessAllFilesDiscoversThenIngests(t *testing.T) {
	root := t.TempDir()
	writeCapture(t, root, "school-a", "20250101_000000", "<html>a</html>")
	writeCapture(t, root, "school-b", "20250102_000000", "<html>b</html>")

	cfg := config.BronzeConfig{
		SourceDirectories: []string{root}, BatchSize: 10, MaxFileSize: 1024 * 1024,
		ParallelWorkers: 2, ChecksumVerification: false,
	}
	store := newTestStore(t)
	bc := config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 5, SuccessThreshold: 2,
		TimeoutMs: 1000, RecoveryTimeMs: 1000, MaxRetries: 1, RetryDelayMs: 10, MaxRetryDelayMs: 100,
	}
	proc := NewFileProcessor(cfg, store, bc, testLogger())

	result, err := proc.ProcessAllFiles(context.Background(), "corr-4")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.SuccessfulIngestions)
}

func TestValidateConfigurationRejectsEmptySourceDirectories(t *testing.T) {
	cfg := config.BronzeConfig{BatchSize: 10, MaxFileSize: 1024, ParallelWorkers: 1}
	proc := NewFileProcessor(cfg, nil, config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 1, SuccessThreshold: 1,
		TimeoutMs: 1, RecoveryTimeMs: 1, MaxRetries: 1, RetryDelayMs: 1, MaxRetryDelayMs: 1,
	}, testLogger())

	assert.Error(t, proc.ValidateConfiguration(), "expected validation error for empty source_directories")
}

func TestCircuitBreakerMetricsAndReset(t *testing.T) {
	cfg := config.BronzeConfig{SourceDirectories: []string{t.TempDir()}, BatchSize: 10, MaxFileSize: 1024, ParallelWorkers: 1}
	proc := NewFileProcessor(cfg, nil, config.BreakerConfig{
		Name: "file-processing", FailureThreshold: 2, SuccessThreshold: 1,
		TimeoutMs: 1000, RecoveryTimeMs: 1000, MaxRetries: 1, RetryDelayMs: 10, MaxRetryDelayMs: 100,
	}, testLogger())

	metrics := proc.GetCircuitBreakerMetrics()
	require.Len(t, metrics, 3, "expected three named breakers")

	proc.ResetCircuitBreakers()
	for name, m := range proc.GetCircuitBreakerMetrics() {
		assert.Zero(t, m.FailureCount, "expected breaker %s reset", name)
	}
}

func TestDiscoverFilesSkipsExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	writeCapture(t, root, "keep-me", "20250101_000000", "<html></html>")

	vendorDir := filepath.Join(root, "node_modules", "skip-me")
	require.NoError(t, os.MkdirAll(vendorDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vendorDir, "docker_curl_20250101_000000.html"), []byte("x"), 0o644))

	paths, err := DiscoverFiles(context.Background(), []string{root})
	require.NoError(t, err)
	assert.Len(t, paths, 1, "expected exactly one discovered file")
}

func TestExtractMetadataParsesTimestampAndSlug(t *testing.T) {
	root := t.TempDir()
	path := writeCapture(t, root, "westfield-high-school-6921", "20250821_061341", "<html>body</html>")

	meta := ExtractMetadata(context.Background(), path, 1024*1024, true, nil, nil)
	require.True(t, meta.IsValid, "expected valid metadata, got reasons %v", meta.Reasons)
	assert.Equal(t, "westfield-high-school-6921", meta.SchoolSlug)
	want := time.Date(2025, 8, 21, 6, 13, 41, 0, time.UTC)
	assert.True(t, meta.CaptureTimestamp.Equal(want), "expected timestamp %v, got %v", want, meta.CaptureTimestamp)
	assert.NotEmpty(t, meta.ChecksumSHA256)
}

func TestExtractMetadataFlagsEmptyFile(t *testing.T) {
	root := t.TempDir()
	path := writeCapture(t, root, "empty-school", "20250101_000000", "")

	meta := ExtractMetadata(context.Background(), path, 1024*1024, true, nil, nil)
	assert.False(t, meta.IsValid, "expected invalid metadata for empty file")
}
