package config

import "testing"

func TestDefaultPassesValidationOnceSourceDirsSet(t *testing.T) {
	cfg := Default()
	cfg.Bronze.SourceDirectories = []string{"/data/captures"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestDefaultRejectsEmptySourceDirectories(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected empty source_directories to fail validation")
	}
}

func TestBronzeValidateRejectsNonPositiveBatchSize(t *testing.T) {
	bc := BronzeConfig{SourceDirectories: []string{"x"}, BatchSize: 0, ParallelWorkers: 1, MaxFileSize: 1}
	if err := bc.Validate(); err == nil {
		t.Fatalf("expected batch_size 0 to fail validation")
	}
}

func TestSilverValidateRejectsNonPositiveParallelWorkers(t *testing.T) {
	sc := SilverConfig{InputBatchSize: 10, ParallelWorkers: 0}
	if err := sc.Validate(); err == nil {
		t.Fatalf("expected parallel_workers 0 to fail validation")
	}
}

func TestBreakerConfigValidateRejectsInvertedRetryDelays(t *testing.T) {
	bc := BreakerConfig{
		Name: "x", FailureThreshold: 1, SuccessThreshold: 1,
		TimeoutMs: 1, RecoveryTimeMs: 1, RetryDelayMs: 100, MaxRetryDelayMs: 10,
	}
	if err := bc.Validate(); err == nil {
		t.Fatalf("expected max_retry_delay_ms < retry_delay_ms to fail validation")
	}
}

func TestToBreakerConfigCopiesFields(t *testing.T) {
	bc := Default().Drive
	converted := bc.ToBreakerConfig()
	if converted.Name != bc.Name || converted.FailureThreshold != bc.FailureThreshold {
		t.Fatalf("expected field-for-field copy, got %+v from %+v", converted, bc)
	}
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error loading absent hst.kdl: %v", err)
	}
	if cfg.Bronze.BatchSize != Default().Bronze.BatchSize {
		t.Fatalf("expected defaults when no KDL file is present")
	}
}
