// Package config defines and loads the operational configuration for the
// Bronze ingestion engine, the Silver extraction engine, the named
// circuit breakers, and the health server.
package config

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
)

// validate runs the struct-tag checks declared below; it is stateless
// and safe for concurrent use, so one instance is shared package-wide.
var validate = validator.New()

// Config is the root configuration object for a single service instance.
type Config struct {
	Bronze  BronzeConfig
	Silver  SilverConfig
	Health  HealthServerConfig
	Drive   BreakerConfig
	Store   BreakerConfig
	FileOps BreakerConfig
}

// BronzeConfig tunes file discovery and ingestion.
type BronzeConfig struct {
	SourceDirectories    []string `validate:"min=1"`
	BatchSize            int      `validate:"gt=0"`
	MaxFileSize          int64    `validate:"gt=0"`
	ParallelWorkers      int      `validate:"gt=0"`
	ChecksumVerification bool
	AutoQuarantine       bool
}

// SilverConfig tunes extraction.
type SilverConfig struct {
	InputBatchSize           int     `validate:"gt=0"`
	ParallelWorkers          int     `validate:"gt=0"`
	MinConfidenceThreshold   float64 `validate:"gte=0"`
	EnableFallbackExtraction bool
	EnableDataValidation     bool
	MaxExtractionTimeMs      int `validate:"gte=0"`
}

// HealthServerConfig tunes the HTTP health/readiness surface.
type HealthServerConfig struct {
	Host             string
	Port             int `validate:"gte=1,lte=65535"`
	EnableCORS       bool
	MaxRequestTimeMs int `validate:"gt=0"`
}

// BreakerConfig mirrors breaker.Config but lives in the config package so
// it can be loaded from file; Bronze/Silver/ErrorRecovery convert it to a
// breaker.Config at construction time.
type BreakerConfig struct {
	Name             string `validate:"required"`
	FailureThreshold int    `validate:"gt=0"`
	SuccessThreshold int    `validate:"gt=0"`
	TimeoutMs        int    `validate:"gt=0"`
	RecoveryTimeMs   int    `validate:"gt=0"`
	MaxRetries       int    `validate:"gte=0"`
	RetryDelayMs     int    `validate:"gt=0"`
	MaxRetryDelayMs  int    `validate:"gtefield=RetryDelayMs"`
}

// Default returns a Config populated with documented
// defaults, one set of breaker defaults per operation class (external
// drive, database, file-processing;).
func Default() *Config {
	return &Config{
		Bronze: BronzeConfig{
			SourceDirectories:    nil,
			BatchSize:            100,
			MaxFileSize:          10 * 1024 * 1024,
			ParallelWorkers:      4,
			ChecksumVerification: true,
			AutoQuarantine:       true,
		},
		Silver: SilverConfig{
			InputBatchSize:           100,
			ParallelWorkers:          runtime.NumCPU(),
			MinConfidenceThreshold:   0,
			EnableFallbackExtraction: true,
			EnableDataValidation:     true,
			MaxExtractionTimeMs:      5_000,
		},
		Health: HealthServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			EnableCORS:       false,
			MaxRequestTimeMs: 30_000,
		},
		Drive: BreakerConfig{
			Name: "external-drive", FailureThreshold: 5, SuccessThreshold: 2,
			TimeoutMs: 10_000, RecoveryTimeMs: 30_000, MaxRetries: 3,
			RetryDelayMs: 1_000, MaxRetryDelayMs: 8_000,
		},
		Store: BreakerConfig{
			Name: "store", FailureThreshold: 3, SuccessThreshold: 2,
			TimeoutMs: 5_000, RecoveryTimeMs: 10_000, MaxRetries: 2,
			RetryDelayMs: 500, MaxRetryDelayMs: 4_000,
		},
		FileOps: BreakerConfig{
			Name: "file-processing", FailureThreshold: 10, SuccessThreshold: 3,
			TimeoutMs: 3_000, RecoveryTimeMs: 15_000, MaxRetries: 2,
			RetryDelayMs: 200, MaxRetryDelayMs: 2_000,
		},
	}
}

// Validate rejects the configuration-level fatal conditions: empty
// source-directory list, non-positive batch size or parallelism.
func (c *BronzeConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("bronze: %w", err)
	}
	return nil
}

// Validate rejects non-positive Silver concurrency/batch knobs.
func (c *SilverConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("silver: %w", err)
	}
	return nil
}
