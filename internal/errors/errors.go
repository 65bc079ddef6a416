// Package errors defines the typed error taxonomy shared by the Bronze
// and Silver stages. Every error kind that participates in retry policies
// or batch-result classification is a Kind value carried by
// ProcessingError, so callers can errors.As into *ProcessingError and
// switch on Kind instead of string-matching messages.
package errors

import (
	"fmt"
	"time"
)

// Kind classifies a ProcessingError for retry-policy lookup and batch
// result aggregation.
type Kind string

const (
	KindFileNotFound     Kind = "file_not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindCorruptedFile    Kind = "corrupted_file"
	KindInvalidFormat    Kind = "invalid_format"
	KindDuplicateSlug    Kind = "duplicate_slug"
	KindChecksumMismatch Kind = "checksum_mismatch"
	KindExtraction       Kind = "extraction"
	KindStore            Kind = "store"
	KindConfig           Kind = "config"
	KindBreakerOpen      Kind = "breaker_open"
)

// ProcessingError is the typed, recorded error shape appended to a
// BronzeRecord's or SilverRecord's processing_errors list.
type ProcessingError struct {
	Kind        Kind
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewProcessingError builds a ProcessingError, stamping the current time.
func NewProcessingError(kind Kind, op, path string, err error) *ProcessingError {
	return &ProcessingError{
		Kind:       kind,
		Operation:  op,
		FilePath:   path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithRecoverable marks whether ErrorRecovery should attempt a retry.
func (e *ProcessingError) WithRecoverable(recoverable bool) *ProcessingError {
	e.Recoverable = recoverable
	return e
}

func (e *ProcessingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Kind, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Kind, e.Operation, e.Underlying)
}

// Unwrap lets errors.Is/errors.As see through to the underlying cause.
func (e *ProcessingError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether ErrorRecovery should retry this error.
func (e *ProcessingError) IsRecoverable() bool {
	return e.Recoverable
}

// String renders just the error message, the form persisted in a
// record's processing_errors column.
func (e *ProcessingError) String() string {
	return e.Error()
}

// ValidationError represents a Bronze per-file validation failure
// (missing slug, unparseable timestamp, empty/oversized file, checksum
// read failure). Validation errors never propagate; they are recorded
// on the record and the record is quarantined.
type ValidationError struct {
	FilePath string
	Reasons  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.FilePath, e.Reasons)
}

// ConfigError is a fatal startup-time configuration problem (empty
// source-directory list, non-positive batch size or parallelism).
type ConfigError struct {
	Field string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: field %s (value %q): %s", e.Field, e.Value, e.Msg)
}

// StoreError wraps an underlying store failure, distinguishing the
// uniqueness-violation case (duplicate_slug) from everything else.
type StoreError struct {
	Op         string
	Underlying error
	Duplicate  bool
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Underlying)
}

func (e *StoreError) Unwrap() error {
	return e.Underlying
}

// ExtractionError is a per-field error captured from an extraction
// tier. It never aborts extraction of the remaining fields.
type ExtractionError struct {
	Field      string
	Tier       string
	Underlying error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("tier %s failed extracting field %s: %v", e.Tier, e.Field, e.Underlying)
}

func (e *ExtractionError) Unwrap() error {
	return e.Underlying
}

// MultiError aggregates independent errors from a fan-out operation
// (e.g. a batch of file validations) without losing individual causes.
type MultiError struct {
	Errors []error
}

// NewMultiError filters nils and wraps the remainder.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
	}
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ClassifyOSError maps a filesystem error to its Kind: ENOENT →
// file_not_found, EACCES → permission_denied, else → corrupted_file.
func ClassifyOSError(err error) Kind {
	switch {
	case err == nil:
		return ""
	case isNotExist(err):
		return KindFileNotFound
	case isPermission(err):
		return KindPermissionDenied
	default:
		return KindCorruptedFile
	}
}
