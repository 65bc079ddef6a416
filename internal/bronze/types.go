// Package bronze implements file discovery, metadata extraction, and
// batch ingestion for captured school-profile HTML pages.
package bronze

import (
	"strings"
	"time"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/storage"
)

// FileMetadata is the result of extract_metadata before a
// BronzeRecord is constructed from it.
type FileMetadata struct {
	FilePath         string
	SchoolSlug       string
	CaptureTimestamp time.Time
	FileSize         int64
	ChecksumSHA256   string
	IsValid          bool
	Reasons          []string
}

// ProcessingError is a typed, per-file failure recorded in a BatchResult.
type ProcessingError struct {
	FilePath string
	ErrorType string
	Message   string
}

// BatchResult aggregates the outcome of process_batch / process_all_files.
type BatchResult struct {
	CorrelationID       string
	BatchID             string
	Total               int
	SuccessfulIngestions int
	FailedIngestions    int
	SkippedFiles        int
	Errors              []ProcessingError
	Duration            time.Duration
}

// classifySourceDataset implements the substring-priority scan:
// USNEWS_2024 > USNEWS_2025 > wayback/archive > OTHER.
func classifySourceDataset(path string) storage.SourceDataset {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(path, "USNEWS_2024"):
		return storage.SourceUSNews2024
	case strings.Contains(path, "USNEWS_2025"):
		return storage.SourceUSNews2025
	case strings.Contains(lower, "wayback") || strings.Contains(lower, "archive"):
		return storage.SourceWaybackArchive
	default:
		return storage.SourceOther
	}
}
