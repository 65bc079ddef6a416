package recovery

import (
	"strings"

	apperrors "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
)

// classifyPrimaryErrorType infers a Bronze record's primary error kind
// from the first processing_errors entry via substring classification.
// Reasons are the plain-text strings internal/bronze records at
// validation/store time.
func classifyPrimaryErrorType(reasons []string) apperrors.Kind {
	if len(reasons) == 0 {
		return apperrors.KindCorruptedFile
	}
	first := strings.ToLower(reasons[0])

	switch {
	case strings.Contains(first, "duplicate"):
		return apperrors.KindDuplicateSlug
	case strings.Contains(first, "checksum"):
		return apperrors.KindChecksumMismatch
	case strings.Contains(first, "permission") || strings.Contains(first, "eacces"):
		return apperrors.KindPermissionDenied
	case strings.Contains(first, "not found") || strings.Contains(first, "enoent") || strings.Contains(first, "no such file"):
		return apperrors.KindFileNotFound
	case strings.Contains(first, "timestamp") || strings.Contains(first, "empty") ||
		strings.Contains(first, "exceeds maximum") || strings.Contains(first, "slug"):
		return apperrors.KindInvalidFormat
	default:
		return apperrors.KindCorruptedFile
	}
}
