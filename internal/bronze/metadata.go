package bronze

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/jshin42/highschooltrends-v2-sub000/internal/breaker"
	apperrors "github.com/jshin42/highschooltrends-v2-sub000/internal/errors"
)

var filenameTimestampPattern = regexp.MustCompile(`docker_curl_(\d{8})_(\d{6})\.html$`)

// ExtractMetadata implements six-step metadata extraction
// algorithm. statBreaker/readBreaker wrap the stat and checksum-read
// filesystem calls respectively.
func ExtractMetadata(ctx context.Context, path string, maxFileSize int64, checksumVerification bool, statBreaker, readBreaker *breaker.CircuitBreaker) FileMetadata {
	meta := FileMetadata{FilePath: path}

	info, err := statFile(ctx, path, statBreaker)
	if err != nil {
		meta.Reasons = append(meta.Reasons, fmt.Sprintf("stat failed: %v", err))
		return meta
	}
	meta.FileSize = info.Size()

	meta.SchoolSlug = schoolSlugFromPath(path)
	if meta.SchoolSlug == "" || meta.SchoolSlug == "." {
		meta.Reasons = append(meta.Reasons, "unable to determine school slug from parent directory")
	}

	ts, ok := parseCaptureTimestamp(path)
	if !ok {
		meta.Reasons = append(meta.Reasons, "unable to parse timestamp from filename")
	} else {
		meta.CaptureTimestamp = ts
	}

	if meta.FileSize == 0 {
		meta.Reasons = append(meta.Reasons, "file is empty")
	} else if meta.FileSize > maxFileSize {
		meta.Reasons = append(meta.Reasons, fmt.Sprintf("file size %d exceeds maximum %d", meta.FileSize, maxFileSize))
	}

	if checksumVerification && len(meta.Reasons) == 0 {
		sum, err := checksumFile(ctx, path, readBreaker)
		if err != nil {
			meta.Reasons = append(meta.Reasons, fmt.Sprintf("checksum read failed: %v", err))
		} else {
			meta.ChecksumSHA256 = sum
		}
	}

	meta.IsValid = len(meta.Reasons) == 0
	return meta
}

func schoolSlugFromPath(path string) string {
	return filepath.Base(filepath.Dir(path))
}

func parseCaptureTimestamp(path string) (time.Time, bool) {
	m := filenameTimestampPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return time.Time{}, false
	}
	layout := "20060102150405"
	ts, err := time.ParseInLocation(layout, m[1]+m[2], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func statFile(ctx context.Context, path string, cb *breaker.CircuitBreaker) (os.FileInfo, error) {
	if cb == nil {
		return os.Stat(path)
	}
	res := cb.Execute(ctx, func(ctx context.Context) (any, error) {
		return os.Stat(path)
	})
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data.(os.FileInfo), nil
}

func checksumFile(ctx context.Context, path string, cb *breaker.CircuitBreaker) (string, error) {
	compute := func(ctx context.Context) (any, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		h := sha256.New()
		if _, err := io.Copy(h, f); err != nil {
			return nil, err
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}

	if cb == nil {
		v, err := compute(ctx)
		if err != nil {
			return "", err
		}
		return v.(string), nil
	}

	res := cb.Execute(ctx, compute)
	if res.Err != nil {
		return "", res.Err
	}
	return res.Data.(string), nil
}

// ClassifyErrorKind maps an os-level failure to the error taxonomy
// names.
func ClassifyErrorKind(err error) apperrors.Kind {
	return apperrors.ClassifyOSError(err)
}
