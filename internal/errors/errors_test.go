package errors

import (
	"errors"
	"os"
	"testing"
)

func TestProcessingErrorUnwrapAndMessage(t *testing.T) {
	underlying := errors.New("disk offline")
	err := NewProcessingError(KindCorruptedFile, "stat", "/data/school-x/docker_curl_20250101_000000.html", underlying).
		WithRecoverable(true)

	if err.Kind != KindCorruptedFile {
		t.Errorf("expected Kind %v, got %v", KindCorruptedFile, err.Kind)
	}
	if !err.IsRecoverable() {
		t.Errorf("expected error to be recoverable")
	}
	if !errors.Is(err, underlying) {
		t.Errorf("expected Unwrap to expose underlying error")
	}

	want := "corrupted_file stat failed for /data/school-x/docker_curl_20250101_000000.html: disk offline"
	if got := err.Error(); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
}

func TestClassifyOSError(t *testing.T) {
	if k := ClassifyOSError(nil); k != "" {
		t.Errorf("expected empty Kind for nil error, got %v", k)
	}
	if k := ClassifyOSError(os.ErrNotExist); k != KindFileNotFound {
		t.Errorf("expected %v, got %v", KindFileNotFound, k)
	}
	if k := ClassifyOSError(os.ErrPermission); k != KindPermissionDenied {
		t.Errorf("expected %v, got %v", KindPermissionDenied, k)
	}
	if k := ClassifyOSError(errors.New("bad sectors")); k != KindCorruptedFile {
		t.Errorf("expected %v, got %v", KindCorruptedFile, k)
	}
}

func TestMultiErrorFiltersNils(t *testing.T) {
	err := NewMultiError([]error{nil, errors.New("a"), nil, errors.New("b")})
	if len(err.Errors) != 2 {
		t.Fatalf("expected 2 errors after filtering nils, got %d", len(err.Errors))
	}
	want := "2 errors: [a b]"
	if got := err.Error(); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
}

func TestMultiErrorSingle(t *testing.T) {
	err := NewMultiError([]error{errors.New("only")})
	if got := err.Error(); got != "only" {
		t.Errorf("expected %q, got %q", "only", got)
	}
}
