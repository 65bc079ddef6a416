package pathutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestToRelative(t *testing.T) {
	tests := []struct {
		name     string
		absPath  string
		rootDir  string
		expected string
	}{
		{
			name:     "simple relative path",
			absPath:  "/data/captures/westfield-high-school-6921/docker_curl_20250821_061341.html",
			rootDir:  "/data/captures",
			expected: "westfield-high-school-6921/docker_curl_20250821_061341.html",
		},
		{
			name:     "nested relative path",
			absPath:  "/data/captures/wayback/2024/acme-high/docker_curl_20240115_080000.html",
			rootDir:  "/data/captures",
			expected: "wayback/2024/acme-high/docker_curl_20240115_080000.html",
		},
		{
			name:     "root level file",
			absPath:  "/data/captures/manifest.json",
			rootDir:  "/data/captures",
			expected: "manifest.json",
		},
		{
			name:     "same directory",
			absPath:  "/data/captures",
			rootDir:  "/data/captures",
			expected: ".",
		},
		{
			name:     "already relative path",
			absPath:  "westfield-high-school-6921/docker_curl_20250821_061341.html",
			rootDir:  "/data/captures",
			expected: "westfield-high-school-6921/docker_curl_20250821_061341.html",
		},
		{
			name:     "path outside root - fallback to absolute",
			absPath:  "/other/mount/docker_curl_20250101_000000.html",
			rootDir:  "/data/captures",
			expected: "/other/mount/docker_curl_20250101_000000.html",
		},
		{
			name:     "empty root directory",
			absPath:  "/data/captures/acme-high/docker_curl_20250101_000000.html",
			rootDir:  "",
			expected: "/data/captures/acme-high/docker_curl_20250101_000000.html",
		},
		{
			name:     "empty absolute path",
			absPath:  "",
			rootDir:  "/data/captures",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToRelative(tt.absPath, tt.rootDir)

			if runtime.GOOS == "windows" {
				result = filepath.ToSlash(result)
				expected := filepath.ToSlash(tt.expected)
				if result != expected {
					t.Errorf("ToRelative() = %v, want %v", result, expected)
				}
			} else {
				if result != tt.expected {
					t.Errorf("ToRelative() = %v, want %v", result, tt.expected)
				}
			}
		})
	}
}
