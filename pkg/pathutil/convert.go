// Package pathutil converts between the absolute paths the Bronze/Silver
// pipeline uses internally and the relative paths surfaced in logs,
// quarantine manifests, and health-server responses.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/src/main.go", "/home/user/project") → "src/main.go"
//   - ToRelative("/other/location/file.go", "/home/user/project") → "/other/location/file.go" (outside root)
//   - ToRelative("src/main.go", "/home/user/project") → "src/main.go" (already relative)
func ToRelative(absPath, rootDir string) string {
	// Handle empty inputs
	if absPath == "" || rootDir == "" {
		return absPath
	}

	// If path is already relative, return as-is
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	// Clean both paths to normalize separators and remove redundant elements
	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	// Try to make relative
	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// If the relative path starts with ".." it means the file is outside the root
	// In this case, return the absolute path as it's clearer
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}
