package bronze

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// excludedDirPatterns prunes hidden directories and package-manager
// artifact trees during discovery via doublestar exclusion globs for
// node_modules/.git/vendor.
var excludedDirPatterns = []string{
	".*",
	"node_modules",
	"vendor",
	"__pycache__",
	".git",
}

const filenamePattern = "docker_curl_*.html"

// DiscoverFiles walks every configured source directory, collecting
// paths that match docker_curl_*.html while pruning excluded
// directories. Discovery itself is wrapped by the caller's filesystem
// circuit breaker.
func DiscoverFiles(ctx context.Context, sourceDirectories []string) ([]string, error) {
	var found []string
	visited := make(map[string]bool)

	for _, root := range sourceDirectories {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if err != nil {
				return nil // one bad entry never aborts discovery
			}

			if d.IsDir() {
				if path != root && isExcludedDir(d.Name()) {
					return filepath.SkipDir
				}
				real, rErr := filepath.EvalSymlinks(path)
				if rErr == nil {
					if visited[real] {
						return filepath.SkipDir
					}
					visited[real] = true
				}
				return nil
			}

			matched, _ := doublestar.Match(filenamePattern, d.Name())
			if matched {
				found = append(found, path)
			}
			return nil
		})
		if err != nil && err != context.Canceled {
			return found, err
		}
	}
	return found, nil
}

func isExcludedDir(name string) bool {
	for _, pattern := range excludedDirPatterns {
		if matched, _ := doublestar.Match(pattern, name); matched {
			return true
		}
	}
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
