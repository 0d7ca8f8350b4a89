// Package discovery enumerates git repositories under configured root
// directories.
package discovery

import (
	"os"
	"path/filepath"

	"quantify/internal/logging"
)

// Scanner finds repositories one level below each root path. Nested
// repositories are not discovered.
type Scanner struct {
	rootPaths []string
	logger    *logging.Logger
}

// NewScanner creates a scanner over the given root directories
func NewScanner(rootPaths []string, logger *logging.Logger) *Scanner {
	return &Scanner{rootPaths: rootPaths, logger: logger}
}

// Find returns the ordered, de-duplicated list of repository paths: every
// immediate child directory of a root that contains a .git marker. The
// order is directory listing order and serves as the tie-break basis for
// rankings. Missing or unreadable roots yield no repositories rather than
// an error.
func (s *Scanner) Find() []string {
	seen := make(map[string]struct{})
	var repos []string

	for _, root := range s.rootPaths {
		entries, err := os.ReadDir(root)
		if err != nil {
			s.logger.Warn("cannot read root path", map[string]interface{}{
				"root":  root,
				"error": err.Error(),
			})
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			repo := filepath.Join(root, entry.Name())
			if _, err := os.Stat(filepath.Join(repo, ".git")); err != nil {
				continue
			}

			abs, err := filepath.Abs(repo)
			if err != nil {
				abs = repo
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			repos = append(repos, abs)
		}
	}

	return repos
}
