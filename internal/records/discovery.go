package records

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery finds parsed-file record files under a directory, honoring
// include and ignore glob patterns.
type Discovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
}

// DefaultIncludePatterns matches the record files extraction front-ends emit.
var DefaultIncludePatterns = []string{"**/*.graph.json"}

// DefaultIgnorePatterns excludes directories that never hold records.
var DefaultIgnorePatterns = []string{
	"node_modules/**",
	"vendor/**",
	".git/**",
	".codegraph/**",
}

// NewDiscovery creates a record discovery instance for rootDir.
func NewDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*Discovery, error) {
	if len(includePatterns) == 0 {
		includePatterns = DefaultIncludePatterns
	}
	if len(ignorePatterns) == 0 {
		ignorePatterns = DefaultIgnorePatterns
	}

	d := &Discovery{rootDir: rootDir}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.includes = append(d.includes, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// Discover walks the root directory and returns record file paths.
func (d *Discovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.Walk(d.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.matchesAny(relPath, d.ignorePatterns) {
			return nil
		}
		if d.matchesAny(relPath, d.includes) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Matches reports whether a path (relative to the root) is a record file.
func (d *Discovery) Matches(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if d.matchesAny(relPath, d.ignorePatterns) {
		return false
	}
	return d.matchesAny(relPath, d.includes)
}

// matchesAny checks the path against a pattern set. Patterns with a "**/"
// prefix additionally match root-level files, so "**/*.graph.json" matches
// both "a.graph.json" and "pkg/a.graph.json".
func (d *Discovery) matchesAny(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}
