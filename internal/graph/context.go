package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maypok86/otter"
)

const contextCacheCapacity = 1024

// ContextExtractor reads source snippets for graph nodes. File contents are
// cached as line slices so repeated lookups against the same file (the common
// case when describing a cluster of nodes) hit disk once.
type ContextExtractor struct {
	root  string
	cache otter.Cache[string, []string]
}

// NewContextExtractor creates an extractor resolving node file paths against
// root.
func NewContextExtractor(root string) (*ContextExtractor, error) {
	cache, err := otter.MustBuilder[string, []string](contextCacheCapacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build context cache: %w", err)
	}
	return &ContextExtractor{root: root, cache: cache}, nil
}

// Extract returns the source lines spanned by node, padded by contextLines
// above and below. Returns an empty string when the file cannot be read;
// missing source is expected when the graph outlives a checkout.
func (c *ContextExtractor) Extract(node *Node, contextLines int) string {
	lines, err := c.lines(node.FilePath)
	if err != nil || len(lines) == 0 {
		return ""
	}

	start := node.StartLine - 1 - contextLines
	if start < 0 {
		start = 0
	}
	end := node.EndLine + contextLines
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// Invalidate drops the cached contents for a file path, so the next Extract
// rereads the file. Called when a file's record is rebuilt.
func (c *ContextExtractor) Invalidate(path string) {
	c.cache.Delete(path)
}

// Close releases the cache's background resources.
func (c *ContextExtractor) Close() {
	c.cache.Close()
}

func (c *ContextExtractor) lines(path string) ([]string, error) {
	if cached, ok := c.cache.Get(path); ok {
		return cached, nil
	}

	data, err := os.ReadFile(filepath.Join(c.root, path))
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	c.cache.Set(path, lines)
	return lines, nil
}
