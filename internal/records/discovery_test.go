package records

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Discovery:
// - Default patterns find record files at any depth, including the root
// - Ignore patterns exclude whole directory trees
// - Matches mirrors Discover for single relative paths

func touchFile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
}

func TestDiscovery_DefaultPatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touchFile(t, root, "app.py.graph.json")
	touchFile(t, root, "pkg/util.py.graph.json")
	touchFile(t, root, "pkg/deep/core.py.graph.json")
	touchFile(t, root, "pkg/readme.md")
	touchFile(t, root, "node_modules/lib/x.graph.json")
	touchFile(t, root, ".codegraph/cache.graph.json")

	d, err := NewDiscovery(root, nil, nil)
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)

	rels := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}
	assert.ElementsMatch(t, []string{
		"app.py.graph.json",
		"pkg/util.py.graph.json",
		"pkg/deep/core.py.graph.json",
	}, rels)
}

func TestDiscovery_CustomPatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	touchFile(t, root, "records/a.json")
	touchFile(t, root, "records/skip/b.json")
	touchFile(t, root, "other/c.json")

	d, err := NewDiscovery(root, []string{"records/**/*.json", "records/*.json"}, []string{"records/skip/**"})
	require.NoError(t, err)

	files, err := d.Discover()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "records", "a.json"), files[0])
}

func TestDiscovery_Matches(t *testing.T) {
	t.Parallel()

	d, err := NewDiscovery(t.TempDir(), nil, nil)
	require.NoError(t, err)

	assert.True(t, d.Matches("a.graph.json"))
	assert.True(t, d.Matches("pkg/a.graph.json"))
	assert.False(t, d.Matches("pkg/a.json"))
	assert.False(t, d.Matches("vendor/a.graph.json"))
	assert.False(t, d.Matches("node_modules/a.graph.json"))
}

func TestNewDiscovery_RejectsBadPattern(t *testing.T) {
	t.Parallel()

	_, err := NewDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	assert.Error(t, err)
}
