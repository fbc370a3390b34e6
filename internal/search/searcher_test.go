package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

// Test Plan for NodeSearcher:
// - IndexSnapshot makes nodes findable by name and docstring terms
// - Type and language filters narrow results
// - UpdateFile drops a file's stale documents and indexes its new ones

func searchNode(nodeType graph.NodeType, filePath, qualifiedName, name, docstring string) graph.Node {
	return graph.Node{
		ID:            graph.NodeID(nodeType, filePath, qualifiedName),
		Type:          nodeType,
		Name:          name,
		QualifiedName: qualifiedName,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       10,
		Docstring:     docstring,
		Language:      "python",
	}
}

func indexedSearcher(t *testing.T) (NodeSearcher, *graph.Store) {
	t.Helper()

	store := graph.NewStore()
	require.NoError(t, store.UpsertFile("src/auth.py", []graph.Node{
		searchNode(graph.NodeFunction, "src/auth.py", "auth.login", "login", "Authenticate a user session."),
		searchNode(graph.NodeClass, "src/auth.py", "auth.Session", "Session", ""),
	}, nil))
	require.NoError(t, store.UpsertFile("src/billing.py", []graph.Node{
		searchNode(graph.NodeFunction, "src/billing.py", "billing.charge", "charge", "Charge a payment method."),
	}, nil))

	searcher, err := NewNodeSearcher()
	require.NoError(t, err)
	t.Cleanup(func() { searcher.Close() })

	require.NoError(t, searcher.IndexSnapshot(context.Background(), store.Snapshot()))
	return searcher, store
}

func TestNodeSearcher_SearchByName(t *testing.T) {
	t.Parallel()
	searcher, _ := indexedSearcher(t)

	hits, err := searcher.Search(context.Background(), "login", nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "auth.login", hits[0].QualifiedName)
	assert.Equal(t, "src/auth.py", hits[0].FilePath)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestNodeSearcher_SearchByDocstringTerm(t *testing.T) {
	t.Parallel()
	searcher, _ := indexedSearcher(t)

	hits, err := searcher.Search(context.Background(), "payment", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "charge", hits[0].Name)
}

func TestNodeSearcher_TypeFilter(t *testing.T) {
	t.Parallel()
	searcher, _ := indexedSearcher(t)

	hits, err := searcher.Search(context.Background(), "auth", &SearchOptions{NodeType: "class"})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Session", hits[0].Name)
}

func TestNodeSearcher_LanguageFilterExcludes(t *testing.T) {
	t.Parallel()
	searcher, _ := indexedSearcher(t)

	hits, err := searcher.Search(context.Background(), "login", &SearchOptions{Language: "csharp"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestNodeSearcher_UpdateFile(t *testing.T) {
	t.Parallel()
	searcher, store := indexedSearcher(t)

	// Replace auth.py: login disappears, logout takes its place.
	require.NoError(t, store.UpsertFile("src/auth.py", []graph.Node{
		searchNode(graph.NodeFunction, "src/auth.py", "auth.logout", "logout", "End a user session."),
	}, nil))
	require.NoError(t, searcher.UpdateFile(context.Background(), "src/auth.py", store.Snapshot()))

	hits, err := searcher.Search(context.Background(), "logout", nil)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hits, err = searcher.Search(context.Background(), "login", nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// The other file's documents are untouched.
	hits, err = searcher.Search(context.Background(), "charge", nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestNodeSearcher_CancelledContext(t *testing.T) {
	t.Parallel()
	searcher, _ := indexedSearcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := searcher.Search(ctx, "login", nil)
	assert.Error(t, err)
}
