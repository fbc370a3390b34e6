package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

// Test Plan for GraphStore:
// - Open creates the schema on a fresh database and reopens cleanly
// - SaveSnapshot + Load round-trips nodes, edges, metadata and dangling state
// - Saving after an incremental upsert captures other files' edge rewrites

func storageNode(nodeType graph.NodeType, filePath, qualifiedName, name string) graph.Node {
	return graph.Node{
		ID:            graph.NodeID(nodeType, filePath, qualifiedName),
		Type:          nodeType,
		Name:          name,
		QualifiedName: qualifiedName,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       20,
		Complexity:    3,
		Language:      "python",
	}
}

func populatedStore(t *testing.T) *graph.Store {
	t.Helper()
	store := graph.NewStore()

	bar := storageNode(graph.NodeFunction, "b.py", "b.bar", "bar")
	require.NoError(t, store.UpsertFile("b.py", []graph.Node{bar}, nil))

	foo := storageNode(graph.NodeFunction, "a.py", "a.foo", "foo")
	foo.Docstring = "Calls bar."
	foo.Metadata = map[string]string{"decorators": "cached"}
	require.NoError(t, store.UpsertFile("a.py", []graph.Node{foo}, []graph.Edge{
		{From: foo.ID, To: bar.ID, Type: graph.EdgeCalls, Line: 5},
		{From: foo.ID, To: graph.PlaceholderID("missing"), Type: graph.EdgeCalls, Line: 6, Dangling: true},
	}))

	return store
}

func openTemp(t *testing.T) *GraphStore {
	t.Helper()
	gs, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { gs.Close() })
	return gs
}

func TestOpen_CreatesSchemaAndReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "graph.db")

	gs, err := Open(path)
	require.NoError(t, err)
	nodes, edges, err := gs.Load()
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
	require.NoError(t, gs.Close())

	// Reopening must not attempt to recreate the schema.
	gs, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, gs.Close())
}

func TestGraphStore_SaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := populatedStore(t)
	gs := openTemp(t)

	require.NoError(t, gs.SaveSnapshot(store.Snapshot()))

	nodes, edges, err := gs.Load()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, edges, 2)

	restored := graph.NewStore()
	restored.Restore(nodes, edges)
	snap := restored.Snapshot()

	fooID := graph.NodeID(graph.NodeFunction, "a.py", "a.foo")
	foo, err := snap.Node(fooID)
	require.NoError(t, err)
	assert.Equal(t, "Calls bar.", foo.Docstring)
	assert.Equal(t, map[string]string{"decorators": "cached"}, foo.Metadata)

	calls := snap.EdgesFrom(fooID, graph.EdgeCalls)
	require.Len(t, calls, 2)

	var dangling int
	for _, edge := range calls {
		if edge.Dangling {
			dangling++
			assert.Equal(t, graph.PlaceholderID("missing"), edge.To)
		}
	}
	assert.Equal(t, 1, dangling)
}

func TestGraphStore_SaveSnapshotReplacesPriorState(t *testing.T) {
	t.Parallel()

	gs := openTemp(t)
	require.NoError(t, gs.SaveSnapshot(populatedStore(t).Snapshot()))

	// Persist a smaller graph; the prior rows must be gone.
	small := graph.NewStore()
	only := storageNode(graph.NodeFunction, "c.py", "c.only", "only")
	require.NoError(t, small.UpsertFile("c.py", []graph.Node{only}, nil))
	require.NoError(t, gs.SaveSnapshot(small.Snapshot()))

	nodes, edges, err := gs.Load()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Empty(t, edges)
	assert.Equal(t, only.ID, nodes[0].ID)
}

func TestGraphStore_SaveSnapshotCapturesCrossFileRewrites(t *testing.T) {
	t.Parallel()

	store := graph.NewStore()
	gs := openTemp(t)

	foo := storageNode(graph.NodeFunction, "b.py", "b.foo", "foo")
	require.NoError(t, store.UpsertFile("b.py", []graph.Node{foo}, []graph.Edge{{
		From: foo.ID, To: graph.PlaceholderID("a.helper"), Type: graph.EdgeCalls, Line: 3, Dangling: true,
	}}))
	require.NoError(t, gs.SaveSnapshot(store.Snapshot()))

	// Upserting a.py snaps b.py's dangling edge onto the new node in
	// memory; persisting the new version must carry that rewrite, even
	// though the changed file is a.py.
	helper := storageNode(graph.NodeFunction, "a.py", "a.helper", "helper")
	require.NoError(t, store.UpsertFile("a.py", []graph.Node{helper}, nil))
	require.NoError(t, gs.SaveSnapshot(store.Snapshot()))

	nodes, edges, err := gs.Load()
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Dangling)
	assert.Equal(t, foo.ID, edges[0].From)
	assert.Equal(t, helper.ID, edges[0].To)
}
