package graph

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Store:
// - UpsertFile replaces a file's nodes and edges atomically
// - A replacement rewrites batch edges that target dropped nodes
// - Validation failure rejects the whole batch and keeps prior state
// - Concurrent readers never see a half-replaced file
// - RemoveFile rewrites inbound edges as dangling placeholders
// - A later upsert re-resolves dangling edges
// - Restore reproduces a persisted node/edge set

func fnNode(filePath, qualifiedName, name string, complexity int) Node {
	return Node{
		ID:            NodeID(NodeFunction, filePath, qualifiedName),
		Type:          NodeFunction,
		Name:          name,
		QualifiedName: qualifiedName,
		FilePath:      filePath,
		StartLine:     1,
		EndLine:       5,
		Complexity:    complexity,
		Language:      "python",
	}
}

func TestStore_UpsertFile_ReplacesWholeFile(t *testing.T) {
	t.Parallel()

	store := NewStore()

	first := []Node{
		fnNode("a.py", "a.foo", "foo", 1),
		fnNode("a.py", "a.old", "old", 1),
	}
	require.NoError(t, store.UpsertFile("a.py", first, nil))
	assert.Equal(t, 2, store.Snapshot().NodeCount())

	second := []Node{fnNode("a.py", "a.foo", "foo", 3)}
	require.NoError(t, store.UpsertFile("a.py", second, nil))

	snap := store.Snapshot()
	assert.Equal(t, 1, snap.NodeCount())

	node, err := snap.Node(NodeID(NodeFunction, "a.py", "a.foo"))
	require.NoError(t, err)
	assert.Equal(t, 3, node.Complexity)

	_, err = snap.Node(NodeID(NodeFunction, "a.py", "a.old"))
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestStore_UpsertFile_ValidationRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	store := NewStore()
	require.NoError(t, store.UpsertFile("a.py", []Node{fnNode("a.py", "a.foo", "foo", 1)}, nil))

	bad := []Node{
		fnNode("a.py", "a.bar", "bar", 1),
		{ID: "", Type: NodeFunction, Name: "broken", FilePath: "a.py"},
	}
	err := store.UpsertFile("a.py", bad, nil)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "a.py", verr.FilePath)

	// Prior state retained, including the node the bad batch would replace.
	snap := store.Snapshot()
	assert.Equal(t, 1, snap.NodeCount())
	_, err = snap.Node(NodeID(NodeFunction, "a.py", "a.foo"))
	assert.NoError(t, err)
}

func TestStore_UpsertFile_RejectsMismatchedFilePath(t *testing.T) {
	t.Parallel()

	store := NewStore()
	err := store.UpsertFile("a.py", []Node{fnNode("b.py", "b.foo", "foo", 1)}, nil)
	require.Error(t, err)
	assert.Equal(t, 0, store.Snapshot().NodeCount())
}

func TestStore_UpsertFile_RewritesEdgeToReplacedNode(t *testing.T) {
	t.Parallel()

	store := NewStore()
	foo := fnNode("a.py", "a.foo", "foo", 1)
	old := fnNode("a.py", "a.old", "old", 1)
	require.NoError(t, store.UpsertFile("a.py", []Node{foo, old}, nil))

	// The new batch drops a.old but still carries an edge to it. The edge
	// validates against the prior version, so the replacement must rewrite
	// it rather than keep a resolved edge to a missing node.
	require.NoError(t, store.UpsertFile("a.py", []Node{foo}, []Edge{{
		From: foo.ID, To: old.ID, Type: EdgeCalls, Line: 2,
	}}))

	snap := store.Snapshot()
	_, err := snap.Node(old.ID)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	edges := snap.EdgesFrom(foo.ID, EdgeCalls)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Dangling)
	assert.Equal(t, PlaceholderID("a.old"), edges[0].To)
}

func TestStore_ConcurrentReadersSeeConsistentVersions(t *testing.T) {
	t.Parallel()

	store := NewStore()

	oldNodes := []Node{
		fnNode("f.py", "f.one", "one", 1),
		fnNode("f.py", "f.two", "two", 1),
	}
	require.NoError(t, store.UpsertFile("f.py", oldNodes, []Edge{{
		From: oldNodes[0].ID, To: oldNodes[1].ID, Type: EdgeCalls, Line: 2,
	}}))

	newNodes := []Node{
		fnNode("f.py", "f.three", "three", 1),
		fnNode("f.py", "f.four", "four", 1),
	}
	newEdges := []Edge{{From: newNodes[0].ID, To: newNodes[1].ID, Type: EdgeCalls, Line: 3}}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers continuously check that the snapshot they hold is internally
	// consistent: every edge endpoint exists in the same version.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := store.Snapshot()
				for _, edge := range snap.AllEdges() {
					if IsPlaceholder(edge.To) {
						continue
					}
					_, fromErr := snap.Node(edge.From)
					_, toErr := snap.Node(edge.To)
					assert.NoError(t, fromErr)
					assert.NoError(t, toErr)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			require.NoError(t, store.UpsertFile("f.py", newNodes, newEdges))
		} else {
			require.NoError(t, store.UpsertFile("f.py", oldNodes, []Edge{{
				From: oldNodes[0].ID, To: oldNodes[1].ID, Type: EdgeCalls, Line: 2,
			}}))
		}
	}
	close(stop)
	wg.Wait()
}

func TestStore_RemoveFile_PreservesInboundEdgesAsDangling(t *testing.T) {
	t.Parallel()

	store := NewStore()

	bNode := fnNode("b.py", "b.bar", "bar", 1)
	require.NoError(t, store.UpsertFile("b.py", []Node{bNode}, nil))

	aNode := fnNode("a.py", "a.foo", "foo", 1)
	require.NoError(t, store.UpsertFile("a.py", []Node{aNode}, []Edge{{
		From: aNode.ID, To: bNode.ID, Type: EdgeCalls, Line: 3,
	}}))

	store.RemoveFile("b.py")

	snap := store.Snapshot()
	_, err := snap.Node(bNode.ID)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	edges := snap.EdgesFrom(aNode.ID, EdgeCalls)
	require.Len(t, edges, 1)
	assert.True(t, edges[0].Dangling)
	assert.Equal(t, PlaceholderID("b.bar"), edges[0].To)
}

func TestStore_UpsertFile_ReresolvesDanglingEdges(t *testing.T) {
	t.Parallel()

	store := NewStore()

	aNode := fnNode("a.py", "a.foo", "foo", 1)
	require.NoError(t, store.UpsertFile("a.py", []Node{aNode}, []Edge{{
		From: aNode.ID, To: PlaceholderID("b.bar"), Type: EdgeCalls, Line: 3, Dangling: true,
	}}))

	// The target arrives later; the dangling edge snaps to it.
	bNode := fnNode("b.py", "b.bar", "bar", 1)
	require.NoError(t, store.UpsertFile("b.py", []Node{bNode}, nil))

	edges := store.Snapshot().EdgesFrom(aNode.ID, EdgeCalls)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Dangling)
	assert.Equal(t, bNode.ID, edges[0].To)
}

func TestStore_Restore_ReproducesGraph(t *testing.T) {
	t.Parallel()

	nodes := []Node{
		fnNode("a.py", "a.foo", "foo", 2),
		fnNode("b.py", "b.bar", "bar", 4),
	}
	edges := []Edge{{From: nodes[0].ID, To: nodes[1].ID, Type: EdgeCalls, Line: 7}}

	store := NewStore()
	store.Restore(nodes, edges)

	snap := store.Snapshot()
	assert.Equal(t, 2, snap.NodeCount())
	assert.Equal(t, 1, snap.EdgeCount())

	got := snap.EdgesFrom(nodes[0].ID, EdgeCalls)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Line)
}

func TestSnapshot_Walk_TerminatesOnCycle(t *testing.T) {
	t.Parallel()

	store := NewStore()
	a := fnNode("c.py", "c.a", "a", 1)
	b := fnNode("c.py", "c.b", "b", 1)
	require.NoError(t, store.UpsertFile("c.py", []Node{a, b}, []Edge{
		{From: a.ID, To: b.ID, Type: EdgeCalls, Line: 1},
		{From: b.ID, To: a.ID, Type: EdgeCalls, Line: 2},
	}))

	results, truncated := store.Snapshot().Walk(a.ID, []EdgeType{EdgeCalls}, false, 5)

	// Each node is reported at most once despite the cycle.
	seen := map[string]int{}
	for _, hit := range results {
		seen[hit.Node.ID]++
	}
	assert.LessOrEqual(t, seen[a.ID], 1)
	assert.Equal(t, 1, seen[b.ID])
	assert.False(t, truncated)
}

func TestSnapshot_Walk_FlagsTruncation(t *testing.T) {
	t.Parallel()

	store := NewStore()
	chain := []Node{
		fnNode("d.py", "d.n1", "n1", 1),
		fnNode("d.py", "d.n2", "n2", 1),
		fnNode("d.py", "d.n3", "n3", 1),
		fnNode("d.py", "d.n4", "n4", 1),
	}
	var edges []Edge
	for i := 0; i+1 < len(chain); i++ {
		edges = append(edges, Edge{From: chain[i].ID, To: chain[i+1].ID, Type: EdgeCalls, Line: i + 1})
	}
	require.NoError(t, store.UpsertFile("d.py", chain, edges))

	results, truncated := store.Snapshot().Walk(chain[0].ID, []EdgeType{EdgeCalls}, false, 2)
	assert.Len(t, results, 2)
	assert.True(t, truncated)

	results, truncated = store.Snapshot().Walk(chain[0].ID, []EdgeType{EdgeCalls}, false, 3)
	assert.Len(t, results, 3)
	assert.False(t, truncated)
}
