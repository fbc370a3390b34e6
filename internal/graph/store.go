package graph

import (
	"sync"
)

// Store owns the current graph version. Mutation is always whole-file
// replacement: UpsertFile atomically swaps in a new immutable snapshot, so
// readers never observe a partially-replaced file. Writers serialize among
// themselves on writeMu; readers are lock-free once they hold a snapshot.
type Store struct {
	mu      sync.RWMutex // guards the snapshot pointer swap
	writeMu sync.Mutex   // serializes writers
	snap    *Snapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{snap: emptySnapshot()}
}

// Snapshot returns the current graph version. The returned snapshot is
// immutable and safe to read without further locking.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// UpsertFile replaces all nodes and edges attributed to filePath with the
// given batch. The replacement is atomic: on validation failure nothing is
// written and the prior state for the file is retained.
func (s *Store) UpsertFile(filePath string, nodes []Node, edges []Edge) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Snapshot()

	batch := make(map[string]*Node, len(nodes))
	for i := range nodes {
		node := nodes[i]
		if err := validateNode(filePath, &node); err != nil {
			return err
		}
		if _, dup := batch[node.ID]; dup {
			return newValidationError(filePath, "duplicate node ID %q in batch", node.ID)
		}
		batch[node.ID] = &node
	}

	for i := range edges {
		if err := validateEdge(filePath, &edges[i], batch, cur); err != nil {
			return err
		}
	}

	s.swap(s.apply(cur, filePath, batch, edges))
	return nil
}

// RemoveFile deletes all nodes and edges attributed to filePath. Edges from
// other files that referenced the removed nodes are rewritten as dangling
// edges with placeholder targets, preserving provenance for re-resolution.
func (s *Store) RemoveFile(filePath string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Snapshot()
	s.swap(s.apply(cur, filePath, map[string]*Node{}, nil))
}

// Restore replaces the whole graph with previously persisted state. The
// input is trusted (it was validated when first upserted), so no per-file
// validation runs; dangling edges are re-resolved against the restored set.
func (s *Store) Restore(nodes []Node, edges []Edge) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	nodeMap := make(map[string]*Node, len(nodes))
	for i := range nodes {
		node := nodes[i]
		nodeMap[node.ID] = &node
	}
	edgeList := make([]*Edge, 0, len(edges))
	for i := range edges {
		edge := edges[i]
		edgeList = append(edgeList, &edge)
	}
	reresolve(nodeMap, edgeList)
	s.swap(newSnapshot(nodeMap, edgeList))
}

func (s *Store) swap(next *Snapshot) {
	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
}

// apply computes the next graph version: prior state minus filePath's nodes
// and edges, plus the new batch, with dangling-edge bookkeeping.
func (s *Store) apply(cur *Snapshot, filePath string, batch map[string]*Node, batchEdges []Edge) *Snapshot {
	// Qualified names of nodes about to be removed, for placeholder targets.
	removed := make(map[string]string)
	for _, id := range cur.byFile[filePath] {
		removed[id] = cur.nodes[id].QualifiedName
	}

	nextNodes := make(map[string]*Node, len(cur.nodes))
	for id, node := range cur.nodes {
		if node.FilePath == filePath {
			continue
		}
		nextNodes[id] = node
	}
	for id, node := range batch {
		nextNodes[id] = node
	}

	nextEdges := make([]*Edge, 0, len(cur.edges)+len(batchEdges))
	for _, edge := range cur.edges {
		// An edge is attributed to the file its source node lives in.
		if src, ok := cur.nodes[edge.From]; ok && src.FilePath == filePath {
			continue
		}
		kept := *edge
		if qn, gone := removed[kept.To]; gone {
			if _, readded := nextNodes[kept.To]; !readded {
				kept.To = PlaceholderID(qn)
				kept.Dangling = true
				kept.Candidates = nil
			}
		}
		nextEdges = append(nextEdges, &kept)
	}
	for i := range batchEdges {
		edge := batchEdges[i]
		// A batch edge may target a node only the old file version defined;
		// it validated against the prior snapshot but must not survive as a
		// resolved edge to a missing node.
		if qn, gone := removed[edge.To]; gone {
			if _, readded := nextNodes[edge.To]; !readded {
				edge.To = PlaceholderID(qn)
				edge.Dangling = true
				edge.Candidates = nil
			}
		}
		nextEdges = append(nextEdges, &edge)
	}

	reresolve(nextNodes, nextEdges)
	return newSnapshot(nextNodes, nextEdges)
}

// reresolve retries dangling edges against the new node set. A placeholder
// resolves when exactly one node matches its reference by qualified name
// (or, failing that, by short name); anything else stays dangling.
func reresolve(nodes map[string]*Node, edges []*Edge) {
	byQualified := make(map[string][]string)
	byName := make(map[string][]string)
	for id, node := range nodes {
		byQualified[node.QualifiedName] = append(byQualified[node.QualifiedName], id)
		byName[node.Name] = append(byName[node.Name], id)
	}

	for _, edge := range edges {
		if !edge.Dangling || !IsPlaceholder(edge.To) {
			continue
		}
		ref := PlaceholderReference(edge.To)
		matches := byQualified[ref]
		if len(matches) == 0 {
			matches = byName[ref]
		}
		if len(matches) == 1 {
			edge.To = matches[0]
			edge.Dangling = false
			edge.Candidates = nil
		}
	}
}

func validateNode(filePath string, node *Node) error {
	if node.ID == "" {
		return newValidationError(filePath, "node %q is missing an ID", node.Name)
	}
	if node.Name == "" {
		return newValidationError(filePath, "node %s is missing a name", node.ID)
	}
	if !nodeTypes[node.Type] {
		return newValidationError(filePath, "node %s has unknown type %q", node.ID, node.Type)
	}
	if node.FilePath != filePath {
		return newValidationError(filePath, "node %s is attributed to %q", node.ID, node.FilePath)
	}
	if node.Complexity < 0 {
		return newValidationError(filePath, "node %s has negative complexity", node.ID)
	}
	if node.EndLine < node.StartLine {
		return newValidationError(filePath, "node %s has inverted line span", node.ID)
	}
	return nil
}

func validateEdge(filePath string, edge *Edge, batch map[string]*Node, cur *Snapshot) error {
	if !edgeTypes[edge.Type] {
		return newValidationError(filePath, "edge %s->%s has unknown type %q", edge.From, edge.To, edge.Type)
	}
	if _, inBatch := batch[edge.From]; !inBatch {
		if _, err := cur.Node(edge.From); err != nil {
			return newValidationError(filePath, "edge source %s does not exist", edge.From)
		}
	}
	if IsPlaceholder(edge.To) {
		if !edge.Dangling {
			return newValidationError(filePath, "edge to placeholder %s is not marked dangling", edge.To)
		}
		return nil
	}
	if edge.Dangling {
		return newValidationError(filePath, "dangling edge %s->%s has no placeholder target", edge.From, edge.To)
	}
	if _, inBatch := batch[edge.To]; !inBatch {
		if _, err := cur.Node(edge.To); err != nil {
			return newValidationError(filePath, "edge target %s does not exist", edge.To)
		}
	}
	return nil
}
