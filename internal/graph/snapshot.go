package graph

import (
	"sort"
)

// Snapshot is one immutable graph version: the complete node/edge set at a
// build point. Readers hold a snapshot and are isolated from concurrent
// writes; the store swaps in a new snapshot atomically per upsert.
type Snapshot struct {
	nodes map[string]*Node
	edges []*Edge

	byType map[NodeType][]string // node IDs per type, sorted
	byFile map[string][]string   // node IDs per file path, sorted

	out map[string][]*Edge // edges by source node ID, sorted by (type, to, line)
	in  map[string][]*Edge // edges by target node ID, sorted by (type, from, line)
}

// Traversal is one node reached during a bounded walk, with the depth at
// which it was first reached.
type Traversal struct {
	Node  *Node
	Depth int
}

// newSnapshot builds a snapshot with all indexes from a node map and edge
// list. The inputs must not be mutated afterwards.
func newSnapshot(nodes map[string]*Node, edges []*Edge) *Snapshot {
	s := &Snapshot{
		nodes:  nodes,
		edges:  edges,
		byType: make(map[NodeType][]string),
		byFile: make(map[string][]string),
		out:    make(map[string][]*Edge),
		in:     make(map[string][]*Edge),
	}

	for id, node := range nodes {
		s.byType[node.Type] = append(s.byType[node.Type], id)
		s.byFile[node.FilePath] = append(s.byFile[node.FilePath], id)
	}
	for _, ids := range s.byType {
		sort.Strings(ids)
	}
	for _, ids := range s.byFile {
		sort.Strings(ids)
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].Key() < edges[j].Key() })
	for _, edge := range edges {
		s.out[edge.From] = append(s.out[edge.From], edge)
		s.in[edge.To] = append(s.in[edge.To], edge)
	}

	return s
}

func emptySnapshot() *Snapshot {
	return newSnapshot(map[string]*Node{}, nil)
}

// Node returns the node with the given ID.
func (s *Snapshot) Node(id string) (*Node, error) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return node, nil
}

// NodesByType returns all nodes of the given type, ordered by ID.
func (s *Snapshot) NodesByType(t NodeType) []*Node {
	ids := s.byType[t]
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// NodesByFile returns all nodes attributed to a file path, ordered by ID.
func (s *Snapshot) NodesByFile(filePath string) []*Node {
	ids := s.byFile[filePath]
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// AllNodes returns every node, ordered by ID.
func (s *Snapshot) AllNodes() []*Node {
	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, s.nodes[id])
	}
	return nodes
}

// AllEdges returns every edge in deterministic order.
func (s *Snapshot) AllEdges() []*Edge {
	return s.edges
}

// EdgesFrom returns outgoing edges from a node, optionally filtered by type.
func (s *Snapshot) EdgesFrom(id string, t EdgeType) []*Edge {
	return filterEdges(s.out[id], t)
}

// EdgesTo returns incoming edges to a node, optionally filtered by type.
func (s *Snapshot) EdgesTo(id string, t EdgeType) []*Edge {
	return filterEdges(s.in[id], t)
}

func filterEdges(edges []*Edge, t EdgeType) []*Edge {
	if t == "" {
		return edges
	}
	filtered := []*Edge{}
	for _, edge := range edges {
		if edge.Type == t {
			filtered = append(filtered, edge)
		}
	}
	return filtered
}

// NodeCount returns the number of nodes in this version.
func (s *Snapshot) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of edges in this version.
func (s *Snapshot) EdgeCount() int { return len(s.edges) }

// ResolveRef resolves a user-supplied node reference (ID, qualified name,
// or short name) to a node. Ambiguous short names resolve to the candidate
// with the smallest ID so repeated queries see the same node.
func (s *Snapshot) ResolveRef(ref string) (*Node, bool) {
	if node, ok := s.nodes[ref]; ok {
		return node, true
	}

	var best *Node
	for _, node := range s.AllNodes() {
		if node.QualifiedName == ref {
			return node, true
		}
		if node.Name == ref && best == nil {
			best = node
		}
	}
	if best != nil {
		return best, true
	}
	return nil, false
}

// Walk performs a breadth-first traversal from root over edges of the given
// types (empty means all), following reverse edges when reverse is true.
// A node is never revisited at a shallower-or-equal depth than already seen,
// so the walk terminates on cyclic graphs and reports each node once.
// truncated reports whether the depth bound cut the walk short.
func (s *Snapshot) Walk(rootID string, types []EdgeType, reverse bool, maxDepth int) (results []Traversal, truncated bool) {
	if maxDepth <= 0 {
		return nil, false
	}

	typeSet := make(map[EdgeType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	visited := map[string]int{rootID: 0}
	frontier := []string{rootID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		next := []string{}
		for _, id := range frontier {
			for _, neighbor := range s.neighbors(id, typeSet, reverse) {
				if IsPlaceholder(neighbor) {
					continue
				}
				if prev, seen := visited[neighbor]; seen && prev <= depth {
					continue
				}
				visited[neighbor] = depth
				if node, ok := s.nodes[neighbor]; ok {
					results = append(results, Traversal{Node: node, Depth: depth})
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	// The bound truncated the walk if the last frontier still had unseen
	// neighbors to offer.
	for _, id := range frontier {
		for _, neighbor := range s.neighbors(id, typeSet, reverse) {
			if IsPlaceholder(neighbor) {
				continue
			}
			if _, seen := visited[neighbor]; !seen {
				return results, true
			}
		}
	}

	return results, false
}

// neighbors returns adjacent node IDs over the selected edge types, in the
// deterministic order the snapshot indexes maintain.
func (s *Snapshot) neighbors(id string, typeSet map[EdgeType]bool, reverse bool) []string {
	edges := s.out[id]
	if reverse {
		edges = s.in[id]
	}
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		if len(typeSet) > 0 && !typeSet[edge.Type] {
			continue
		}
		if reverse {
			ids = append(ids, edge.From)
		} else {
			ids = append(ids, edge.To)
		}
	}
	return ids
}
