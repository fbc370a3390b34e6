package graph

import (
	"sort"
	"strings"
)

// Resolution is the outcome of resolving a textual reference. Target is nil
// when the reference stayed unresolved; Candidates then lists the node IDs
// that remained in contention (empty when nothing matched at all).
type Resolution struct {
	Target     *Node
	Candidates []string
}

// Resolved reports whether the reference resolved to a single node.
func (r Resolution) Resolved() bool { return r.Target != nil }

// Resolver resolves textual references (call targets, base classes, import
// targets) against the committed graph plus the in-flight build batch. It
// reads committed state only; the store is mutated solely by UpsertFile.
//
// Disambiguation policy, in order:
//  1. match within the source node's own file
//  2. match within the source node's declared language
//  3. unique match across the whole graph
//  4. longest shared file-path prefix with the source; a remaining tie is
//     returned as Unresolved with the candidate list attached
type Resolver struct {
	byQualified map[string][]*Node
	byName      map[string][]*Node
	bySuffix    map[string][]*Node
}

// NewResolver builds a resolver over the committed snapshot and the nodes
// of the current build batch. The batch supersedes the committed state of
// the files it belongs to: on a rebuild, the file's stale committed nodes
// are not candidates.
func NewResolver(snap *Snapshot, batch []Node) *Resolver {
	r := &Resolver{
		byQualified: make(map[string][]*Node),
		byName:      make(map[string][]*Node),
		bySuffix:    make(map[string][]*Node),
	}
	replaced := make(map[string]bool, 1)
	for i := range batch {
		replaced[batch[i].FilePath] = true
	}
	for _, node := range snap.AllNodes() {
		if replaced[node.FilePath] {
			continue
		}
		r.index(node)
	}
	for i := range batch {
		r.index(&batch[i])
	}
	return r
}

func (r *Resolver) index(node *Node) {
	r.byQualified[node.QualifiedName] = append(r.byQualified[node.QualifiedName], node)
	r.byName[node.Name] = append(r.byName[node.Name], node)
	if i := strings.LastIndex(node.QualifiedName, "."); i >= 0 {
		r.bySuffix[node.QualifiedName[i+1:]] = append(r.bySuffix[node.QualifiedName[i+1:]], node)
	}
}

// Resolve resolves ref from the perspective of source, restricted to nodes
// of the given types (empty means any type).
func (r *Resolver) Resolve(ref string, source *Node, types ...NodeType) Resolution {
	candidates := r.lookup(ref, types)
	if len(candidates) == 0 {
		return Resolution{}
	}

	if sameFile := filterNodes(candidates, func(n *Node) bool {
		return source != nil && n.FilePath == source.FilePath
	}); len(sameFile) > 0 {
		return pickClosest(sameFile, source)
	}

	if sameLang := filterNodes(candidates, func(n *Node) bool {
		return source != nil && source.Language != "" && n.Language == source.Language
	}); len(sameLang) > 0 {
		return pickClosest(sameLang, source)
	}

	return pickClosest(candidates, source)
}

// lookup gathers candidates by exact qualified name, then short name, then
// trailing qualified-name segment.
func (r *Resolver) lookup(ref string, types []NodeType) []*Node {
	typeSet := make(map[NodeType]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	allowed := func(n *Node) bool {
		return len(typeSet) == 0 || typeSet[n.Type]
	}

	for _, pool := range [][]*Node{r.byQualified[ref], r.byName[ref], r.bySuffix[ref]} {
		candidates := filterNodes(pool, allowed)
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// pickClosest applies the shared path-prefix tie-break. The prefix-length
// heuristic is deliberately simple; it exists to keep same-package
// references from resolving into distant test fixtures.
func pickClosest(candidates []*Node, source *Node) Resolution {
	if len(candidates) == 1 {
		return Resolution{Target: candidates[0]}
	}

	sorted := append([]*Node{}, candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	best := []*Node{}
	bestLen := -1
	for _, cand := range sorted {
		l := 0
		if source != nil {
			l = sharedPrefixLen(cand.FilePath, source.FilePath)
		}
		switch {
		case l > bestLen:
			best = []*Node{cand}
			bestLen = l
		case l == bestLen:
			best = append(best, cand)
		}
	}

	if len(best) == 1 {
		return Resolution{Target: best[0]}
	}

	ids := make([]string, 0, len(sorted))
	for _, cand := range sorted {
		ids = append(ids, cand.ID)
	}
	return Resolution{Candidates: ids}
}

func sharedPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func filterNodes(nodes []*Node, keep func(*Node) bool) []*Node {
	filtered := []*Node{}
	for _, node := range nodes {
		if keep(node) {
			filtered = append(filtered, node)
		}
	}
	return filtered
}
