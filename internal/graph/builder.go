package graph

import (
	"log"
	"path/filepath"
	"strings"

	"codegraph/internal/records"
)

// Builder converts extraction records into graph batches and commits them
// through the store, one whole file at a time. Building the same record
// twice yields an identical graph: node IDs are derived, not generated, and
// upserts are whole-file replacements.
type Builder struct {
	store    *Store
	progress func(done, total int)
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithProgress installs a callback invoked after each file during BuildAll.
func WithProgress(fn func(done, total int)) BuilderOption {
	return func(b *Builder) { b.progress = fn }
}

// NewBuilder creates a builder committing to the given store.
func NewBuilder(store *Store, opts ...BuilderOption) *Builder {
	b := &Builder{store: store}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult summarizes a BuildAll pass.
type BuildResult struct {
	Files  int
	Failed int
	Nodes  int
	Edges  int
	Errors map[string]error // failed file path -> error
}

// BuildAll builds every record, isolating failures per file: a record that
// fails validation is logged and skipped, and the rest of the batch still
// lands.
func (b *Builder) BuildAll(files []*records.ParsedFile) BuildResult {
	result := BuildResult{Errors: map[string]error{}}
	for i, record := range files {
		if err := b.BuildFile(record); err != nil {
			log.Printf("skipping %s: %v", record.Path, err)
			result.Failed++
			result.Errors[record.Path] = err
		} else {
			result.Files++
		}
		if b.progress != nil {
			b.progress(i+1, len(files))
		}
	}
	snap := b.store.Snapshot()
	result.Nodes = snap.NodeCount()
	result.Edges = snap.EdgeCount()
	return result
}

// BuildFile converts one record into nodes and edges and atomically replaces
// the file's previous contribution to the graph.
func (b *Builder) BuildFile(record *records.ParsedFile) error {
	nodes, refs := b.collect(record)

	resolver := NewResolver(b.store.Snapshot(), nodes)
	edges := b.containment(record, nodes)
	seen := make(map[string]bool, len(edges))
	for _, edge := range edges {
		seen[edge.Key()] = true
	}

	for _, ref := range refs {
		edge := b.resolveRef(resolver, ref)
		if seen[edge.Key()] {
			continue
		}
		seen[edge.Key()] = true
		edges = append(edges, edge)
	}

	return b.store.UpsertFile(record.Path, nodes, edges)
}

// RemoveFile drops a file's contribution, rewriting inbound edges from other
// files as dangling placeholders.
func (b *Builder) RemoveFile(path string) {
	b.store.RemoveFile(path)
}

// refRequest is a raw textual reference collected during node construction,
// resolved once the whole batch is known.
type refRequest struct {
	from  *Node
	ref   string
	kind  EdgeType
	line  int
	types []NodeType
}

// collect builds the node batch and gathers reference requests. Nodes are
// appended module first, then classes with their methods, then free
// functions, matching source order within each record.
func (b *Builder) collect(record *records.ParsedFile) ([]Node, []refRequest) {
	var nodes []Node
	var refs []refRequest

	module := b.moduleNode(record)
	nodes = append(nodes, module)

	for _, imp := range record.Imports {
		refs = append(refs, refRequest{
			from: &module, ref: imp.Target, kind: EdgeImports, line: imp.Line,
			types: []NodeType{NodeModule},
		})
	}

	for _, class := range record.Classes {
		classNode := Node{
			ID:            NodeID(NodeClass, record.Path, class.QualifiedName),
			Type:          NodeClass,
			Name:          class.Name,
			QualifiedName: class.QualifiedName,
			FilePath:      record.Path,
			StartLine:     class.StartLine,
			EndLine:       class.EndLine,
			Docstring:     class.Docstring,
			Language:      record.Language,
			Metadata:      classMetadata(class),
		}
		nodes = append(nodes, classNode)

		for _, base := range class.Bases {
			refs = append(refs, refRequest{
				from: &classNode, ref: base, kind: EdgeInherits, line: class.StartLine,
				types: []NodeType{NodeClass},
			})
		}
		for _, method := range class.Methods {
			methodNode := b.functionNode(record, method, NodeMethod)
			nodes = append(nodes, methodNode)
			refs = append(refs, callRefs(&methodNode, method)...)
		}
	}

	for _, fn := range record.Functions {
		fnNode := b.functionNode(record, fn, NodeFunction)
		nodes = append(nodes, fnNode)
		refs = append(refs, callRefs(&fnNode, fn)...)
	}

	return nodes, refs
}

// moduleNode returns the file's module node, deriving a name from the path
// when the record carries no module definition.
func (b *Builder) moduleNode(record *records.ParsedFile) Node {
	name := moduleNameFromPath(record.Path)
	qualified := name
	docstring := ""
	if record.Module != nil {
		name = record.Module.Name
		qualified = record.Module.QualifiedName
		docstring = record.Module.Docstring
	}
	return Node{
		ID:            NodeID(NodeModule, record.Path, qualified),
		Type:          NodeModule,
		Name:          name,
		QualifiedName: qualified,
		FilePath:      record.Path,
		StartLine:     1,
		EndLine:       1,
		Docstring:     docstring,
		Language:      record.Language,
	}
}

func (b *Builder) functionNode(record *records.ParsedFile, fn records.FunctionDef, t NodeType) Node {
	return Node{
		ID:            NodeID(t, record.Path, fn.QualifiedName),
		Type:          t,
		Name:          fn.Name,
		QualifiedName: fn.QualifiedName,
		FilePath:      record.Path,
		StartLine:     fn.StartLine,
		EndLine:       fn.EndLine,
		Complexity:    fn.Complexity,
		Docstring:     fn.Docstring,
		Language:      record.Language,
		Metadata:      functionMetadata(fn),
	}
}

// containment links the module to its top-level declarations and each class
// to its methods.
func (b *Builder) containment(record *records.ParsedFile, nodes []Node) []Edge {
	var edges []Edge
	moduleID := nodes[0].ID

	byQualified := make(map[string]string, len(nodes))
	for _, node := range nodes {
		byQualified[string(node.Type)+"\x00"+node.QualifiedName] = node.ID
	}

	for _, class := range record.Classes {
		classID := byQualified[string(NodeClass)+"\x00"+class.QualifiedName]
		edges = append(edges, Edge{From: moduleID, To: classID, Type: EdgeContains, Line: class.StartLine})
		for _, method := range class.Methods {
			methodID := byQualified[string(NodeMethod)+"\x00"+method.QualifiedName]
			edges = append(edges, Edge{From: classID, To: methodID, Type: EdgeContains, Line: method.StartLine})
		}
	}
	for _, fn := range record.Functions {
		fnID := byQualified[string(NodeFunction)+"\x00"+fn.QualifiedName]
		edges = append(edges, Edge{From: moduleID, To: fnID, Type: EdgeContains, Line: fn.StartLine})
	}
	return edges
}

// resolveRef turns one reference request into an edge. Unresolved references
// become dangling edges with placeholder targets rather than being dropped.
func (b *Builder) resolveRef(resolver *Resolver, req refRequest) Edge {
	res := resolver.Resolve(req.ref, req.from, req.types...)
	if res.Resolved() {
		return Edge{From: req.from.ID, To: res.Target.ID, Type: req.kind, Line: req.line}
	}
	return Edge{
		From:       req.from.ID,
		To:         PlaceholderID(req.ref),
		Type:       req.kind,
		Line:       req.line,
		Dangling:   true,
		Candidates: res.Candidates,
	}
}

func callRefs(from *Node, fn records.FunctionDef) []refRequest {
	refs := make([]refRequest, 0, len(fn.Calls))
	for _, call := range fn.Calls {
		refs = append(refs, refRequest{
			from: from, ref: call.Target, kind: EdgeCalls, line: call.Line,
			types: []NodeType{NodeFunction, NodeMethod, NodeClass},
		})
	}
	return refs
}

func classMetadata(class records.ClassDef) map[string]string {
	meta := map[string]string{}
	if len(class.Bases) > 0 {
		meta["bases"] = strings.Join(class.Bases, ",")
	}
	if len(class.Decorators) > 0 {
		meta["decorators"] = strings.Join(class.Decorators, ",")
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func functionMetadata(fn records.FunctionDef) map[string]string {
	meta := map[string]string{}
	if fn.ReturnType != "" {
		meta["return_type"] = fn.ReturnType
	}
	if len(fn.Decorators) > 0 {
		meta["decorators"] = strings.Join(fn.Decorators, ",")
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// moduleNameFromPath derives a module name from a file path, e.g.
// "src/app/main.py" -> "main".
func moduleNameFromPath(path string) string {
	base := filepath.Base(path)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
