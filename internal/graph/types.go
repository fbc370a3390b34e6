package graph

// NodeType represents the type of a code entity.
type NodeType string

const (
	NodeModule    NodeType = "module"
	NodeClass     NodeType = "class"
	NodeFunction  NodeType = "function"
	NodeMethod    NodeType = "method"
	NodeParameter NodeType = "parameter"
	NodeImport    NodeType = "import"
)

// nodeTypes is the closed set of valid node types.
var nodeTypes = map[NodeType]bool{
	NodeModule:    true,
	NodeClass:     true,
	NodeFunction:  true,
	NodeMethod:    true,
	NodeParameter: true,
	NodeImport:    true,
}

// EdgeType represents the type of relationship between nodes.
type EdgeType string

const (
	EdgeContains EdgeType = "contains"
	EdgeImports  EdgeType = "imports"
	EdgeCalls    EdgeType = "calls"
	EdgeInherits EdgeType = "inherits"
)

// edgeTypes is the closed set of valid edge types.
var edgeTypes = map[EdgeType]bool{
	EdgeContains: true,
	EdgeImports:  true,
	EdgeCalls:    true,
	EdgeInherits: true,
}

// Node represents a code entity. The typed fields form a fixed envelope;
// type-specific extras (decorators, base-class names, return type) live in
// the Metadata side-map rather than per-type subtypes.
type Node struct {
	ID            string            `json:"id"`
	Type          NodeType          `json:"type"`
	Name          string            `json:"name"`
	QualifiedName string            `json:"qualified_name"`
	FilePath      string            `json:"file_path"`
	StartLine     int               `json:"start_line"`
	EndLine       int               `json:"end_line"`
	Complexity    int               `json:"complexity"`
	Docstring     string            `json:"docstring,omitempty"`
	Language      string            `json:"language,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Edge represents a typed relationship between two nodes. Edges are stored
// as ID pairs in a flat table, so cyclic graphs impose no ownership problem.
//
// A dangling edge keeps a placeholder target (see PlaceholderID) instead of
// being dropped: the reference name is preserved for diagnostics and later
// re-resolution. Candidates carries the ambiguity diagnostic when more than
// one target matched.
type Edge struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Type       EdgeType `json:"type"`
	Line       int      `json:"line,omitempty"`
	Dangling   bool     `json:"dangling,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
}

// Key returns the identity triple of the edge. Two edges with the same key
// are the same relationship regardless of metadata.
func (e Edge) Key() string {
	return e.From + "\x00" + e.To + "\x00" + string(e.Type)
}
