package query

import "codegraph/internal/graph"

// The AST is the single normalized query representation: terse and verbose
// surface syntax both land here, and nothing below the parser can tell which
// one produced a given tree.

// Statement is one parsed query.
type Statement interface {
	stmt()
}

// SelectStmt projects fields over nodes of one type with optional filter,
// ordering and limit.
type SelectStmt struct {
	Fields   []string // canonical field names; single "*" means all
	NodeType graph.NodeType
	Where    *Condition // nil when absent
	OrderBy  *Ordering  // nil when absent
	Limit    int        // -1 when absent
}

// ShowStmt is a dependency-style traversal shortcut rooted at one node.
type ShowStmt struct {
	Kind  ShowKind
	Ref   string
	Depth int // 0 when absent; planner applies the default
}

// FindPathStmt asks for a shortest path between two nodes, optionally
// restricted to one edge type.
type FindPathStmt struct {
	From string
	To   string
	Via  graph.EdgeType // empty means any edge type
}

// AnalyzeStmt is a whole-graph computation.
type AnalyzeStmt struct {
	Kind  AnalyzeKind
	Scope string // CYCLES only: file-path prefix restriction, empty = whole graph
}

// DescribeStmt dumps one node's attributes.
type DescribeStmt struct {
	Ref string
}

func (*SelectStmt) stmt()   {}
func (*ShowStmt) stmt()     {}
func (*FindPathStmt) stmt() {}
func (*AnalyzeStmt) stmt()  {}
func (*DescribeStmt) stmt() {}

// ShowKind selects which relationship a SHOW traverses.
type ShowKind string

const (
	ShowDeps    ShowKind = "deps"    // outgoing imports
	ShowRDeps   ShowKind = "rdeps"   // incoming imports
	ShowCallers ShowKind = "callers" // incoming calls
	ShowCallees ShowKind = "callees" // outgoing calls
	ShowImpact  ShowKind = "impact"  // reverse transitive over calls+imports+inherits
)

// AnalyzeKind selects the whole-graph computation.
type AnalyzeKind string

const (
	AnalyzeCycles     AnalyzeKind = "cycles"
	AnalyzeComplexity AnalyzeKind = "complexity"
	AnalyzeCoupling   AnalyzeKind = "coupling"
)

// CompareOp is a filter comparison operator.
type CompareOp string

const (
	OpEq   CompareOp = "="
	OpNeq  CompareOp = "!="
	OpLt   CompareOp = "<"
	OpLte  CompareOp = "<="
	OpGt   CompareOp = ">"
	OpGte  CompareOp = ">="
	OpLike CompareOp = "like"
)

// Condition is a boolean filter tree. A leaf has Field/Op/Value set; an
// inner node has Logic plus both children.
type Condition struct {
	Logic string // "and" | "or"; empty for leaves
	Left  *Condition
	Right *Condition

	Field string
	Op    CompareOp
	Value any // string, int64, float64 or bool
}

// Ordering is an ORDER BY clause.
type Ordering struct {
	Field      string
	Descending bool
}

// Canonical node field names exposed to queries.
const (
	FieldID            = "id"
	FieldType          = "type"
	FieldName          = "name"
	FieldQualifiedName = "qualified_name"
	FieldFilePath      = "file_path"
	FieldStartLine     = "start_line"
	FieldEndLine       = "end_line"
	FieldComplexity    = "complexity"
	FieldDocstring     = "docstring"
	FieldLanguage      = "language"
)

// AllFields is the projection order used by SELECT *.
var AllFields = []string{
	FieldID, FieldType, FieldName, FieldQualifiedName, FieldFilePath,
	FieldStartLine, FieldEndLine, FieldComplexity, FieldDocstring, FieldLanguage,
}

// fieldAliases expands terse field spellings during parsing.
var fieldAliases = map[string]string{
	"c":  FieldComplexity,
	"n":  FieldName,
	"fp": FieldFilePath,
	"qn": FieldQualifiedName,
	"d":  FieldDocstring,
}

// validFields is the closed set of queryable fields.
var validFields = map[string]bool{
	FieldID: true, FieldType: true, FieldName: true, FieldQualifiedName: true,
	FieldFilePath: true, FieldStartLine: true, FieldEndLine: true,
	FieldComplexity: true, FieldDocstring: true, FieldLanguage: true,
}

// nodeTypeAliases expands terse node-type spellings; the canonical long
// spellings are accepted as well.
var nodeTypeAliases = map[string]graph.NodeType{
	"fn":        graph.NodeFunction,
	"function":  graph.NodeFunction,
	"functions": graph.NodeFunction,
	"cls":       graph.NodeClass,
	"class":     graph.NodeClass,
	"classes":   graph.NodeClass,
	"mod":       graph.NodeModule,
	"module":    graph.NodeModule,
	"modules":   graph.NodeModule,
	"meth":      graph.NodeMethod,
	"method":    graph.NodeMethod,
	"methods":   graph.NodeMethod,
	"imp":       graph.NodeImport,
	"import":    graph.NodeImport,
	"imports":   graph.NodeImport,
	"param":     graph.NodeParameter,
	"parameter": graph.NodeParameter,
}

// edgeTypeNames maps VIA arguments to edge types.
var edgeTypeNames = map[string]graph.EdgeType{
	"contains": graph.EdgeContains,
	"imports":  graph.EdgeImports,
	"calls":    graph.EdgeCalls,
	"inherits": graph.EdgeInherits,
}
