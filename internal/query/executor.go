package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	dgraph "github.com/dominikbraun/graph"

	"codegraph/internal/graph"
)

// Result is the uniform tabular query output. Empty results are valid;
// NotFound marks a query whose root node reference matched nothing, which is
// reported as data rather than as an error. Truncated marks traversals cut
// short by the depth bound.
type Result struct {
	Columns         []string `json:"columns"`
	Rows            [][]any  `json:"rows"`
	RowCount        int      `json:"row_count"`
	ExecutionTimeMs float64  `json:"execution_time_ms"`
	Truncated       bool     `json:"truncated,omitempty"`
	NotFound        bool     `json:"not_found,omitempty"`
}

// Executor runs plans against immutable graph snapshots. It holds no graph
// state of its own, so one executor can serve snapshots from any store.
type Executor struct {
	context *graph.ContextExtractor
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithContextExtractor enables source-context rows in DESCRIBE output.
func WithContextExtractor(c *graph.ContextExtractor) ExecutorOption {
	return func(e *Executor) { e.context = c }
}

// NewExecutor creates an executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run parses, plans and executes one query string against a snapshot.
func (e *Executor) Run(input string, snap *graph.Snapshot) (*Result, error) {
	stmt, err := Parse(input)
	if err != nil {
		return nil, err
	}
	plan, err := BuildPlan(stmt)
	if err != nil {
		return nil, err
	}
	return e.Execute(plan, snap), nil
}

// Execute runs a plan to completion. Execution never fails: malformed input
// is rejected at parse time, and missing nodes surface as NotFound results.
func (e *Executor) Execute(plan *Plan, snap *graph.Snapshot) *Result {
	start := time.Now()
	var result *Result

	switch stmt := plan.Stmt.(type) {
	case *SelectStmt:
		result = e.execSelect(stmt, snap)
	case *DescribeStmt:
		result = e.execDescribe(stmt, snap)
	case *ShowStmt:
		result = e.execShow(plan, stmt, snap)
	case *FindPathStmt:
		result = e.execFindPath(stmt, snap)
	case *AnalyzeStmt:
		result = e.execAnalyze(stmt, snap)
	default:
		result = &Result{}
	}

	result.RowCount = len(result.Rows)
	result.ExecutionTimeMs = float64(time.Since(start).Microseconds()) / 1000.0
	return result
}

// --- SELECT ---

func (e *Executor) execSelect(stmt *SelectStmt, snap *graph.Snapshot) *Result {
	fields := stmt.Fields
	if len(fields) == 1 && fields[0] == "*" {
		fields = AllFields
	}

	var matched []*graph.Node
	for _, node := range snap.NodesByType(stmt.NodeType) {
		if stmt.Where == nil || evalCondition(stmt.Where, node) {
			matched = append(matched, node)
		}
	}

	if stmt.OrderBy != nil {
		field, desc := stmt.OrderBy.Field, stmt.OrderBy.Descending
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(fieldValue(matched[i], field), fieldValue(matched[j], field))
			if cmp == 0 {
				return matched[i].ID < matched[j].ID
			}
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if stmt.Limit >= 0 && len(matched) > stmt.Limit {
		matched = matched[:stmt.Limit]
	}

	rows := make([][]any, 0, len(matched))
	for _, node := range matched {
		row := make([]any, len(fields))
		for i, field := range fields {
			row[i] = fieldValue(node, field)
		}
		rows = append(rows, row)
	}
	return &Result{Columns: fields, Rows: rows}
}

// evalCondition evaluates the filter tree against one node.
func evalCondition(cond *Condition, node *graph.Node) bool {
	switch cond.Logic {
	case "and":
		return evalCondition(cond.Left, node) && evalCondition(cond.Right, node)
	case "or":
		return evalCondition(cond.Left, node) || evalCondition(cond.Right, node)
	}

	have := fieldValue(node, cond.Field)
	if cond.Op == OpLike {
		pattern, ok := cond.Value.(string)
		if !ok {
			return false
		}
		return likeMatch(fmt.Sprintf("%v", have), pattern)
	}

	cmp := compareValues(have, cond.Value)
	switch cond.Op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	}
	return false
}

func fieldValue(node *graph.Node, field string) any {
	switch field {
	case FieldID:
		return node.ID
	case FieldType:
		return string(node.Type)
	case FieldName:
		return node.Name
	case FieldQualifiedName:
		return node.QualifiedName
	case FieldFilePath:
		return node.FilePath
	case FieldStartLine:
		return node.StartLine
	case FieldEndLine:
		return node.EndLine
	case FieldComplexity:
		return node.Complexity
	case FieldDocstring:
		return node.Docstring
	case FieldLanguage:
		return node.Language
	}
	return nil
}

// compareValues orders two scalars. Numbers compare numerically across int
// and float spellings; everything else compares as strings.
func compareValues(a, b any) int {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// likeMatch implements LIKE with % wildcards, case-insensitively. A pattern
// without any wildcard matches as a substring, which is what the terse ~
// operator is used for in practice.
func likeMatch(value, pattern string) bool {
	value = strings.ToLower(value)
	pattern = strings.ToLower(pattern)

	if !strings.Contains(pattern, "%") {
		return strings.Contains(value, pattern)
	}

	parts := strings.Split(pattern, "%")
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(value, part)
		if idx < 0 {
			return false
		}
		value = value[idx+len(part):]
	}
	return strings.HasSuffix(value, parts[len(parts)-1])
}

// --- DESCRIBE ---

func (e *Executor) execDescribe(stmt *DescribeStmt, snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"field", "value"}}
	node, ok := snap.ResolveRef(stmt.Ref)
	if !ok {
		result.NotFound = true
		return result
	}

	add := func(field string, value any) {
		result.Rows = append(result.Rows, []any{field, value})
	}
	add("id", node.ID)
	add("type", string(node.Type))
	add("name", node.Name)
	add("qualified_name", node.QualifiedName)
	add("file_path", node.FilePath)
	add("lines", fmt.Sprintf("%d-%d", node.StartLine, node.EndLine))
	add("complexity", node.Complexity)
	if node.Language != "" {
		add("language", node.Language)
	}
	if node.Docstring != "" {
		add("docstring", node.Docstring)
	}

	metaKeys := make([]string, 0, len(node.Metadata))
	for k := range node.Metadata {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	for _, k := range metaKeys {
		add(k, node.Metadata[k])
	}

	add("outgoing_edges", len(snap.EdgesFrom(node.ID, "")))
	add("incoming_edges", len(snap.EdgesTo(node.ID, "")))

	if e.context != nil {
		if src := e.context.Extract(node, 0); src != "" {
			add("source", src)
		}
	}
	return result
}

// --- SHOW ---

func (e *Executor) execShow(plan *Plan, stmt *ShowStmt, snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"name", "type", "file_path", "depth"}}
	root, ok := snap.ResolveRef(stmt.Ref)
	if !ok {
		result.NotFound = true
		return result
	}

	reached, truncated := snap.Walk(root.ID, plan.EdgeTypes, plan.Reverse, plan.Depth)
	result.Truncated = truncated
	for _, hit := range reached {
		result.Rows = append(result.Rows, []any{
			hit.Node.Name, string(hit.Node.Type), hit.Node.FilePath, hit.Depth,
		})
	}
	return result
}

// --- FIND PATH ---

func (e *Executor) execFindPath(stmt *FindPathStmt, snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"step", "name", "type", "file_path"}}

	from, okFrom := snap.ResolveRef(stmt.From)
	to, okTo := snap.ResolveRef(stmt.To)
	if !okFrom || !okTo {
		result.NotFound = true
		return result
	}

	g := dgraph.New(dgraph.StringHash, dgraph.Directed())
	for _, node := range snap.AllNodes() {
		_ = g.AddVertex(node.ID)
	}
	for _, edge := range snap.AllEdges() {
		if graph.IsPlaceholder(edge.To) {
			continue
		}
		if stmt.Via != "" && edge.Type != stmt.Via {
			continue
		}
		_ = g.AddEdge(edge.From, edge.To)
	}

	path, err := dgraph.ShortestPath(g, from.ID, to.ID)
	if err != nil {
		// No path is an empty result, not a failure.
		return result
	}
	for i, id := range path {
		node, nodeErr := snap.Node(id)
		if nodeErr != nil {
			continue
		}
		result.Rows = append(result.Rows, []any{
			i, node.Name, string(node.Type), node.FilePath,
		})
	}
	return result
}

// --- ANALYZE ---

func (e *Executor) execAnalyze(stmt *AnalyzeStmt, snap *graph.Snapshot) *Result {
	switch stmt.Kind {
	case AnalyzeCycles:
		return e.analyzeCycles(stmt.Scope, snap)
	case AnalyzeComplexity:
		return e.analyzeComplexity(snap)
	case AnalyzeCoupling:
		return e.analyzeCoupling(snap)
	}
	return &Result{}
}

// referenceEdgeTypes are the edge types that participate in dependency
// cycles and coupling. Containment is a tree and never cyclic.
var referenceEdgeTypes = map[graph.EdgeType]bool{
	graph.EdgeCalls:    true,
	graph.EdgeImports:  true,
	graph.EdgeInherits: true,
}

// analyzeCycles detects dependency cycles via strongly connected components.
// Each cycle is rendered starting at its lexicographically smallest member
// and the cycle list is sorted, so repeated runs on the same graph produce
// identical output.
func (e *Executor) analyzeCycles(scope string, snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"cycle", "size", "members"}}

	inScope := func(node *graph.Node) bool {
		return scope == "" || strings.HasPrefix(node.FilePath, scope)
	}

	g := dgraph.New(dgraph.StringHash, dgraph.Directed())
	adjacency := map[string][]string{}
	selfLoop := map[string]bool{}
	for _, node := range snap.AllNodes() {
		if inScope(node) {
			_ = g.AddVertex(node.ID)
		}
	}
	for _, edge := range snap.AllEdges() {
		if !referenceEdgeTypes[edge.Type] || graph.IsPlaceholder(edge.To) {
			continue
		}
		fromNode, err1 := snap.Node(edge.From)
		toNode, err2 := snap.Node(edge.To)
		if err1 != nil || err2 != nil || !inScope(fromNode) || !inScope(toNode) {
			continue
		}
		_ = g.AddEdge(edge.From, edge.To)
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
		if edge.From == edge.To {
			selfLoop[edge.From] = true
		}
	}

	sccs, err := dgraph.StronglyConnectedComponents(g)
	if err != nil {
		return result
	}

	var cycles [][]string
	for _, component := range sccs {
		if len(component) > 1 {
			cycles = append(cycles, orderCycle(component, adjacency))
		} else if len(component) == 1 && selfLoop[component[0]] {
			cycles = append(cycles, component)
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})

	for i, cycle := range cycles {
		result.Rows = append(result.Rows, []any{
			i + 1, len(cycle), strings.Join(cycle, " -> "),
		})
	}
	return result
}

// orderCycle orders a strongly connected component starting from its
// lexicographically smallest member, following the smallest unvisited
// in-component successor at each step. Members unreachable by that greedy
// walk (interleaved cycles) are appended in sorted order.
func orderCycle(members []string, adjacency map[string][]string) []string {
	inComponent := make(map[string]bool, len(members))
	for _, id := range members {
		inComponent[id] = true
	}
	sorted := append([]string{}, members...)
	sort.Strings(sorted)

	ordered := []string{sorted[0]}
	visited := map[string]bool{sorted[0]: true}
	current := sorted[0]
	for len(ordered) < len(members) {
		next := ""
		candidates := append([]string{}, adjacency[current]...)
		sort.Strings(candidates)
		for _, cand := range candidates {
			if inComponent[cand] && !visited[cand] {
				next = cand
				break
			}
		}
		if next == "" {
			break
		}
		ordered = append(ordered, next)
		visited[next] = true
		current = next
	}
	for _, id := range sorted {
		if !visited[id] {
			ordered = append(ordered, id)
		}
	}
	return ordered
}

const analysisTopN = 10

// analyzeComplexity aggregates complexity over functions and methods.
func (e *Executor) analyzeComplexity(snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"metric", "value"}}

	var fns []*graph.Node
	fns = append(fns, snap.NodesByType(graph.NodeFunction)...)
	fns = append(fns, snap.NodesByType(graph.NodeMethod)...)

	total, max := 0, 0
	for _, fn := range fns {
		total += fn.Complexity
		if fn.Complexity > max {
			max = fn.Complexity
		}
	}
	mean := 0.0
	if len(fns) > 0 {
		mean = float64(total) / float64(len(fns))
	}

	result.Rows = append(result.Rows,
		[]any{"functions", len(fns)},
		[]any{"total_complexity", total},
		[]any{"mean_complexity", mean},
		[]any{"max_complexity", max},
	)

	sort.SliceStable(fns, func(i, j int) bool {
		if fns[i].Complexity != fns[j].Complexity {
			return fns[i].Complexity > fns[j].Complexity
		}
		return fns[i].ID < fns[j].ID
	})
	for i, fn := range fns {
		if i >= analysisTopN {
			break
		}
		result.Rows = append(result.Rows, []any{
			fmt.Sprintf("top_%d", i+1),
			fmt.Sprintf("%s (complexity %d, %s)", fn.QualifiedName, fn.Complexity, fn.FilePath),
		})
	}
	return result
}

// analyzeCoupling reports fan-in/fan-out per node over reference edges,
// highest coupling first.
func (e *Executor) analyzeCoupling(snap *graph.Snapshot) *Result {
	result := &Result{Columns: []string{"qualified_name", "type", "fan_in", "fan_out"}}

	type coupling struct {
		node   *graph.Node
		fanIn  int
		fanOut int
	}
	var entries []coupling
	for _, node := range snap.AllNodes() {
		c := coupling{node: node}
		for _, edge := range snap.EdgesFrom(node.ID, "") {
			if referenceEdgeTypes[edge.Type] {
				c.fanOut++
			}
		}
		for _, edge := range snap.EdgesTo(node.ID, "") {
			if referenceEdgeTypes[edge.Type] {
				c.fanIn++
			}
		}
		if c.fanIn+c.fanOut > 0 {
			entries = append(entries, c)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].fanIn+entries[i].fanOut, entries[j].fanIn+entries[j].fanOut
		if ti != tj {
			return ti > tj
		}
		return entries[i].node.ID < entries[j].node.ID
	})
	for i, c := range entries {
		if i >= 2*analysisTopN {
			break
		}
		result.Rows = append(result.Rows, []any{
			c.node.QualifiedName, string(c.node.Type), c.fanIn, c.fanOut,
		})
	}
	return result
}
