package query

import (
	"fmt"

	"codegraph/internal/graph"
)

// Traversal depth bounds. SHOW without an explicit DEPTH uses DefaultDepth;
// an explicit clause is clamped to MaxDepth so cyclic graphs stay cheap to
// query no matter what the caller asks for.
const (
	DefaultDepth = 3
	MaxDepth     = 10
)

// PlanKind partitions every statement into exactly one execution strategy.
type PlanKind int

const (
	// PlanDirect is a single store scan/filter/sort/limit pass.
	PlanDirect PlanKind = iota
	// PlanTraversal is a depth-bounded walk. SHOW and FIND PATH always plan
	// as traversals, even at depth 1, for implementation uniformity.
	PlanTraversal
	// PlanAnalysis is a whole-graph computation.
	PlanAnalysis
)

// Plan is the executable lowering of a statement.
type Plan struct {
	Kind PlanKind
	Stmt Statement

	// Traversal parameters, set for PlanTraversal lowered from ShowStmt.
	EdgeTypes []graph.EdgeType
	Reverse   bool
	Depth     int
}

// BuildPlan lowers a parsed statement into its plan.
func BuildPlan(stmt Statement) (*Plan, error) {
	switch s := stmt.(type) {
	case *SelectStmt, *DescribeStmt:
		return &Plan{Kind: PlanDirect, Stmt: stmt}, nil

	case *ShowStmt:
		plan := &Plan{Kind: PlanTraversal, Stmt: stmt, Depth: clampDepth(s.Depth)}
		switch s.Kind {
		case ShowDeps:
			plan.EdgeTypes = []graph.EdgeType{graph.EdgeImports}
		case ShowRDeps:
			plan.EdgeTypes = []graph.EdgeType{graph.EdgeImports}
			plan.Reverse = true
		case ShowCallers:
			plan.EdgeTypes = []graph.EdgeType{graph.EdgeCalls}
			plan.Reverse = true
		case ShowCallees:
			plan.EdgeTypes = []graph.EdgeType{graph.EdgeCalls}
		case ShowImpact:
			plan.EdgeTypes = []graph.EdgeType{graph.EdgeCalls, graph.EdgeImports, graph.EdgeInherits}
			plan.Reverse = true
		default:
			return nil, fmt.Errorf("unknown show kind %q", s.Kind)
		}
		return plan, nil

	case *FindPathStmt:
		return &Plan{Kind: PlanTraversal, Stmt: stmt, Depth: MaxDepth}, nil

	case *AnalyzeStmt:
		return &Plan{Kind: PlanAnalysis, Stmt: stmt}, nil
	}
	return nil, fmt.Errorf("unknown statement type %T", stmt)
}

func clampDepth(depth int) int {
	if depth <= 0 {
		return DefaultDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}
