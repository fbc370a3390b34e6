package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

// Test Plan for Parser:
// - Verbose and terse spellings of the same query produce identical ASTs
// - Alias expansion (fn, c, ~, sort, dN) leaves no trace in the tree
// - AND binds tighter than OR; parentheses override
// - Malformed input fails with position and offending-token info

func mustParse(t *testing.T, input string) Statement {
	t.Helper()
	stmt, err := Parse(input)
	require.NoError(t, err, "query: %s", input)
	return stmt
}

func TestParse_TerseVerboseEquivalence(t *testing.T) {
	t.Parallel()

	pairs := []struct {
		name    string
		verbose string
		terse   string
	}{
		{
			name:    "select with filter sort and limit",
			verbose: "SELECT name, complexity FROM function WHERE complexity > 10 ORDER BY complexity DESC LIMIT 5",
			terse:   "SELECT n, c FROM fn WHERE c > 10 SORT -c 5",
		},
		{
			name:    "like via tilde",
			verbose: `SELECT name FROM class WHERE name LIKE "handler"`,
			terse:   "SELECT n FROM cls WHERE n ~ handler",
		},
		{
			name:    "callers with depth",
			verbose: "SHOW CALLERS OF app.helper DEPTH 2",
			terse:   "callers app.helper d2",
		},
		{
			name:    "impact default depth",
			verbose: "SHOW IMPACT OF app.Handler",
			terse:   "impact app.Handler",
		},
		{
			name:    "ascending sort",
			verbose: "SELECT name FROM module ORDER BY name ASC",
			terse:   "SELECT n FROM mod SORT +name",
		},
	}

	for _, pair := range pairs {
		pair := pair
		t.Run(pair.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, mustParse(t, pair.verbose), mustParse(t, pair.terse))
		})
	}
}

func TestParse_SelectStructure(t *testing.T) {
	t.Parallel()

	stmt := mustParse(t, "SELECT name, file_path FROM method WHERE complexity >= 3 AND language = python LIMIT 20")
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok)

	assert.Equal(t, []string{FieldName, FieldFilePath}, sel.Fields)
	assert.Equal(t, graph.NodeMethod, sel.NodeType)
	assert.Equal(t, 20, sel.Limit)

	require.NotNil(t, sel.Where)
	assert.Equal(t, "and", sel.Where.Logic)
	assert.Equal(t, FieldComplexity, sel.Where.Left.Field)
	assert.Equal(t, OpGte, sel.Where.Left.Op)
	assert.Equal(t, int64(3), sel.Where.Left.Value)
	assert.Equal(t, FieldLanguage, sel.Where.Right.Field)
	assert.Equal(t, "python", sel.Where.Right.Value)
}

func TestParse_SelectStar(t *testing.T) {
	t.Parallel()

	sel := mustParse(t, "SELECT * FROM fn").(*SelectStmt)
	assert.Equal(t, []string{"*"}, sel.Fields)
	assert.Equal(t, -1, sel.Limit)
	assert.Nil(t, sel.Where)
	assert.Nil(t, sel.OrderBy)
}

func TestParse_AndBindsTighterThanOr(t *testing.T) {
	t.Parallel()

	sel := mustParse(t, "SELECT name FROM fn WHERE complexity > 5 AND language = go OR name = main").(*SelectStmt)
	require.NotNil(t, sel.Where)
	assert.Equal(t, "or", sel.Where.Logic)
	assert.Equal(t, "and", sel.Where.Left.Logic)
	assert.Equal(t, FieldName, sel.Where.Right.Field)

	// Parentheses flip the grouping.
	sel = mustParse(t, "SELECT name FROM fn WHERE complexity > 5 AND (language = go OR name = main)").(*SelectStmt)
	assert.Equal(t, "and", sel.Where.Logic)
	assert.Equal(t, "or", sel.Where.Right.Logic)
}

func TestParse_ShowKinds(t *testing.T) {
	t.Parallel()

	cases := map[string]ShowKind{
		"SHOW DEPS OF app":       ShowDeps,
		"SHOW RDEPS OF app":      ShowRDeps,
		"SHOW CALLERS OF app":    ShowCallers,
		"SHOW CALLEES OF app":    ShowCallees,
		"SHOW IMPACT OF app":     ShowImpact,
		"deps app":               ShowDeps,
		"rdeps src/app.py":       ShowRDeps,
		"callees app.Handler.go": ShowCallees,
	}
	for input, kind := range cases {
		stmt := mustParse(t, input).(*ShowStmt)
		assert.Equal(t, kind, stmt.Kind, "query: %s", input)
		assert.Zero(t, stmt.Depth, "query: %s", input)
	}
}

func TestParse_FindPath(t *testing.T) {
	t.Parallel()

	stmt := mustParse(t, "FIND PATH FROM app.main TO util.parse VIA calls").(*FindPathStmt)
	assert.Equal(t, "app.main", stmt.From)
	assert.Equal(t, "util.parse", stmt.To)
	assert.Equal(t, graph.EdgeCalls, stmt.Via)

	stmt = mustParse(t, "FIND PATH FROM a TO b").(*FindPathStmt)
	assert.Empty(t, stmt.Via)
}

func TestParse_Analyze(t *testing.T) {
	t.Parallel()

	stmt := mustParse(t, "ANALYZE CYCLES IN src/core").(*AnalyzeStmt)
	assert.Equal(t, AnalyzeCycles, stmt.Kind)
	assert.Equal(t, "src/core", stmt.Scope)

	assert.Equal(t, AnalyzeComplexity, mustParse(t, "ANALYZE COMPLEXITY").(*AnalyzeStmt).Kind)
	assert.Equal(t, AnalyzeCoupling, mustParse(t, "ANALYZE COUPLING").(*AnalyzeStmt).Kind)
}

func TestParse_DescribeAcceptsQuotedAndKeywordRefs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "app.helper", mustParse(t, "DESCRIBE app.helper").(*DescribeStmt).Ref)
	assert.Equal(t, "weird name", mustParse(t, `DESCRIBE "weird name"`).(*DescribeStmt).Ref)
	// A node literally named "path" still parses.
	assert.Equal(t, "path", mustParse(t, "DESCRIBE path").(*DescribeStmt).Ref)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"SELECT FROM fn",
		"SELECT bogus_field FROM fn",
		"SELECT name FROM spaceship",
		"SELECT name FROM fn WHERE complexity >",
		"SHOW SIDEWAYS OF app",
		"FIND PATH FROM a",
		"ANALYZE VIBES",
		"SELECT name FROM fn trailing junk",
	}
	for _, input := range cases {
		_, err := Parse(input)
		require.Error(t, err, "query: %s", input)

		var perr *ParseError
		require.ErrorAs(t, err, &perr, "query: %s", input)
		assert.GreaterOrEqual(t, perr.Position, 0)
	}
}

func TestParse_ErrorReportsPosition(t *testing.T) {
	t.Parallel()

	_, err := Parse("SELECT name FROM spaceship")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 17, perr.Position)
	assert.Contains(t, err.Error(), "spaceship")
}
