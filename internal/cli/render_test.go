package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/query"
)

// Test Plan for result rendering:
// - Table output aligns columns and reports the row count footer
// - NotFound renders as a message, not an empty table
// - CSV and JSON round-trip the cell values

func sampleResult() *query.Result {
	return &query.Result{
		Columns:         []string{"name", "complexity"},
		Rows:            [][]any{{"foo", 5}, {"much_longer_name", 12}},
		RowCount:        2,
		ExecutionTimeMs: 0.42,
	}
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, sampleResult()))
	out := buf.String()

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.True(t, strings.HasPrefix(lines[0], "name"))
	assert.Contains(t, lines[0], "complexity")
	assert.Contains(t, out, "much_longer_name")
	assert.Contains(t, out, "2 row(s) in 0.42ms")

	// The rule spans the same width as the header.
	assert.Equal(t, len(lines[0]), len(lines[1]))
}

func TestRenderTable_NotFound(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, &query.Result{NotFound: true}))
	assert.Equal(t, "not found\n", buf.String())
}

func TestRenderTable_TruncationFooter(t *testing.T) {
	t.Parallel()

	result := sampleResult()
	result.Truncated = true

	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, result))
	assert.Contains(t, buf.String(), "(truncated at depth bound)")
}

func TestRenderCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderCSV(&buf, sampleResult()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,complexity", lines[0])
	assert.Equal(t, "foo,5", lines[1])
	assert.Equal(t, "much_longer_name,12", lines[2])
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderJSON(&buf, sampleResult()))

	var decoded query.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"name", "complexity"}, decoded.Columns)
	assert.Equal(t, 2, decoded.RowCount)
}

func TestFormatCell(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "3.50", formatCell(3.5))
	assert.Equal(t, "7", formatCell(7))
	assert.Equal(t, "x", formatCell("x"))
}
