package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"codegraph/internal/query"
)

// renderTable writes a result as an aligned text table.
func renderTable(w io.Writer, result *query.Result) error {
	if result.NotFound {
		fmt.Fprintln(w, "not found")
		return nil
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(row))
		for c, v := range row {
			cells[r][c] = formatCell(v)
			if c < len(widths) && len(cells[r][c]) > widths[c] {
				widths[c] = len(cells[r][c])
			}
		}
	}

	var header strings.Builder
	var rule strings.Builder
	for i, col := range result.Columns {
		if i > 0 {
			header.WriteString("  ")
			rule.WriteString("  ")
		}
		header.WriteString(pad(col, widths[i]))
		rule.WriteString(strings.Repeat("-", widths[i]))
	}
	fmt.Fprintln(w, header.String())
	fmt.Fprintln(w, rule.String())

	for _, row := range cells {
		var line strings.Builder
		for i, cell := range row {
			if i > 0 {
				line.WriteString("  ")
			}
			line.WriteString(pad(cell, widths[i]))
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}

	suffix := ""
	if result.Truncated {
		suffix = " (truncated at depth bound)"
	}
	fmt.Fprintf(w, "\n%d row(s) in %.2fms%s\n", result.RowCount, result.ExecutionTimeMs, suffix)
	return nil
}

// renderJSON writes a result as indented JSON.
func renderJSON(w io.Writer, result *query.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderCSV writes a result as CSV with a header row.
func renderCSV(w io.Writer, result *query.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return err
	}
	for _, row := range result.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	switch n := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", n)
	case string:
		return n
	}
	return fmt.Sprintf("%v", v)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
