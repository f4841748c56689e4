package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// report is a rendered result set with a fixed column order. JSON output
// serializes value instead of the flattened rows.
type report struct {
	columns []string
	rows    [][]any
	value   any
}

// render writes the report in the requested format (table, csv, or json).
func (rep *report) render(w io.Writer, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rep.value)
	case "csv":
		return renderCSV(w, rep.columns, rep.rows)
	default:
		renderTable(w, rep.columns, rep.rows)
		return nil
	}
}

func renderTable(w io.Writer, cols []string, rows [][]any) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(cols))
	for i, col := range cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = formatValue(cell)
		}
		t.AppendRow(tableRow)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderCSV(w io.Writer, cols []string, rows [][]any) error {
	_, _ = fmt.Fprintln(w, strings.Join(cols, ","))

	for _, row := range rows {
		values := make([]string, len(row))
		for i, cell := range row {
			values[i] = escapeCSV(formatValue(cell))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

// formatValue renders one cell. Nil pointers render as empty strings so
// undetermined freshness fields stay visually blank.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case *int:
		if val == nil {
			return ""
		}
		return fmt.Sprintf("%d", *val)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case *float64:
		if val == nil {
			return ""
		}
		return fmt.Sprintf("%.1f", *val)
	case float64:
		return fmt.Sprintf("%.2f", val)
	case bool:
		if val {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
