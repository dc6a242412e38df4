package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// TableExporter renders aligned plain-text tables for terminals.
type TableExporter struct{}

// NewTableExporter builds a table exporter.
func NewTableExporter() *TableExporter {
	return &TableExporter{}
}

// Render writes an optional title line, a header row and one line per row.
func (e *TableExporter) Render(data Dataset) ([]byte, error) {
	buf := &bytes.Buffer{}
	if data.Title != "" {
		fmt.Fprintln(buf, data.Title)
	}
	if len(data.Headers) == 0 {
		return buf.Bytes(), nil
	}

	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(data.Headers, "\t")))
	for _, row := range data.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush table: %w", err)
	}
	if len(data.Rows) == 0 {
		fmt.Fprintln(buf, "(no rows)")
	}
	return buf.Bytes(), nil
}
