package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Dataset {
	d := Dataset{Title: "Top students", Headers: []string{"student_id", "student_name", "avg_grade"}}
	d.Append("2", "Bob", "91.50")
	d.Append("1", "Ann, Jr.", "85.00")
	return d
}

func TestAppendPadsRows(t *testing.T) {
	d := Dataset{Headers: []string{"a", "b"}}
	d.Append("x")
	d.Append("1", "2", "3")
	assert.Equal(t, [][]string{{"x", ""}, {"1", "2"}}, d.Rows)
}

func TestTableExporterAlignsColumns(t *testing.T) {
	out, err := NewTableExporter().Render(sample())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Top students", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "STUDENT_ID"))
	assert.Equal(t, strings.Index(lines[1], "STUDENT_NAME"), strings.Index(lines[2], "Bob"))
}

func TestTableExporterEmpty(t *testing.T) {
	out, err := NewTableExporter().Render(Dataset{Headers: []string{"id"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "(no rows)")
}

func TestCSVExporterQuotes(t *testing.T) {
	out, err := NewCSVExporter().Render(sample())
	require.NoError(t, err)
	assert.Equal(t, "student_id,student_name,avg_grade\n2,Bob,91.50\n1,\"Ann, Jr.\",85.00\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestJSONExporterKeysByHeader(t *testing.T) {
	out, err := NewJSONExporter().Render(sample())
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(out, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Bob", records[0]["student_name"])
	assert.Equal(t, "85.00", records[1]["avg_grade"])
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestForFormat(t *testing.T) {
	for format, want := range map[string]Renderer{
		"":      &TableExporter{},
		"table": &TableExporter{},
		"JSON":  &JSONExporter{},
		"csv":   &CSVExporter{},
		"pdf":   &PDFExporter{},
	} {
		got, err := ForFormat(format)
		require.NoError(t, err, format)
		assert.IsType(t, want, got, format)
	}
	_, err := ForFormat("xml")
	assert.Error(t, err)
	assert.True(t, Binary("pdf"))
	assert.False(t, Binary("csv"))
}
