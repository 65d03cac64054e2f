// Package retrieval turns a question into a reduced data subset: it builds the
// schema context for the planner, parses the planner's untrusted output and
// applies the resulting plan to the cached tables.
package retrieval

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is a parsed delimited-text source with a header row.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseTable reads text as CSV. Quotes are parsed leniently, rows may have any
// width and header names are trimmed. Blank lines are skipped.
func ParseTable(text string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	return &Table{Headers: headers, Rows: records[1:]}, nil
}

// Column returns the index of name, preferring an exact header match and
// falling back to a case-insensitive one. It returns -1 when absent.
func (t *Table) Column(name string) int {
	name = strings.TrimSpace(name)
	for i, h := range t.Headers {
		if h == name {
			return i
		}
	}
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// Cell returns the field at col and whether the row has it.
func Cell(row []string, col int) (string, bool) {
	if col < 0 || col >= len(row) {
		return "", false
	}
	return row[col], true
}

// Encode writes the header row followed by rows as CSV.
func (t *Table) Encode(rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.Headers)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String()
}
