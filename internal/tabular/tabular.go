// Package tabular reads and writes the comma-delimited text format used for
// uploaded order files and for query engine result objects.
//
// The format is deliberately naive: fields are split on every comma and a
// single pair of surrounding double quotes is stripped from each field. There
// is no escaping, so values containing commas or quotes do not round-trip.
package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"orders-lake/internal/domain"
)

// Table is a parsed document: a header line plus data rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Parse splits data into a header and rows. Blank lines are skipped and CRLF
// line endings are accepted. Every data row must have as many fields as the header.
func Parse(data []byte) (*Table, error) {
	lines := splitLines(data)
	if len(lines) == 0 {
		return nil, domain.ErrValidation("tabular: document has no header line")
	}

	t := &Table{
		Columns: splitFields(lines[0]),
		Rows:    make([][]string, 0, len(lines)-1),
	}
	for i, line := range lines[1:] {
		row := splitFields(line)
		if len(row) != len(t.Columns) {
			return nil, domain.ErrValidation("tabular: line %d has %d fields, header has %d", i+2, len(row), len(t.Columns))
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// ParseDataset parses data into a domain.Dataset.
func ParseDataset(data []byte) (*domain.Dataset, error) {
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return domain.NewDataset(t.Columns, t.Rows)
}

// Format writes columns and rows back to text, one line per row, newline terminated.
func Format(columns []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writeLine(&buf, columns)
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("tabular: row %d has %d fields, header has %d", i, len(row), len(columns))
		}
		writeLine(&buf, row)
	}
	return buf.Bytes(), nil
}

// FormatDataset writes ds in header order.
func FormatDataset(ds *domain.Dataset) ([]byte, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return Format(ds.Header, ds.Rows())
}

func writeLine(buf *bytes.Buffer, fields []string) {
	buf.WriteString(strings.Join(fields, ","))
	buf.WriteByte('\n')
}

func splitLines(data []byte) []string {
	raw := strings.Split(string(data), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func splitFields(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = unquote(p)
	}
	return parts
}

// unquote strips exactly one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
