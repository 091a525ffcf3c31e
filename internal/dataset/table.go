package dataset

import (
	"slices"
	"strings"
)

// Row is one CSV record keyed by column name
type Row map[string]string

// Get returns the trimmed value of the first non-blank column among keys
func (r Row) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// Clone returns a shallow copy of the row
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered header plus its rows
type Table struct {
	Header []string
	Rows   []Row
}

// NewTable creates an empty table with the given header
func NewTable(header ...string) *Table {
	return &Table{Header: slices.Clone(header)}
}

// HasColumn reports whether name is part of the header
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Header, name)
}

// EnsureColumn appends name to the header when it is missing
func (t *Table) EnsureColumn(name string) {
	if !t.HasColumn(name) {
		t.Header = append(t.Header, name)
	}
}

// Append adds a row, extending the header with any unknown columns in
// sorted order
func (t *Table) Append(row Row) {
	var unknown []string
	for k := range row {
		if !t.HasColumn(k) {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	t.Header = append(t.Header, unknown...)
	t.Rows = append(t.Rows, row)
}

// Column returns every value of a column in row order
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// DropEmptyColumns removes columns that are blank in every row
func (t *Table) DropEmptyColumns() []string {
	var keep, dropped []string
	for _, col := range t.Header {
		nonEmpty := false
		for _, r := range t.Rows {
			if strings.TrimSpace(r[col]) != "" {
				nonEmpty = true
				break
			}
		}
		if nonEmpty {
			keep = append(keep, col)
		} else {
			dropped = append(dropped, col)
		}
	}
	for _, r := range t.Rows {
		for _, col := range dropped {
			delete(r, col)
		}
	}
	t.Header = keep
	return dropped
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}
