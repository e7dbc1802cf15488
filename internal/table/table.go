// Package table holds the in-memory tabular substrate the pipeline reads:
// immutable named Tables loaded from CSV files and the per-session Store
// that maps table names to Tables.
package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Row maps a column name to a scalar cell value: string, float64 or nil.
type Row map[string]any

// Table is a named, rectangular dataset. Every row shares the table's
// column set. Tables are never mutated after load; derived views (joins,
// aggregations) are new Tables.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New builds a table from a header and pre-parsed rows.
func New(name string, columns []string, rows []Row) *Table {
	return &Table{Name: name, Columns: columns, Rows: rows}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// HasColumn reports whether the schema contains the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns every value of the named column in row order.
func (t *Table) Column(name string) ([]any, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("table %q has no column %q", t.Name, name)
	}
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out, nil
}

// AsFloat coerces a cell value to float64. Strings are parsed with a dot
// decimal separator, matching how the loader leaves non-numeric text alone.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders a cell value for display. Floats use the shortest exact
// representation so 3.0 prints as "3" and 1234.5 as "1234.5".
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// Store maps table names to loaded Tables for one session. It is built
// once per upload and replaced wholesale on the next upload, never merged.
type Store struct {
	order  []string
	tables map[string]*Table
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Replace discards every previously loaded table and installs the given
// set atomically. Load order is preserved for listing.
func (s *Store) Replace(tables []*Table) {
	s.order = s.order[:0]
	s.tables = make(map[string]*Table, len(tables))
	for _, t := range tables {
		if _, dup := s.tables[t.Name]; dup {
			continue
		}
		s.order = append(s.order, t.Name)
		s.tables[t.Name] = t
	}
}

// Get looks up a table by name.
func (s *Store) Get(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names lists table names in load order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of loaded tables.
func (s *Store) Len() int { return len(s.order) }
