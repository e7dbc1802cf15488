package table

import "strings"

// Stats summarizes one table for the inspection surface.
type Stats struct {
	TotalRows      int
	TotalColumns   int
	NumericColumns int
	TextColumns    int
	NullValues     int
	DuplicateRows  int
}

// ColumnInfo describes one column: inferred kind, cardinality and an
// example value to help users map questions onto schemas.
type ColumnInfo struct {
	Name     string
	Kind     string // "numérica" or "texto"
	Distinct int
	Nulls    int
	Example  string
}

// Summarize computes quick statistics without touching the pipeline.
func Summarize(t *Table) Stats {
	s := Stats{TotalRows: t.NumRows(), TotalColumns: t.NumColumns()}

	for _, col := range t.Columns {
		if columnIsNumeric(t, col) {
			s.NumericColumns++
		} else {
			s.TextColumns++
		}
	}

	seen := make(map[string]bool, len(t.Rows))
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			if row[col] == nil {
				s.NullValues++
			}
		}
		fp := fingerprint(t.Columns, row)
		if seen[fp] {
			s.DuplicateRows++
		}
		seen[fp] = true
	}
	return s
}

// AnalyzeColumns builds per-column details in schema order.
func AnalyzeColumns(t *Table) []ColumnInfo {
	out := make([]ColumnInfo, 0, len(t.Columns))
	for _, col := range t.Columns {
		info := ColumnInfo{Name: col, Kind: "texto"}
		if columnIsNumeric(t, col) {
			info.Kind = "numérica"
		}
		distinct := make(map[string]bool)
		for _, row := range t.Rows {
			v := row[col]
			if v == nil {
				info.Nulls++
				continue
			}
			distinct[AsString(v)] = true
			if info.Example == "" {
				info.Example = AsString(v)
			}
		}
		info.Distinct = len(distinct)
		out = append(out, info)
	}
	return out
}

// columnIsNumeric holds when every non-null cell is a float64 and at
// least one such cell exists.
func columnIsNumeric(t *Table, col string) bool {
	seen := false
	for _, row := range t.Rows {
		switch row[col].(type) {
		case nil:
		case float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}

func fingerprint(columns []string, row Row) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = AsString(row[c])
	}
	return strings.Join(parts, "\x1f")
}
