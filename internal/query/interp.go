package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"csvagent/internal/table"
)

// frame is the interpreter's working state while steps apply.
type frame struct {
	tab       *table.Table
	scalar    any  // set by agg
	hasScalar bool
	picked    table.Row // set by pick
	valueCol  string    // aggregate column name of a grouped frame
}

// Run executes a plan against the given bindings and renders its answer
// template. found is false when the plan never assigned resultado; the
// caller turns that into the fixed placeholder, not a failure.
func Run(p *Plan, binds map[string]*table.Table) (answer string, found bool, err error) {
	f, err := eval(p, binds)
	if err != nil {
		return "", false, err
	}
	if !p.HasAnswer {
		return "", false, nil
	}
	rendered, err := render(p.Answer, f)
	if err != nil {
		return "", false, err
	}
	return rendered, true, nil
}

func bindingNames(binds map[string]*table.Table) string {
	names := make([]string, 0, len(binds))
	for name := range binds {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func eval(p *Plan, binds map[string]*table.Table) (*frame, error) {
	tab, ok := binds[p.From]
	if !ok {
		return nil, fmt.Errorf("unknown binding %q (available: %s)", p.From, bindingNames(binds))
	}
	f := &frame{tab: tab}

	if p.Join != nil {
		right, ok := binds[p.Join.Binding]
		if !ok {
			return nil, fmt.Errorf("unknown binding %q (available: %s)", p.Join.Binding, bindingNames(binds))
		}
		joined, err := join(f.tab, right, p.Join.Key)
		if err != nil {
			return nil, err
		}
		f.tab = joined
	}

	for _, fl := range p.Filters {
		filtered, err := filter(f.tab, fl)
		if err != nil {
			return nil, err
		}
		f.tab = filtered
	}

	if p.Group != nil {
		grouped, valueCol, err := group(f.tab, *p.Group)
		if err != nil {
			return nil, err
		}
		f.tab = grouped
		f.valueCol = valueCol
	}

	if p.Agg != nil {
		v, err := aggregate(f.tab, *p.Agg)
		if err != nil {
			return nil, err
		}
		f.scalar = v
		f.hasScalar = true
	}

	if p.Pick != nil {
		row, err := pick(f.tab, *p.Pick)
		if err != nil {
			return nil, err
		}
		f.picked = row
	}

	if p.Sort != nil {
		sorted, err := sortRows(f.tab, *p.Sort, f.valueCol)
		if err != nil {
			return nil, err
		}
		f.tab = sorted
	}

	if p.Limit > 0 && p.Limit < f.tab.NumRows() {
		f.tab = table.New(f.tab.Name, f.tab.Columns, f.tab.Rows[:p.Limit])
	}
	return f, nil
}

// join inner-joins left and right on the key column, suffixing colliding
// column names with _x (left) and _y (right), pandas style.
func join(left, right *table.Table, key string) (*table.Table, error) {
	if !left.HasColumn(key) {
		return nil, fmt.Errorf("join key %q missing from table %q", key, left.Name)
	}
	if !right.HasColumn(key) {
		return nil, fmt.Errorf("join key %q missing from table %q", key, right.Name)
	}

	collides := make(map[string]bool)
	for _, c := range left.Columns {
		if c != key && right.HasColumn(c) {
			collides[c] = true
		}
	}

	columns := []string{key}
	leftName := func(c string) string {
		if collides[c] {
			return c + "_x"
		}
		return c
	}
	rightName := func(c string) string {
		if collides[c] {
			return c + "_y"
		}
		return c
	}
	for _, c := range left.Columns {
		if c != key {
			columns = append(columns, leftName(c))
		}
	}
	for _, c := range right.Columns {
		if c != key {
			columns = append(columns, rightName(c))
		}
	}

	index := make(map[string][]table.Row)
	for _, r := range right.Rows {
		k := table.AsString(r[key])
		index[k] = append(index[k], r)
	}

	var rows []table.Row
	for _, lr := range left.Rows {
		for _, rr := range index[table.AsString(lr[key])] {
			row := make(table.Row, len(columns))
			row[key] = lr[key]
			for _, c := range left.Columns {
				if c != key {
					row[leftName(c)] = lr[c]
				}
			}
			for _, c := range right.Columns {
				if c != key {
					row[rightName(c)] = rr[c]
				}
			}
			rows = append(rows, row)
		}
	}
	name := left.Name + "+" + right.Name
	return table.New(name, columns, rows), nil
}

func filter(t *table.Table, fl FilterStep) (*table.Table, error) {
	if !t.HasColumn(fl.Column) {
		return nil, fmt.Errorf("filter column %q missing from table %q", fl.Column, t.Name)
	}
	var rows []table.Row
	for _, r := range t.Rows {
		keep, err := matches(r[fl.Column], fl.Op, fl.Value)
		if err != nil {
			return nil, err
		}
		if keep {
			rows = append(rows, r)
		}
	}
	return table.New(t.Name, t.Columns, rows), nil
}

func matches(v any, op Op, literal any) (bool, error) {
	if op == OpContains {
		return strings.Contains(
			strings.ToLower(table.AsString(v)),
			strings.ToLower(table.AsString(literal)),
		), nil
	}
	c := compareValues(v, literal)
	switch op {
	case OpEq:
		return c == 0, nil
	case OpNe:
		return c != 0, nil
	case OpGt:
		return c > 0, nil
	case OpLt:
		return c < 0, nil
	case OpGe:
		return c >= 0, nil
	case OpLe:
		return c <= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", op)
	}
}

// group aggregates Col per distinct By value. The output frame has two
// columns: By and "<fn>(<col>)", in first-seen group order.
func group(t *table.Table, g GroupStep) (*table.Table, string, error) {
	if !t.HasColumn(g.By) {
		return nil, "", fmt.Errorf("group column %q missing from table %q", g.By, t.Name)
	}
	if g.Fn != AggCount && !t.HasColumn(g.Col) {
		return nil, "", fmt.Errorf("aggregate column %q missing from table %q", g.Col, t.Name)
	}

	type bucket struct {
		sum   float64
		count int
		min   float64
		max   float64
	}
	var order []string
	buckets := make(map[string]*bucket)

	for _, r := range t.Rows {
		key := table.AsString(r[g.By])
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		if g.Fn == AggCount {
			b.count++
			continue
		}
		v, ok := table.AsFloat(r[g.Col])
		if !ok {
			continue // nulls and text don't contribute, like pandas
		}
		if b.count == 0 || v < b.min {
			b.min = v
		}
		if b.count == 0 || v > b.max {
			b.max = v
		}
		b.sum += v
		b.count++
	}

	valueCol := fmt.Sprintf("%s(%s)", g.Fn, g.Col)
	if g.Fn == AggCount {
		valueCol = "count(*)"
	}

	rows := make([]table.Row, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		var v float64
		switch g.Fn {
		case AggCount:
			v = float64(b.count)
		case AggSum:
			v = b.sum
		case AggAvg:
			if b.count > 0 {
				v = b.sum / float64(b.count)
			}
		case AggMin:
			v = b.min
		case AggMax:
			v = b.max
		}
		rows = append(rows, table.Row{g.By: key, valueCol: v})
	}
	return table.New(t.Name, []string{g.By, valueCol}, rows), valueCol, nil
}

func aggregate(t *table.Table, a AggStep) (any, error) {
	if a.Fn == AggCount && a.Col == "" {
		return float64(t.NumRows()), nil
	}
	if !t.HasColumn(a.Col) {
		return nil, fmt.Errorf("aggregate column %q missing from table %q", a.Col, t.Name)
	}

	var sum, min, max float64
	count := 0
	for _, r := range t.Rows {
		v, ok := table.AsFloat(r[a.Col])
		if !ok {
			if a.Fn == AggCount && r[a.Col] != nil {
				count++
			}
			continue
		}
		if count == 0 || v < min {
			min = v
		}
		if count == 0 || v > max {
			max = v
		}
		sum += v
		count++
	}

	switch a.Fn {
	case AggCount:
		return float64(count), nil
	case AggSum:
		return sum, nil
	case AggAvg:
		if count == 0 {
			return nil, fmt.Errorf("column %q has no numeric values to average", a.Col)
		}
		return sum / float64(count), nil
	case AggMin:
		if count == 0 {
			return nil, fmt.Errorf("column %q has no numeric values", a.Col)
		}
		return min, nil
	case AggMax:
		if count == 0 {
			return nil, fmt.Errorf("column %q has no numeric values", a.Col)
		}
		return max, nil
	default:
		return nil, fmt.Errorf("unsupported aggregate %q", a.Fn)
	}
}

func pick(t *table.Table, p PickStep) (table.Row, error) {
	if !t.HasColumn(p.Col) {
		return nil, fmt.Errorf("pick column %q missing from table %q", p.Col, t.Name)
	}
	best := -1
	var bestVal float64
	for i, r := range t.Rows {
		v, ok := table.AsFloat(r[p.Col])
		if !ok {
			continue
		}
		if best == -1 || (p.Max && v > bestVal) || (!p.Max && v < bestVal) {
			best, bestVal = i, v
		}
	}
	if best == -1 {
		return nil, fmt.Errorf("column %q has no numeric values to pick from", p.Col)
	}
	return t.Rows[best], nil
}

func sortRows(t *table.Table, s SortStep, valueCol string) (*table.Table, error) {
	col := s.Column
	if (strings.EqualFold(col, "valor") || strings.EqualFold(col, "value")) && valueCol != "" {
		col = valueCol
	}
	if !t.HasColumn(col) {
		return nil, fmt.Errorf("sort column %q missing from table %q", col, t.Name)
	}
	rows := make([]table.Row, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i][col], rows[j][col])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	return table.New(t.Name, t.Columns, rows), nil
}

// compareValues orders two cells numerically when both coerce to float,
// lexically otherwise. Nil sorts first.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	fa, oka := table.AsFloat(a)
	fb, okb := table.AsFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(table.AsString(a), table.AsString(b))
}

var placeholderRe = regexp.MustCompile(`\{(value|valor|count|rows|row\.[^}]+)\}`)

// render fills the answer template from the final frame.
//
//	{value}     scalar aggregate, or the picked row's column, or row count
//	{count}     row count of the final frame
//	{rows}      one "col: col" line per row of the final frame
//	{row.NAME}  column NAME of the picked (or first) row
func render(tpl string, f *frame) (string, error) {
	var renderErr error
	out := placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, err := placeholder(name, f)
		if err != nil && renderErr == nil {
			renderErr = err
		}
		return v
	})
	return out, renderErr
}

func placeholder(name string, f *frame) (string, error) {
	switch {
	case name == "value" || name == "valor":
		if f.hasScalar {
			return table.AsString(f.scalar), nil
		}
		if f.picked != nil {
			return "", fmt.Errorf("template {value} is ambiguous after pick; use {row.COLUNA}")
		}
		return strconv.Itoa(f.tab.NumRows()), nil

	case name == "count":
		return strconv.Itoa(f.tab.NumRows()), nil

	case name == "rows":
		return renderRows(f.tab), nil

	default: // row.NAME
		col := strings.TrimPrefix(name, "row.")
		row := f.picked
		if row == nil {
			if f.tab.NumRows() == 0 {
				return "", fmt.Errorf("template references {row.%s} but the result has no rows", col)
			}
			row = f.tab.Rows[0]
		}
		v, ok := row[col]
		if !ok {
			return "", fmt.Errorf("template references unknown column %q", col)
		}
		return table.AsString(v), nil
	}
}

func renderRows(t *table.Table) string {
	var b strings.Builder
	for i, r := range t.Rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, c := range t.Columns {
			if j > 0 {
				b.WriteString(": ")
			}
			b.WriteString(table.AsString(r[c]))
		}
	}
	return b.String()
}
