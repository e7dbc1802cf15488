// Package query defines the small declarative plan dialect the language
// model is asked to emit, and the interpreter that runs plans against
// in-memory tables. Restricting stage 2 to this algebra (filter, group,
// aggregate, sort, limit, join-on-key) means generated "code" can never
// touch the file system, the network or the process.
package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq       Op = "=="
	OpNe       Op = "!="
	OpGt       Op = ">"
	OpLt       Op = "<"
	OpGe       Op = ">="
	OpLe       Op = "<="
	OpContains Op = "contains"
)

// AggFn is an aggregate function name.
type AggFn string

const (
	AggCount AggFn = "count"
	AggSum   AggFn = "sum"
	AggAvg   AggFn = "avg"
	AggMin   AggFn = "min"
	AggMax   AggFn = "max"
)

// JoinStep joins the working frame with another binding on a shared key.
type JoinStep struct {
	Binding string
	Key     string
}

// FilterStep keeps rows whose column compares true against a literal.
// Multiple filters are AND-ed in plan order.
type FilterStep struct {
	Column string
	Op     Op
	Value  any // float64 or string
}

// GroupStep groups by one column and aggregates another.
type GroupStep struct {
	By  string
	Fn  AggFn
	Col string
}

// AggStep computes one scalar over the working frame. Col is empty for a
// plain row count.
type AggStep struct {
	Fn  AggFn
	Col string
}

// PickStep selects the single row holding the max or min of a column.
type PickStep struct {
	Max bool
	Col string
}

// SortStep orders the frame by a column. The pseudo-column "valor" (or
// "value") refers to the aggregate column of a grouped frame.
type SortStep struct {
	Column string
	Desc   bool
}

// Plan is one parsed query plan. Slots are optional except From; Answer
// holds the template the final `resultado = "..."` line assigns.
type Plan struct {
	From      string
	Join      *JoinStep
	Filters   []FilterStep
	Group     *GroupStep
	Agg       *AggStep
	Pick      *PickStep
	Sort      *SortStep
	Limit     int // 0 means no limit
	Answer    string
	HasAnswer bool

	// Text is the cleaned plan source, kept for diagnostics.
	Text string
}

var answerRe = regexp.MustCompile(`(?i)^resultado\s*=\s*(.+)$`)

var aggAliases = map[string]AggFn{
	"count": AggCount, "contagem": AggCount,
	"sum": AggSum, "soma": AggSum,
	"avg": AggAvg, "media": AggAvg, "média": AggAvg,
	"min": AggMin, "max": AggMax,
}

var opAliases = map[string]Op{
	"==": OpEq, "=": OpEq, "!=": OpNe, "<>": OpNe,
	">": OpGt, "<": OpLt, ">=": OpGe, "<=": OpLe,
	"contains": OpContains, "contém": OpContains, "contem": OpContains,
}

// Parse turns cleaned plan text into a Plan. Identifiers containing spaces
// must be double-quoted. Line numbers in errors are 1-based over non-empty
// lines of the original text.
func Parse(text string) (*Plan, error) {
	p := &Plan{Text: strings.TrimSpace(text)}
	seenFrom := false

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if m := answerRe.FindStringSubmatch(line); m != nil {
			tpl, err := unquoteTemplate(m[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			p.Answer = tpl
			p.HasAnswer = true
			continue
		}

		tokens, err := tokenize(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		if len(tokens) == 0 {
			continue
		}

		keyword := strings.ToLower(tokens[0])
		args := tokens[1:]
		if !seenFrom && keyword != "from" {
			return nil, fmt.Errorf("line %d: plan must start with a from step, got %q", n+1, keyword)
		}

		switch keyword {
		case "from":
			if seenFrom {
				return nil, fmt.Errorf("line %d: duplicate from step", n+1)
			}
			if len(args) != 1 {
				return nil, fmt.Errorf("line %d: from expects one binding name", n+1)
			}
			p.From = args[0]
			seenFrom = true

		case "join":
			// join <binding> on <key>
			if p.Join != nil {
				return nil, fmt.Errorf("line %d: duplicate join step", n+1)
			}
			if len(args) != 3 || strings.ToLower(args[1]) != "on" {
				return nil, fmt.Errorf("line %d: join expects: join <binding> on <key column>", n+1)
			}
			p.Join = &JoinStep{Binding: args[0], Key: args[2]}

		case "filter":
			if len(args) != 3 {
				return nil, fmt.Errorf("line %d: filter expects: filter <column> <op> <value>", n+1)
			}
			op, ok := opAliases[strings.ToLower(args[1])]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown operator %q", n+1, args[1])
			}
			p.Filters = append(p.Filters, FilterStep{Column: args[0], Op: op, Value: parseLiteral(args[2])})

		case "group":
			// group <by column> <agg> <value column>
			if p.Group != nil {
				return nil, fmt.Errorf("line %d: duplicate group step", n+1)
			}
			if len(args) != 3 {
				return nil, fmt.Errorf("line %d: group expects: group <column> <agg> <column>", n+1)
			}
			fn, ok := aggAliases[strings.ToLower(args[1])]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown aggregate %q", n+1, args[1])
			}
			p.Group = &GroupStep{By: args[0], Fn: fn, Col: args[2]}

		case "agg":
			if p.Agg != nil {
				return nil, fmt.Errorf("line %d: duplicate agg step", n+1)
			}
			if len(args) == 0 || len(args) > 2 {
				return nil, fmt.Errorf("line %d: agg expects: agg <fn> [column]", n+1)
			}
			fn, ok := aggAliases[strings.ToLower(args[0])]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown aggregate %q", n+1, args[0])
			}
			step := &AggStep{Fn: fn}
			if len(args) == 2 {
				step.Col = args[1]
			}
			if step.Col == "" && fn != AggCount {
				return nil, fmt.Errorf("line %d: aggregate %s needs a column", n+1, fn)
			}
			p.Agg = step

		case "pick":
			if p.Pick != nil {
				return nil, fmt.Errorf("line %d: duplicate pick step", n+1)
			}
			if len(args) != 2 {
				return nil, fmt.Errorf("line %d: pick expects: pick max|min <column>", n+1)
			}
			switch strings.ToLower(args[0]) {
			case "max":
				p.Pick = &PickStep{Max: true, Col: args[1]}
			case "min":
				p.Pick = &PickStep{Max: false, Col: args[1]}
			default:
				return nil, fmt.Errorf("line %d: pick expects max or min, got %q", n+1, args[0])
			}

		case "sort":
			if p.Sort != nil {
				return nil, fmt.Errorf("line %d: duplicate sort step", n+1)
			}
			if len(args) == 0 || len(args) > 2 {
				return nil, fmt.Errorf("line %d: sort expects: sort <column> [asc|desc]", n+1)
			}
			step := &SortStep{Column: args[0]}
			if len(args) == 2 {
				switch strings.ToLower(args[1]) {
				case "asc":
				case "desc":
					step.Desc = true
				default:
					return nil, fmt.Errorf("line %d: sort direction must be asc or desc, got %q", n+1, args[1])
				}
			}
			p.Sort = step

		case "limit":
			if len(args) != 1 {
				return nil, fmt.Errorf("line %d: limit expects one number", n+1)
			}
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return nil, fmt.Errorf("line %d: limit expects a positive integer, got %q", n+1, args[0])
			}
			p.Limit = v

		default:
			return nil, fmt.Errorf("line %d: unknown step %q", n+1, keyword)
		}
	}

	if !seenFrom {
		return nil, fmt.Errorf("plan has no from step")
	}
	return p, nil
}

// tokenize splits a plan line on whitespace, keeping double-quoted spans
// (column names routinely contain spaces) as single tokens.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	hasToken := false

	flush := func() {
		if hasToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			hasToken = false
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			hasToken = true
		case !inQuote && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
			hasToken = true
		}
	}
	if inQuote {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	flush()
	return tokens, nil
}

// unquoteTemplate interprets the right-hand side of a resultado assignment.
// Quoted templates get escape handling (\n, \"); bare text is taken as-is.
func unquoteTemplate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) >= 2 {
		if unq, err := strconv.Unquote(s); err == nil {
			return unq, nil
		}
		// Templates with inner quotes the model forgot to escape.
		return s[1 : len(s)-1], nil
	}
	if s == "" {
		return "", fmt.Errorf("resultado assignment is empty")
	}
	return s, nil
}

// parseLiteral reads a filter literal: numerals become float64.
func parseLiteral(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
