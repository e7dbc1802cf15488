package executor

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"csvagent/internal/table"
)

// The legacy mode interprets a model-written Go snippet with yaegi. The
// snippet is the body of a function; the package clause, imports and the
// Run signature come from this fixed wrapper, so the snippet can only
// reach the whitelisted packages below.
const goWrapper = `package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"csvagent/tables"
)

var (
	_ = fmt.Sprintf
	_ = math.Abs
	_ = sort.Strings
	_ = strconv.FormatFloat
	_ = strings.ToLower
	_ = tables.AsString
)

func Run(df, df_cabecalho, df_itens *tables.Table) (resultado string) {
%s
	return resultado
}
`

// forbiddenFragments are rejected before interpretation. The wrapper
// already limits what resolves, but refusing these outright gives a
// clearer failure than an interpreter error.
var forbiddenFragments = []string{
	"import ",
	"package ",
	"os.",
	"exec.",
	"net.",
	"http.",
	"syscall.",
	"unsafe.",
	"go func",
}

func (e *Executor) executeGo(ctx context.Context, snippet string, binds map[string]*table.Table) Outcome {
	if frag := scanForbidden(snippet); frag != "" {
		return failure(fmt.Sprintf("snippet uses forbidden construct %q", strings.TrimSpace(frag)), snippet, "")
	}

	fn, err := compileSnippet(snippet)
	if err != nil {
		return failure(err.Error(), snippet, "")
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type result struct {
		answer string
		err    error
		trace  string
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r), trace: string(debug.Stack())}
			}
		}()
		answer := fn(binds["df"], binds["df_cabecalho"], binds["df_itens"])
		done <- result{answer: answer}
	}()

	select {
	case <-ctx.Done():
		return failure(fmt.Sprintf("execution timed out after %s", e.timeout), snippet, "")
	case r := <-done:
		if r.err != nil {
			return failure(r.err.Error(), snippet, r.trace)
		}
		if r.answer == "" {
			return Outcome{Success: true, Result: ResultNotFound}
		}
		return Outcome{Success: true, Result: r.answer}
	}
}

// compileSnippet evaluates the wrapped snippet in a fresh interpreter and
// extracts the Run function. A fresh interpreter per call keeps snippets
// from observing each other's state.
func compileSnippet(snippet string) (func(df, cabecalho, itens *table.Table) string, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("interpreter setup failed: %w", err)
	}
	if err := i.Use(tableSymbols()); err != nil {
		return nil, fmt.Errorf("interpreter setup failed: %w", err)
	}

	body := "\t" + strings.ReplaceAll(strings.TrimSpace(snippet), "\n", "\n\t")
	if _, err := i.Eval(fmt.Sprintf(goWrapper, body)); err != nil {
		return nil, fmt.Errorf("snippet does not compile: %w", err)
	}

	v, err := i.Eval("main.Run")
	if err != nil {
		return nil, fmt.Errorf("snippet entry point missing: %w", err)
	}
	fn, ok := v.Interface().(func(*table.Table, *table.Table, *table.Table) string)
	if !ok {
		return nil, fmt.Errorf("snippet entry point has wrong type %T", v.Interface())
	}
	return fn, nil
}

// tableSymbols exposes the table package to interpreted snippets under the
// import path the wrapper uses.
func tableSymbols() interp.Exports {
	return interp.Exports{
		"csvagent/tables/tables": {
			"Table":    reflect.ValueOf((*table.Table)(nil)),
			"Row":      reflect.ValueOf((*table.Row)(nil)),
			"AsFloat":  reflect.ValueOf(table.AsFloat),
			"AsString": reflect.ValueOf(table.AsString),
		},
	}
}

func scanForbidden(snippet string) string {
	for _, frag := range forbiddenFragments {
		if strings.Contains(snippet, frag) {
			return frag
		}
	}
	return ""
}
