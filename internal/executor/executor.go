// Package executor implements stage 2: running a synthesized snippet
// against the routed tables and capturing a result or a failure. The
// default mode interprets the declarative plan dialect, so generated
// snippets have no file system, network or process surface at all. A
// legacy mode interpreting raw Go via yaegi exists behind configuration.
package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"csvagent/internal/logging"
	"csvagent/internal/query"
	"csvagent/internal/router"
	"csvagent/internal/synth"
	"csvagent/internal/table"
)

// ResultNotFound is the fixed placeholder used when a snippet ran to
// completion without assigning the designated result binding. By contract
// this is a success, not a failure.
const ResultNotFound = "Plano executado, mas a variável resultado não foi definida."

// Outcome is the tagged result of executing one snippet.
type Outcome struct {
	Success    bool
	Result     string // set on success, always a string by contract
	Err        string // set on failure
	Diagnostic string // full trace for the audit record, never user-facing
}

// Executor evaluates snippets in an isolated context bound only to the
// tables the router resolved.
type Executor struct {
	mode    synth.Mode
	timeout time.Duration
}

// New creates an executor. A zero timeout disables the per-snippet
// deadline (the plan interpreter cannot block anyway; the deadline exists
// for the yaegi mode).
func New(mode synth.Mode, timeout time.Duration) *Executor {
	if mode == "" {
		mode = synth.ModePlan
	}
	return &Executor{mode: mode, timeout: timeout}
}

// Execute runs one snippet. Any fault (parse error, unknown column,
// interpreter panic) is recovered into a failure Outcome and never
// propagates past this package.
func (e *Executor) Execute(ctx context.Context, snippet string, a router.Assignment, store *table.Store) Outcome {
	timer := logging.StartTimer(logging.CategoryExec, "execute")
	defer timer.Stop()

	binds, err := resolveBindings(a, store)
	if err != nil {
		return failure(err.Error(), snippet, "")
	}

	if e.mode == synth.ModeGo {
		return e.executeGo(ctx, snippet, binds)
	}
	return e.executePlan(snippet, binds)
}

func (e *Executor) executePlan(snippet string, binds map[string]*table.Table) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failure(fmt.Sprintf("panic: %v", r), snippet, string(debug.Stack()))
		}
	}()

	plan, err := query.Parse(snippet)
	if err != nil {
		return failure(err.Error(), snippet, "")
	}

	answer, found, err := query.Run(plan, binds)
	if err != nil {
		return failure(err.Error(), snippet, "")
	}
	if !found {
		logging.Exec("plan completed without a resultado assignment")
		return Outcome{Success: true, Result: ResultNotFound}
	}
	logging.Exec("plan completed (%d chars)", len(answer))
	return Outcome{Success: true, Result: answer}
}

// resolveBindings maps the conventional binding names to loaded tables
// using the router's resolved names.
func resolveBindings(a router.Assignment, store *table.Store) (map[string]*table.Table, error) {
	names := a.Bindings()
	if len(names) == 0 {
		return nil, fmt.Errorf("no tables routed for execution")
	}
	binds := make(map[string]*table.Table, len(names))
	for binding, tableName := range names {
		t, ok := store.Get(tableName)
		if !ok {
			return nil, fmt.Errorf("routed table %q is not loaded", tableName)
		}
		binds[binding] = t
	}
	return binds, nil
}

func failure(msg, snippet, trace string) Outcome {
	var d strings.Builder
	d.WriteString("snippet:\n")
	d.WriteString(snippet)
	d.WriteString("\nerror: ")
	d.WriteString(msg)
	if trace != "" {
		d.WriteString("\n")
		d.WriteString(trace)
	}
	logging.Exec("execution failed: %s", msg)
	return Outcome{Err: msg, Diagnostic: d.String()}
}
