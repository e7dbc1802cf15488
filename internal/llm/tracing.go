package llm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"csvagent/internal/logging"
)

// Trace captures one LLM round-trip for observability and later analysis.
type Trace struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"` // "synthesize" or "compose"
	Prompt     string    `json:"prompt"`
	Response   string    `json:"response"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// TraceStore persists traces. The SQLite implementation lives in
// internal/store; tests use in-memory fakes.
type TraceStore interface {
	StoreTrace(trace *Trace) error
}

// TracingClient wraps a Client and records every interaction. Storage
// failures are logged, never surfaced: tracing must not break a question.
type TracingClient struct {
	underlying Client
	store      TraceStore

	mu    sync.RWMutex
	stage string
}

// NewTracingClient creates a tracing wrapper around an existing client.
func NewTracingClient(underlying Client, store TraceStore) *TracingClient {
	return &TracingClient{underlying: underlying, store: store}
}

// SetStage labels subsequent calls with the pipeline stage issuing them.
func (tc *TracingClient) SetStage(stage string) {
	tc.mu.Lock()
	tc.stage = stage
	tc.mu.Unlock()
}

// Complete delegates and records the round-trip.
func (tc *TracingClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem delegates and records the round-trip.
func (tc *TracingClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	tc.mu.RLock()
	stage := tc.stage
	tc.mu.RUnlock()

	start := time.Now()
	response, err := tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	elapsed := time.Since(start)

	trace := &Trace{
		ID:         uuid.NewString(),
		Stage:      stage,
		Prompt:     userPrompt,
		Response:   response,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  start,
	}
	if err != nil {
		trace.Error = err.Error()
		logging.API("stage=%s failed after %v: %v", stage, elapsed, err)
	} else {
		logging.API("stage=%s ok in %v (%d chars)", stage, elapsed, len(response))
	}

	if tc.store != nil {
		if serr := tc.store.StoreTrace(trace); serr != nil {
			logging.StoreError("trace persist failed: %v", serr)
		}
	}
	return response, err
}
