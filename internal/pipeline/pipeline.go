// Package pipeline orchestrates the four stages: routing, snippet
// synthesis, execution and response composition. Control never flows
// backward; each stage's output is the next stage's only input besides
// the original question.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"csvagent/internal/compose"
	"csvagent/internal/executor"
	"csvagent/internal/llm"
	"csvagent/internal/logging"
	"csvagent/internal/router"
	"csvagent/internal/synth"
	"csvagent/internal/table"
)

// Fixed user-facing messages for the short-circuit paths. No model call
// is made on any of them.
const (
	MsgUploadFirst  = "Por favor, carregue primeiro os arquivos CSV."
	MsgSynthesisErr = "Desculpe, não consegui gerar uma consulta para essa pergunta. Verifique se o serviço de modelo está disponível e tente novamente."
)

// Audit records everything observable about one answered question.
type Audit struct {
	ID        string
	Question  string
	Chosen    []string
	Detail    string
	Header    string
	Snippet   string
	Outcome   executor.Outcome
	Answer    string
	Timestamp time.Time
}

// Pipeline wires the stages together. It holds no per-question state and
// is safe to share across sessions.
type Pipeline struct {
	client llm.Client
	synth  *synth.Synthesizer
	exec   *executor.Executor
	comp   *compose.Composer
}

// New assembles a pipeline around one model client.
func New(client llm.Client, mode synth.Mode, execTimeout time.Duration) *Pipeline {
	return &Pipeline{
		client: client,
		synth:  synth.New(client, mode),
		exec:   executor.New(mode, execTimeout),
		comp:   compose.New(client),
	}
}

// stageSetter is implemented by tracing clients that label round-trips
// with the stage issuing them.
type stageSetter interface {
	SetStage(stage string)
}

func (p *Pipeline) setStage(stage string) {
	if s, ok := p.client.(stageSetter); ok {
		s.SetStage(stage)
	}
}

// Answer runs one question through the pipeline against the given table
// store and returns the final text plus the audit record. It never
// returns an error: every fault becomes answer text, per the error
// taxonomy.
func (p *Pipeline) Answer(ctx context.Context, question string, tables *table.Store) (string, *Audit) {
	audit := &Audit{
		ID:        uuid.NewString(),
		Question:  question,
		Timestamp: time.Now(),
	}

	if tables == nil || tables.Len() == 0 {
		audit.Answer = MsgUploadFirst
		return audit.Answer, audit
	}

	// Stage 0: routing. Pure decision logic, recomputed per question.
	a := router.Route(question, tables)
	if a.Kind == router.Unsupported {
		audit.Answer = fmt.Sprintf("Não foi possível responder: %s.", a.Reason)
		return audit.Answer, audit
	}
	audit.Chosen = a.Chosen
	audit.Detail = a.Detail
	audit.Header = a.Header

	// Stage 1: synthesis. A model failure short-circuits; stages 2 and 3
	// never see a disguised error-string snippet.
	p.setStage("synthesize")
	snippet, err := p.synth.Synthesize(ctx, question, a, tables)
	if err != nil {
		logging.Session("synthesis failed, short-circuiting: %v", err)
		audit.Outcome = executor.Outcome{Err: err.Error()}
		audit.Answer = MsgSynthesisErr
		return audit.Answer, audit
	}
	audit.Snippet = snippet

	// Stage 2: execution against the routed bindings only.
	audit.Outcome = p.exec.Execute(ctx, snippet, a, tables)

	// Stage 3: composition. Always returns text, never raises.
	p.setStage("compose")
	audit.Answer = p.comp.Compose(ctx, question, audit.Outcome)
	return audit.Answer, audit
}
