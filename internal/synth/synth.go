// Package synth implements stage 1: building a role-aware prompt from the
// routed tables, asking the language model for a query plan and cleaning
// the returned snippet.
package synth

import (
	"context"
	"fmt"
	"strings"

	"csvagent/internal/llm"
	"csvagent/internal/logging"
	"csvagent/internal/router"
	"csvagent/internal/table"
)

// Mode selects what the model is asked to produce.
type Mode string

const (
	// ModePlan requests the declarative query-plan dialect (default).
	ModePlan Mode = "plan"
	// ModeGo requests a raw Go snippet for the legacy yaegi executor.
	ModeGo Mode = "go"
)

// JoinKey is the shared key column joining the header and items tables.
const JoinKey = "CHAVE DE ACESSO"

// Synthesizer turns questions into snippets via the injected model client.
type Synthesizer struct {
	client llm.Client
	mode   Mode
}

// New creates a synthesizer.
func New(client llm.Client, mode Mode) *Synthesizer {
	if mode == "" {
		mode = ModePlan
	}
	return &Synthesizer{client: client, mode: mode}
}

// Mode returns the configured snippet mode.
func (s *Synthesizer) Mode() Mode { return s.mode }

// Synthesize builds the prompt for the routed tables, invokes the model
// once and returns the cleaned snippet. A model failure is returned as an
// error so the orchestrator can short-circuit; there is no disguised
// error-string snippet.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, a router.Assignment, store *table.Store) (string, error) {
	timer := logging.StartTimer(logging.CategorySynth, "synthesize")
	defer timer.Stop()

	prompt := s.buildPrompt(question, a, store)
	logging.SynthDebug("prompt built (%d chars) for bindings %v", len(prompt), a.Bindings())

	raw, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("model call failed: %w", err)
	}
	cleaned := Clean(raw)
	logging.Synth("snippet synthesized (%d lines)", strings.Count(cleaned, "\n")+1)
	return cleaned, nil
}

func (s *Synthesizer) buildPrompt(question string, a router.Assignment, store *table.Store) string {
	var b strings.Builder

	if len(a.Chosen) == 1 {
		t, _ := store.Get(a.Chosen[0])
		b.WriteString("Você é um especialista que traduz perguntas sobre dados tabulares em um pequeno plano de consulta.\n\n")
		b.WriteString("INFORMAÇÕES DO DATASET:\n")
		b.WriteString("- Tabela disponível: df\n")
		fmt.Fprintf(&b, "- Colunas: %s\n\n", schemaList(t))
	} else {
		header, _ := store.Get(a.Header)
		detail, _ := store.Get(a.Detail)
		b.WriteString("Você é um especialista que traduz perguntas sobre dados tabulares em um pequeno plano de consulta.\n\n")
		b.WriteString("INFORMAÇÕES DOS DATASETS:\n")
		fmt.Fprintf(&b, "1. Tabela df_cabecalho (do arquivo '%s'):\n   - Colunas: %s\n", a.Header, schemaList(header))
		fmt.Fprintf(&b, "2. Tabela df_itens (do arquivo '%s'):\n   - Colunas: %s\n", a.Detail, schemaList(detail))
		fmt.Fprintf(&b, "Coluna em comum para junção: \"%s\"\n\n", JoinKey)
	}

	if s.mode == ModeGo {
		b.WriteString(goRules)
	} else {
		b.WriteString(planGrammar)
		b.WriteString(planRules)
	}

	if len(a.Chosen) == 1 {
		if s.mode == ModeGo {
			b.WriteString(goExamplesSingle)
		} else {
			b.WriteString(planExamplesSingle)
		}
	} else {
		if s.mode == ModeGo {
			b.WriteString(goExamplePair)
		} else {
			b.WriteString(planExamplePair)
		}
	}

	fmt.Fprintf(&b, "\n---\nPERGUNTA REAL DO USUÁRIO: \"%s\"\n\n", question)
	if s.mode == ModeGo {
		b.WriteString("CÓDIGO GO (siga o gabarito mais parecido com a pergunta real):\n")
	} else {
		b.WriteString("PLANO (siga o gabarito mais parecido com a pergunta real):\n")
	}
	return b.String()
}

// Clean strips model decoration around the snippet, in this order: a
// leading code fence (with or without a language tag), stray single
// backticks, then a trailing code fence.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "`") {
		s = strings.TrimSpace(strings.Trim(s, "`"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func schemaList(t *table.Table) string {
	quoted := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
