package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvagent/internal/store"
	"csvagent/internal/synth"
	"csvagent/internal/table"
)

// scriptedClient answers the synthesis prompt with a canned plan and the
// composition prompt with a canned sentence, recording call order.
type scriptedClient struct {
	plan       string
	sentence   string
	synthErr   error
	composeErr error
	calls      []string
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "PLANO (siga o gabarito") || strings.Contains(prompt, "CÓDIGO GO") {
		c.calls = append(c.calls, "synthesize")
		return c.plan, c.synthErr
	}
	c.calls = append(c.calls, "compose")
	return c.sentence, c.composeErr
}

func (c *scriptedClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return c.Complete(ctx, user)
}

func singleTableStore(rows int) *table.Store {
	s := table.NewStore()
	rs := make([]table.Row, rows)
	for i := range rs {
		rs[i] = table.Row{"PRODUTO": "p", "VALOR": float64(i + 1)}
	}
	s.Replace([]*table.Table{table.New("orders.csv", []string{"PRODUTO", "VALOR"}, rs)})
	return s
}

func TestAnswerEmptyStoreShortCircuits(t *testing.T) {
	client := &scriptedClient{}
	p := New(client, synth.ModePlan, 0)

	answer, audit := p.Answer(context.Background(), "Quantas linhas?", table.NewStore())

	assert.Equal(t, MsgUploadFirst, answer)
	assert.Empty(t, client.calls, "no model calls on empty store")
	assert.Equal(t, MsgUploadFirst, audit.Answer)
}

func TestAnswerUnsupportedStoreEmbedsReason(t *testing.T) {
	s := table.NewStore()
	s.Replace([]*table.Table{
		table.New("a.csv", []string{"X"}, nil),
		table.New("b.csv", []string{"X"}, nil),
		table.New("c.csv", []string{"X"}, nil),
	})
	client := &scriptedClient{}
	p := New(client, synth.ModePlan, 0)

	answer, _ := p.Answer(context.Background(), "pergunta", s)

	assert.Contains(t, answer, "1 ou 2 arquivos")
	assert.Empty(t, client.calls)
}

func TestAnswerEndToEndCount(t *testing.T) {
	client := &scriptedClient{
		plan:     "from df\nagg count\nresultado = \"A contagem de linhas é {value}.\"",
		sentence: "Existem 3 linhas no arquivo.",
	}
	p := New(client, synth.ModePlan, 0)

	answer, audit := p.Answer(context.Background(), "Quantas linhas existem?", singleTableStore(3))

	assert.Equal(t, "Existem 3 linhas no arquivo.", answer)
	assert.Contains(t, answer, "3")
	assert.Equal(t, []string{"synthesize", "compose"}, client.calls)

	assert.Equal(t, []string{"orders.csv"}, audit.Chosen)
	assert.Equal(t, client.plan, audit.Snippet)
	require.True(t, audit.Outcome.Success)
	assert.Equal(t, "A contagem de linhas é 3.", audit.Outcome.Result)
}

func TestAnswerPairRoutesDetailTable(t *testing.T) {
	s := table.NewStore()
	headerRows := []table.Row{{"K": "1"}, {"K": "2"}}
	itemRows := make([]table.Row, 10)
	for i := range itemRows {
		itemRows[i] = table.Row{"K": "1", "QUANTIDADE": float64(i)}
	}
	s.Replace([]*table.Table{
		table.New("header.csv", []string{"K"}, headerRows),
		table.New("items.csv", []string{"K", "QUANTIDADE"}, itemRows),
	})

	client := &scriptedClient{
		plan:     "from df\nagg count\nresultado = \"{value}\"",
		sentence: "São 10 itens.",
	}
	p := New(client, synth.ModePlan, 0)

	_, audit := p.Answer(context.Background(), "Quantos produtos existem?", s)

	assert.Equal(t, []string{"items.csv"}, audit.Chosen)
	assert.Equal(t, "items.csv", audit.Detail)
	assert.Equal(t, "header.csv", audit.Header)
	require.True(t, audit.Outcome.Success)
	assert.Equal(t, "10", audit.Outcome.Result)
}

func TestAnswerExecutionFailureComposesApology(t *testing.T) {
	client := &scriptedClient{
		plan:     "from df\nagg sum \"COLUNA FANTASMA\"\nresultado = \"{value}\"",
		sentence: "Desculpe, não consegui responder. Pode reformular a pergunta?",
	}
	p := New(client, synth.ModePlan, 0)

	answer, audit := p.Answer(context.Background(), "Qual a soma?", singleTableStore(3))

	assert.Equal(t, client.sentence, answer)
	assert.False(t, audit.Outcome.Success)
	assert.NotEmpty(t, audit.Outcome.Diagnostic)
	assert.NotContains(t, answer, "COLUNA FANTASMA", "apology, not the raw diagnostic")
	assert.Equal(t, []string{"synthesize", "compose"}, client.calls)
}

func TestAnswerSynthesisFailureShortCircuits(t *testing.T) {
	client := &scriptedClient{synthErr: errors.New("connection refused")}
	p := New(client, synth.ModePlan, 0)

	answer, audit := p.Answer(context.Background(), "Qual a soma?", singleTableStore(3))

	assert.Equal(t, MsgSynthesisErr, answer)
	assert.Equal(t, []string{"synthesize"}, client.calls, "no execution or composition after synthesis failure")
	assert.Empty(t, audit.Snippet)
	assert.Contains(t, audit.Outcome.Err, "connection refused")
}

type recordingSink struct {
	records []*store.AuditRecord
}

func (r *recordingSink) StoreAudit(a *store.AuditRecord) error {
	r.records = append(r.records, a)
	return nil
}

func TestSessionHistoryOrderAndAuditSink(t *testing.T) {
	client := &scriptedClient{
		plan:     "from df\nagg count\nresultado = \"{value}\"",
		sentence: "resposta",
	}
	sink := &recordingSink{}
	session := NewSession(New(client, synth.ModePlan, 0), sink)
	session.Tables.Replace([]*table.Table{
		table.New("a.csv", []string{"X"}, []table.Row{{"X": 1.0}}),
	})

	session.Ask(context.Background(), "primeira?")
	session.Ask(context.Background(), "segunda?")

	history := session.History()
	require.Len(t, history, 2)
	assert.Equal(t, "primeira?", history[0].Question)
	assert.Equal(t, "segunda?", history[1].Question)

	require.Len(t, sink.records, 2)
	assert.Equal(t, "primeira?", sink.records[0].Question)
	assert.Equal(t, "resposta", sink.records[0].Answer)
	assert.NotEmpty(t, sink.records[0].ID)

	last := session.LastAudit()
	require.NotNil(t, last)
	assert.Equal(t, "segunda?", last.Question)
}

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestSessionLoadReplacesTables(t *testing.T) {
	client := &scriptedClient{}
	session := NewSession(New(client, synth.ModePlan, 0), nil)
	session.Tables.Replace([]*table.Table{table.New("velha.csv", []string{"X"}, nil)})

	dir := t.TempDir()
	writeCSV(t, dir, "nova.csv", "A\n1\n")

	_, err := session.Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"nova.csv"}, session.Tables.Names())
	_, ok := session.Tables.Get("velha.csv")
	assert.False(t, ok)
}
