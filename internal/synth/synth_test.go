package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvagent/internal/router"
	"csvagent/internal/table"
)

type fakeClient struct {
	response string
	err      error
	prompt   string
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeClient) CompleteWithSystem(ctx context.Context, system, user string) (string, error) {
	return f.Complete(ctx, user)
}

func TestCleanStripsFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"language-tagged fence", "```go\nfrom df\nagg count\n```", "from df\nagg count"},
		{"bare fence", "```\nfrom df\n```", "from df"},
		{"single backticks", "`from df`", "from df"},
		{"trailing fence only", "from df\n```", "from df"},
		{"no decoration", "from df\nagg count", "from df\nagg count"},
		{"surrounding whitespace", "  \nfrom df\n  ", "from df"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestSynthesizeSingleTablePrompt(t *testing.T) {
	store := table.NewStore()
	store.Replace([]*table.Table{
		table.New("orders.csv", []string{"PRODUTO", "VALOR"}, nil),
	})
	a := router.Assignment{Kind: router.Single, Chosen: []string{"orders.csv"}, Detail: "orders.csv"}

	client := &fakeClient{response: "```\nfrom df\nagg count\nresultado = \"{value}\"\n```"}
	s := New(client, ModePlan)

	snippet, err := s.Synthesize(context.Background(), "Quantas linhas?", a, store)
	require.NoError(t, err)
	assert.Equal(t, "from df\nagg count\nresultado = \"{value}\"", snippet)

	assert.Contains(t, client.prompt, "Tabela disponível: df")
	assert.Contains(t, client.prompt, `"PRODUTO", "VALOR"`)
	assert.Contains(t, client.prompt, "Quantas linhas?")
	assert.Contains(t, client.prompt, "GABARITO")
	assert.NotContains(t, client.prompt, "df_cabecalho")
}

func TestSynthesizePairPromptCarriesRolesAndJoinKey(t *testing.T) {
	store := table.NewStore()
	store.Replace([]*table.Table{
		table.New("notas.csv", []string{"CHAVE DE ACESSO", "RAZÃO SOCIAL EMITENTE"}, nil),
		table.New("itens.csv", []string{"CHAVE DE ACESSO", "QUANTIDADE"}, nil),
	})
	a := router.Assignment{
		Kind:   router.Pair,
		Chosen: []string{"itens.csv", "notas.csv"},
		Detail: "itens.csv",
		Header: "notas.csv",
	}

	client := &fakeClient{response: "from df_itens\njoin df_cabecalho on \"CHAVE DE ACESSO\"\nagg count\nresultado = \"{value}\""}
	s := New(client, ModePlan)

	_, err := s.Synthesize(context.Background(), "Qual o fornecedor do item mais caro?", a, store)
	require.NoError(t, err)

	assert.Contains(t, client.prompt, "df_cabecalho (do arquivo 'notas.csv')")
	assert.Contains(t, client.prompt, "df_itens (do arquivo 'itens.csv')")
	assert.Contains(t, client.prompt, JoinKey)
}

func TestSynthesizeModelFailureIsAnError(t *testing.T) {
	store := table.NewStore()
	store.Replace([]*table.Table{table.New("a.csv", []string{"X"}, nil)})
	a := router.Assignment{Kind: router.Single, Chosen: []string{"a.csv"}, Detail: "a.csv"}

	client := &fakeClient{err: errors.New("connection refused")}
	s := New(client, ModePlan)

	_, err := s.Synthesize(context.Background(), "pergunta", a, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model call failed")
}

func TestGoModePromptAsksForGoCode(t *testing.T) {
	store := table.NewStore()
	store.Replace([]*table.Table{table.New("a.csv", []string{"X"}, nil)})
	a := router.Assignment{Kind: router.Single, Chosen: []string{"a.csv"}, Detail: "a.csv"}

	client := &fakeClient{response: "resultado = \"ok\""}
	s := New(client, ModeGo)

	_, err := s.Synthesize(context.Background(), "pergunta", a, store)
	require.NoError(t, err)
	assert.Contains(t, client.prompt, "CÓDIGO GO")
	assert.Contains(t, client.prompt, "tables.AsFloat")
}
