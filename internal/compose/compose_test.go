package compose

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvagent/internal/executor"
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

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 5,00"},
		{1234.5, "R$ 1.234,50"},
		{1234567.89, "R$ 1.234.567,89"},
		{1000, "R$ 1.000,00"},
		{-42.5, "R$ -42,50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBRL(tt.in), "input %v", tt.in)
	}
}

func TestAnnotateCurrencyFirstNumeralOnly(t *testing.T) {
	got := AnnotateCurrency("Qual a soma?", "A soma é 1234.5 e não 9999")
	assert.Equal(t, "A soma é R$ 1.234,50 e não 9999", got)
}

func TestAnnotateCurrencySkipsCountQuestions(t *testing.T) {
	for _, q := range []string{
		"Quantas notas existem?",
		"Qual a contagem de itens?",
		"Mostre o top 5",
		"Qual a quantidade total?",
	} {
		in := "O valor é 1234.5"
		assert.Equal(t, in, AnnotateCurrency(q, in), "question %q", q)
	}
}

func TestAnnotateCurrencyLeniency(t *testing.T) {
	tests := []string{
		"sem números aqui",
		"",
		"apenas um ponto .",
	}
	for _, in := range tests {
		assert.Equal(t, in, AnnotateCurrency("Qual o valor?", in), "input %q", in)
	}
}

func TestComposeSuccessForwardsAnnotatedResult(t *testing.T) {
	client := &fakeClient{response: "O total recebido foi R$ 1.234,50."}
	c := New(client)

	answer := c.Compose(context.Background(), "Qual o montante recebido?",
		executor.Outcome{Success: true, Result: "O total é 1234.5"})

	assert.Equal(t, "O total recebido foi R$ 1.234,50.", answer)
	assert.Contains(t, client.prompt, "R$ 1.234,50")
	assert.Contains(t, client.prompt, "Qual o montante recebido?")
}

func TestComposeFailureAsksForExplanationWithoutDiagnostic(t *testing.T) {
	client := &fakeClient{response: "Desculpe, não consegui calcular isso. Pode reformular?"}
	c := New(client)

	out := executor.Outcome{
		Err:        `filter column "X" missing from table "itens.csv"`,
		Diagnostic: "snippet:\nfrom df\n...stack...",
	}
	answer := c.Compose(context.Background(), "Qual o valor de X?", out)

	assert.Equal(t, client.response, answer)
	assert.Contains(t, client.prompt, out.Err)
	assert.NotContains(t, answer, "stack", "raw diagnostic never reaches the user")
}

func TestComposeModelFailureReturnsFixedError(t *testing.T) {
	client := &fakeClient{err: errors.New("timeout")}
	c := New(client)

	answer := c.Compose(context.Background(), "Qual o valor?",
		executor.Outcome{Success: true, Result: "42"})

	require.Equal(t, CompositionError, answer)
}

func TestComposeCountQuestionSkipsCurrencyInPrompt(t *testing.T) {
	client := &fakeClient{response: "Existem 3 linhas."}
	c := New(client)

	c.Compose(context.Background(), "Quantas linhas existem?",
		executor.Outcome{Success: true, Result: "A contagem de linhas é 3."})

	assert.Contains(t, client.prompt, "A contagem de linhas é 3.")
	assert.False(t, strings.Contains(client.prompt, "R$"), "count questions are not currency-formatted")
}
