// Package compose implements stage 3: annotating the computed result with
// currency formatting when appropriate and asking the language model for
// the final user-facing sentence (or, on an execution failure, for a
// non-technical explanation).
package compose

import (
	"context"
	"fmt"

	"csvagent/internal/executor"
	"csvagent/internal/llm"
	"csvagent/internal/logging"
)

// CompositionError is returned when the composing model call itself
// fails. No retry is attempted.
const CompositionError = "Desculpe, ocorreu um erro ao gerar a resposta final. Por favor, tente novamente."

const successPrompt = `Você é um assistente de análise de dados prestativo.
A pergunta do usuário foi: "%s"
O resultado calculado foi: "%s"

Responda à pergunta do usuário em uma única frase direta e amigável, usando EXATAMENTE o valor calculado. Não invente números e não adicione detalhes técnicos.`

const failurePrompt = `Você é um assistente de análise de dados prestativo.
A pergunta do usuário foi: "%s"
Ao tentar calcular a resposta, ocorreu o seguinte erro técnico: "%s"

Explique em uma única frase simples, sem termos técnicos, que não foi possível responder à pergunta, e sugira que o usuário a reformule.`

// Composer phrases final answers via the injected model client.
type Composer struct {
	client llm.Client
}

// New creates a composer.
func New(client llm.Client) *Composer {
	return &Composer{client: client}
}

// Compose turns an execution outcome into the final answer text. It never
// re-derives numbers: a successful result is forwarded with at most one
// currency rewrite, and a failure is translated into an apology. The raw
// diagnostic stays in the audit record, never in the answer.
func (c *Composer) Compose(ctx context.Context, question string, out executor.Outcome) string {
	timer := logging.StartTimer(logging.CategoryCompose, "compose")
	defer timer.Stop()

	var prompt string
	if out.Success {
		annotated := AnnotateCurrency(question, out.Result)
		if annotated != out.Result {
			logging.ComposeDebug("currency formatting applied")
		}
		prompt = fmt.Sprintf(successPrompt, question, annotated)
	} else {
		prompt = fmt.Sprintf(failurePrompt, question, out.Err)
	}

	answer, err := c.client.Complete(ctx, prompt)
	if err != nil {
		logging.Compose("composition model call failed: %v", err)
		return CompositionError
	}
	return answer
}
