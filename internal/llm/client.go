// Package llm abstracts the language-model capability the pipeline calls
// twice per question (stage 1 and stage 3). Concrete clients speak the
// Ollama and OpenAI-compatible HTTP APIs; tests inject fakes.
package llm

import "context"

// Client is the minimal interface the pipeline needs from an LLM provider.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
