package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names a supported LLM backend.
type Provider string

const (
	ProviderOllama Provider = "ollama"
	ProviderOpenAI Provider = "openai"
)

// Options carries the resolved provider settings from config/env.
type Options struct {
	Provider    Provider
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

// New builds a concrete client for the given options.
func New(opts Options) (Client, error) {
	switch opts.Provider {
	case ProviderOllama, "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:     opts.BaseURL,
			Model:       opts.Model,
			Temperature: opts.Temperature,
			Timeout:     opts.Timeout,
		}), nil
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      opts.APIKey,
			BaseURL:     opts.BaseURL,
			Model:       opts.Model,
			Temperature: opts.Temperature,
			Timeout:     opts.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (supported: ollama, openai)", opts.Provider)
	}
}

// DetectFromEnv fills gaps in opts from environment variables. Priority:
// explicit options > OPENAI_API_KEY > local Ollama default.
func DetectFromEnv(opts Options) Options {
	if opts.Provider != "" {
		return opts
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		opts.Provider = ProviderOpenAI
		opts.APIKey = key
		return opts
	}
	opts.Provider = ProviderOllama
	if host := os.Getenv("OLLAMA_HOST"); host != "" && opts.BaseURL == "" {
		opts.BaseURL = host
	}
	return opts
}
