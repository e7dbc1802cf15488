// Package config loads the agent configuration from the workspace's
// .csvagent/config.yaml, with sane defaults and environment overrides for
// the model credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dir is the per-workspace configuration directory.
const Dir = ".csvagent"

// FileName is the configuration file inside Dir.
const FileName = "config.yaml"

// Config is the full agent configuration.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Execution ExecutionConfig `yaml:"execution"`
	Logging   LoggingConfig   `yaml:"logging"`
	Store     StoreConfig     `yaml:"store"`
}

// LLMConfig selects and parameterizes the model provider.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // "ollama", "openai" or "" for autodetect
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Temperature    float64 `yaml:"temperature"`
}

// ExecutionConfig selects the snippet dialect and its deadline.
type ExecutionConfig struct {
	Mode           string `yaml:"mode"` // "plan" (default) or "go"
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoggingConfig mirrors the logging package's runtime switches.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// StoreConfig controls trace/audit persistence.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:          "llama3.2:3b",
			TimeoutSeconds: 120,
			Temperature:    0.0,
		},
		Execution: ExecutionConfig{
			Mode:           "plan",
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    filepath.Join(Dir, "traces.db"),
		},
	}
}

// Load reads the configuration for a workspace. A missing file yields the
// defaults; a malformed file is an error. Environment variables override
// the model credentials after the file is read.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, Dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" && c.LLM.BaseURL == "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("CSVAGENT_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// Save writes the configuration to the workspace, creating the directory
// if needed. Used by `csvagent init`.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0644)
}
