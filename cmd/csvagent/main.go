package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"csvagent/internal/config"
	"csvagent/internal/llm"
	"csvagent/internal/logging"
	"csvagent/internal/pipeline"
	"csvagent/internal/store"
	"csvagent/internal/synth"
)

var (
	// Global flags
	verbose   bool
	workspace string
	dataPath  string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "csvagent",
	Short: "csvagent - question answering over CSV files via a local LLM",
	Long: `csvagent answers natural-language questions (in Portuguese) about CSV
files. Each question runs through a four-stage pipeline: a router picks
the relevant table(s), the model synthesizes a small query plan, the plan
runs against the in-memory tables, and the model phrases the final answer.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory (config and logs live under its .csvagent/)")
	rootCmd.PersistentFlags().StringVarP(&dataPath, "data", "d", "", "CSV file, directory or zip archive to load")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(tracesCmd)
	rootCmd.AddCommand(initCmd)
}

// newSession wires config, logging, model client, optional persistence
// and the pipeline into a fresh session. The returned cleanup closes the
// trace store.
func newSession() (*pipeline.Session, func(), error) {
	cfg, err := config.Load(workspace)
	if err != nil {
		return nil, nil, err
	}

	if err := logging.Initialize(workspace, logging.Config{
		DebugMode:  cfg.Logging.DebugMode || verbose,
		Level:      cfg.Logging.Level,
		Categories: cfg.Logging.Categories,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logging.Boot("csvagent starting (workspace=%s)", workspace)

	opts := llm.DetectFromEnv(llm.Options{
		Provider:    llm.Provider(cfg.LLM.Provider),
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	client, err := llm.New(opts)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var sink pipeline.AuditSink
	traced := client
	if cfg.Store.Enabled {
		db, err := store.Open(workspaceJoin(cfg.Store.Path))
		if err != nil {
			// persistence is observability, not a reason to refuse questions
			logging.StoreError("trace store unavailable: %v", err)
		} else {
			traced = llm.NewTracingClient(client, db)
			sink = db
			cleanup = func() { db.Close() }
		}
	}

	pipe := pipeline.New(traced, synth.Mode(cfg.Execution.Mode),
		time.Duration(cfg.Execution.TimeoutSeconds)*time.Second)
	return pipeline.NewSession(pipe, sink), cleanup, nil
}

// workspaceJoin resolves a config-relative path against the workspace.
func workspaceJoin(path string) string {
	if path == "" || os.IsPathSeparator(path[0]) {
		return path
	}
	return workspace + string(os.PathSeparator) + path
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
