package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"csvagent/internal/config"
	"csvagent/internal/store"
)

var tracesLimit int

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Show recent LLM traces and question audits from the local store",
	RunE:  runTraces,
}

func init() {
	tracesCmd.Flags().IntVarP(&tracesLimit, "limit", "n", 10, "number of records to show")
}

func runTraces(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	if !cfg.Store.Enabled {
		return fmt.Errorf("trace store is disabled in config")
	}

	db, err := store.Open(workspaceJoin(cfg.Store.Path))
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()

	audits, err := db.RecentAudits(tracesLimit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "=== audits (%d) ===\n", len(audits))
	for _, a := range audits {
		status := "ok"
		if !a.Success {
			status = "fail"
		}
		fmt.Fprintf(out, "%s  [%s]  %q -> %q (tables=%v)\n",
			a.CreatedAt.Format("2006-01-02 15:04:05"), status, a.Question, a.Answer, a.ChosenTables)
	}

	traces, err := db.RecentTraces(tracesLimit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== llm traces (%d) ===\n", len(traces))
	for _, t := range traces {
		fmt.Fprintf(out, "%s  stage=%-10s %6dms  prompt=%d chars",
			t.Timestamp.Format("2006-01-02 15:04:05"), t.Stage, t.DurationMs, len(t.Prompt))
		if t.Error != "" {
			fmt.Fprintf(out, "  error=%s", t.Error)
		}
		fmt.Fprintln(out)
	}
	return nil
}
