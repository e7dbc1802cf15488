package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showAudit bool

var askCmd = &cobra.Command{
	Use:   "ask [pergunta]",
	Short: "Answer a single question about the loaded CSV files",
	Long: `Runs one question through the pipeline and prints the answer.
Requires --data pointing at a CSV file, directory or zip archive.

Example:
  csvagent ask --data ./notas "Qual o fornecedor com maior montante recebido?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&showAudit, "show-audit", false, "print the audit record (routing, snippet, outcome) after the answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	if dataPath == "" {
		return fmt.Errorf("--data is required: point it at a CSV file, directory or zip archive")
	}

	session, cleanup, err := newSession()
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := session.Load(cmd.Context(), dataPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", dataPath, err)
	}
	for _, f := range report.Failed() {
		fmt.Fprintf(cmd.ErrOrStderr(), "aviso: %s não pôde ser carregado: %v\n", f.File, f.Err)
	}

	question := strings.Join(args, " ")
	answer, audit := session.Ask(cmd.Context(), question)
	fmt.Fprintln(cmd.OutOrStdout(), answer)

	if showAudit {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "\n--- audit ---")
		fmt.Fprintf(out, "id:       %s\n", audit.ID)
		fmt.Fprintf(out, "tables:   %v (detail=%s header=%s)\n", audit.Chosen, audit.Detail, audit.Header)
		fmt.Fprintf(out, "snippet:\n%s\n", indent(audit.Snippet))
		if audit.Outcome.Success {
			fmt.Fprintf(out, "outcome:  success: %s\n", audit.Outcome.Result)
		} else {
			fmt.Fprintf(out, "outcome:  failure: %s\n", audit.Outcome.Err)
			if audit.Outcome.Diagnostic != "" {
				fmt.Fprintf(out, "diagnostic:\n%s\n", indent(audit.Outcome.Diagnostic))
			}
		}
	}
	return nil
}

func indent(s string) string {
	if s == "" {
		return "  (empty)"
	}
	return "  " + strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n  ")
}
