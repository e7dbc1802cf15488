package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"csvagent/internal/table"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load CSV files and print per-table statistics without asking anything",
	Long: `Loads the data the same way the pipeline would and prints, per table:
row/column counts, column types, null counts and duplicate rows. Useful
for checking what the router and the generated plans will see.`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	if dataPath == "" {
		return fmt.Errorf("--data is required: point it at a CSV file, directory or zip archive")
	}

	report, err := table.LoadPath(cmd.Context(), dataPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", dataPath, err)
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Failed() {
		fmt.Fprintf(out, "FALHA  %s: %v\n", f.File, f.Err)
	}
	for _, t := range report.Tables() {
		stats := table.Summarize(t)
		fmt.Fprintf(out, "\n%s\n", t.Name)
		fmt.Fprintf(out, "  linhas: %d  colunas: %d (%d numéricas, %d texto)\n",
			stats.TotalRows, stats.TotalColumns, stats.NumericColumns, stats.TextColumns)
		fmt.Fprintf(out, "  valores nulos: %d  linhas duplicadas: %d\n",
			stats.NullValues, stats.DuplicateRows)
		for _, col := range table.AnalyzeColumns(t) {
			fmt.Fprintf(out, "  - %-40s %-8s distintos=%d nulos=%d ex=%v\n",
				col.Name, col.Kind, col.Distinct, col.Nulls, col.Example)
		}
	}
	return nil
}
