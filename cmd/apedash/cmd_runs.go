package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apedash/internal/format"
	"apedash/internal/store"
)

var runsFlags struct {
	dbPath   string
	markdown bool
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived runs",
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.dbPath, "db", store.DefaultDBPath, "store DB path")
	f.BoolVar(&runsFlags.markdown, "markdown", false, "render a Markdown table instead of ASCII")
}

func runRuns(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(runsFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived runs. Use 'apedash ingest <results.json>' to add one.")
		return nil
	}

	mode := format.ASCII
	if runsFlags.markdown {
		mode = format.Markdown
	}
	tb := format.NewTable(mode)
	tb.Header("ID", "Name", "Records", "Created", "Source")
	tb.Columns(format.ColumnConfig{Number: 3, Align: format.AlignRight})
	for _, r := range runs {
		tb.Row(r.ID, r.Name, r.RecordCount, r.CreatedAt, format.Truncate(r.SourcePath, 48))
	}
	fmt.Fprintln(out, tb.String())
	return nil
}
