package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"apedash/internal/format"
	"apedash/internal/query"
	"apedash/internal/results"
	"apedash/internal/store"
)

var summaryFlags struct {
	configPath string
	results    string
	dbPath     string
	runID      int64
	markdown   bool
	filters    filterFlags
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the mean-RMSE leaderboard for the filtered records",
	RunE:  runSummary,
}

func init() {
	f := summaryCmd.Flags()
	f.StringVar(&summaryFlags.configPath, "config", "", "path to apedash.yaml (default: ./apedash.yaml if present)")
	f.StringVar(&summaryFlags.results, "results", "", "path to ape_results.json")
	f.StringVar(&summaryFlags.dbPath, "db", store.DefaultDBPath, "store DB path (with --run)")
	f.Int64Var(&summaryFlags.runID, "run", 0, "summarize an archived run instead of the results file")
	f.BoolVar(&summaryFlags.markdown, "markdown", false, "render a Markdown table instead of ASCII")
	addFilterFlags(f, &summaryFlags.filters)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, "config")
	if err != nil {
		return err
	}
	if summaryFlags.results != "" {
		cfg.Results = summaryFlags.results
	}

	ds, name, err := loadDataset(cfg.Results, summaryFlags.dbPath, summaryFlags.runID)
	if err != nil {
		return err
	}

	recs := query.Apply(ds.Records, summaryFlags.filters.filter())
	rows := query.Summary(recs)

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "No records with RMSE match the filter in %s\n", name)
		return nil
	}

	mode := format.ASCII
	if summaryFlags.markdown {
		mode = format.Markdown
	}
	tb := format.NewTable(mode)
	tb.Header("Algorithm", "Mean RMSE", "Runs")
	tb.Columns(
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
		format.ColumnConfig{Number: 3, Align: format.AlignRight},
	)
	for _, row := range rows {
		tb.Row(row.Algorithm, format.Metric(row.MeanRMSE), row.Count)
	}

	min, max, ok := query.Extremes(recs, results.MetricRMSE)
	fmt.Fprintf(out, "Dataset: %s (%d filtered records)\n", name, len(recs))
	fmt.Fprintln(out, tb.String())
	if ok {
		fmt.Fprintf(out, "Best single-run RMSE: %s   Worst: %s\n", format.Metric(min), format.Metric(max))
	}
	return nil
}
