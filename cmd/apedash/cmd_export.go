package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apedash/internal/dash"
	"apedash/internal/query"
	"apedash/internal/results"
	"apedash/internal/store"
)

var exportFlags struct {
	configPath string
	results    string
	dbPath     string
	runID      int64
	output     string
	filters    filterFlags
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered records as CSV",
	Long:  "Writes the same CSV the dashboard's download button produces, to a file or stdout.",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.configPath, "config", "", "path to apedash.yaml (default: ./apedash.yaml if present)")
	f.StringVar(&exportFlags.results, "results", "", "path to ape_results.json")
	f.StringVar(&exportFlags.dbPath, "db", store.DefaultDBPath, "store DB path (with --run)")
	f.Int64Var(&exportFlags.runID, "run", 0, "export an archived run instead of the results file")
	f.StringVarP(&exportFlags.output, "output", "o", "", "output file (default: stdout)")
	addFilterFlags(f, &exportFlags.filters)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, "config")
	if err != nil {
		return err
	}
	if exportFlags.results != "" {
		cfg.Results = exportFlags.results
	}

	ds, _, err := loadDataset(cfg.Results, exportFlags.dbPath, exportFlags.runID)
	if err != nil {
		return err
	}

	recs := query.Apply(ds.Records, exportFlags.filters.filter())
	sorted := append([]results.Record(nil), recs...)
	query.SortForTable(sorted, cfg.SubtagOrder)

	w := cmd.OutOrStdout()
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := dash.WriteCSV(w, sorted); err != nil {
		return err
	}
	if exportFlags.output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(sorted), exportFlags.output)
	}
	return nil
}
