package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"apedash/internal/logging"
	"apedash/internal/results"
	"apedash/internal/store"
)

var ingestFlags struct {
	dbPath string
	name   string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <results.json>",
	Short: "Archive a results file into the local run store",
	Long: `Parses an ape_results.json file and saves its records as a new run in
the SQLite store, so older evaluations stay queryable after the file is
overwritten by the next benchmark pass.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.dbPath, "db", store.DefaultDBPath, "store DB path")
	f.StringVar(&ingestFlags.name, "name", "", "run display name (default: file name without extension)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logging.New("ingest")
	path := args[0]

	ds, err := results.LoadFile(path)
	if err != nil {
		return err
	}

	name := ingestFlags.name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	st, err := store.Open(ingestFlags.dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runID, err := st.SaveRun(name, path, ds.Records)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	log.Info("run archived",
		slog.Int64("run_id", runID),
		slog.String("name", name),
		slog.Int("records", ds.Len()),
		slog.Int("skipped_ground_truth", ds.SkippedGroundTruth),
		slog.Int("skipped_malformed", ds.SkippedMalformed))

	fmt.Fprintf(cmd.OutOrStdout(), "Archived %d records as run #%d (%s)\n", ds.Len(), runID, name)
	return nil
}
