package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"apedash/internal/dash"
	"apedash/internal/logging"
	"apedash/internal/store"
)

var serveFlags struct {
	configPath string
	results    string
	plots      string
	previews   string
	port       int
	bind       string
	dbPath     string
	runID      int64
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local APE metrics dashboard",
	Long: `Serves the dashboard on localhost. Expects ape_results.json plus the
plots/ and plots_previews/ folders next to the working directory (or as
configured in apedash.yaml). Use --run to serve an archived run from the
store instead of the results file.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.configPath, "config", "", "path to apedash.yaml (default: ./apedash.yaml if present)")
	f.StringVar(&serveFlags.results, "results", "", "path to ape_results.json")
	f.StringVar(&serveFlags.plots, "plots", "", "folder of plot PDFs")
	f.StringVar(&serveFlags.previews, "previews", "", "folder of preview PNGs")
	f.IntVar(&serveFlags.port, "port", 0, "HTTP port")
	f.StringVar(&serveFlags.bind, "bind", "", "bind address")
	f.StringVar(&serveFlags.dbPath, "db", store.DefaultDBPath, "store DB path (with --run)")
	f.Int64Var(&serveFlags.runID, "run", 0, "serve an archived run instead of the results file")
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logging.New("serve")

	cfg, err := loadConfig(cmd, "config")
	if err != nil {
		return err
	}
	if serveFlags.results != "" {
		cfg.Results = serveFlags.results
	}
	if serveFlags.plots != "" {
		cfg.Plots = serveFlags.plots
	}
	if serveFlags.previews != "" {
		cfg.Previews = serveFlags.previews
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}
	if serveFlags.bind != "" {
		cfg.Bind = serveFlags.bind
	}

	ds, name, err := loadDataset(cfg.Results, serveFlags.dbPath, serveFlags.runID)
	if err != nil {
		return err
	}
	if ds.SkippedGroundTruth > 0 || ds.SkippedMalformed > 0 {
		log.Info("skipped entries",
			slog.Int("ground_truth", ds.SkippedGroundTruth),
			slog.Int("malformed", ds.SkippedMalformed))
	}

	srv := dash.New(dash.Config{
		DatasetName: name,
		Records:     ds.Records,
		PlotsDir:    cfg.Plots,
		PreviewsDir: cfg.Previews,
		SubtagOrder: cfg.SubtagOrder,
		Logger:      logging.New("dash"),
	})

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)
	log.Info("starting dashboard",
		slog.String("url", fmt.Sprintf("http://%s", addr)),
		slog.String("dataset", name),
		slog.Int("records", ds.Len()))

	return srv.Start(ctx, addr)
}
