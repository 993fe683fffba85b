package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"apedash/internal/preview"
)

var previewsFlags struct {
	configPath string
	plots      string
	out        string
	workers    int
	scale      float64
	timeout    time.Duration
	force      bool
	strict     bool
}

var previewsCmd = &cobra.Command{
	Use:   "previews",
	Short: "Render PNG previews for the plot PDFs",
	Long: `Renders the first page of every plots/*.pdf to <out>/<name>.pdf.png via
headless Chrome, skipping PDFs that already have a preview. Requires a
Chrome or Chromium binary on PATH.`,
	RunE: runPreviews,
}

func init() {
	f := previewsCmd.Flags()
	f.StringVar(&previewsFlags.configPath, "config", "", "path to apedash.yaml (default: ./apedash.yaml if present)")
	f.StringVar(&previewsFlags.plots, "plots", "", "folder of plot PDFs")
	f.StringVar(&previewsFlags.out, "out", "", "preview output folder")
	f.IntVar(&previewsFlags.workers, "workers", 2, "concurrent renders")
	f.Float64Var(&previewsFlags.scale, "scale", 2.0, "device scale factor (2.0 ~ 150 dpi)")
	f.DurationVar(&previewsFlags.timeout, "timeout", preview.DefaultTimeout, "per-PDF render timeout")
	f.BoolVar(&previewsFlags.force, "force", false, "re-render previews that already exist")
	f.BoolVar(&previewsFlags.strict, "strict", false, "exit non-zero when any PDF fails to render")
}

func runPreviews(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, "config")
	if err != nil {
		return err
	}
	if previewsFlags.plots != "" {
		cfg.Plots = previewsFlags.plots
	}
	if previewsFlags.out != "" {
		cfg.Previews = previewsFlags.out
	}

	r := preview.NewRenderer(cfg.Plots, cfg.Previews)
	r.Workers = previewsFlags.workers
	r.Scale = previewsFlags.scale
	r.Timeout = previewsFlags.timeout
	r.Force = previewsFlags.force

	report, err := r.RenderAll(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rendered %d, skipped %d, failed %d\n",
		len(report.Rendered), len(report.Skipped), len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(out, "  failed: %s (%v)\n", f.Name, f.Err)
	}
	if previewsFlags.strict && len(report.Failed) > 0 {
		return fmt.Errorf("%d PDF(s) failed to render", len(report.Failed))
	}
	return nil
}
