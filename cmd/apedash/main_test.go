package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"apedash/internal/store"
)

const fixtureJSON = `[
  {
    "algorithm": "orb_slam3",
    "algorithm_relative_folder": "NWC/mp4_low/orb_slam3",
    "folder": "walk_01",
    "plot_path": "plots/orb_walk_01.pdf",
    "rmse": 0.42, "mean": 0.35, "median": 0.33, "std": 0.11, "min": 0.02, "max": 0.91
  },
  {
    "algorithm": "droid_slam",
    "algorithm_relative_folder": "SEA/mp4_high/droid_slam",
    "folder": "walk_02",
    "plot_path": "plots/droid_walk_02.pdf",
    "rmse": 0.31
  }
]`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ape_results.json")
	if err := os.WriteFile(path, []byte(fixtureJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the shared command tree from a clean flag state, so values
// parsed by one invocation never leak into the next.
func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlagState()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("apedash %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func resetFlagState() {
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	}

	summaryFlags.configPath = ""
	summaryFlags.results = ""
	summaryFlags.dbPath = store.DefaultDBPath
	summaryFlags.runID = 0
	summaryFlags.markdown = false
	summaryFlags.filters = filterFlags{}

	exportFlags.configPath = ""
	exportFlags.results = ""
	exportFlags.dbPath = store.DefaultDBPath
	exportFlags.runID = 0
	exportFlags.output = ""
	exportFlags.filters = filterFlags{}

	ingestFlags.dbPath = store.DefaultDBPath
	ingestFlags.name = ""

	runsFlags.dbPath = store.DefaultDBPath
	runsFlags.markdown = false
}

func TestSummaryCommand(t *testing.T) {
	results := writeFixture(t)
	out := execute(t, "summary", "--results", results)

	if !strings.Contains(out, "droid_slam") || !strings.Contains(out, "orb_slam3") {
		t.Errorf("summary missing algorithms:\n%s", out)
	}
	if !strings.Contains(out, "0.310") {
		t.Errorf("summary missing mean RMSE:\n%s", out)
	}
	// droid_slam has the lower mean RMSE and must come first.
	if strings.Index(out, "droid_slam") > strings.Index(out, "orb_slam3") {
		t.Errorf("leaderboard not sorted best-first:\n%s", out)
	}
}

func TestSummaryCommand_Filtered(t *testing.T) {
	results := writeFixture(t)
	out := execute(t, "summary", "--results", results, "--jobsite", "NWC")

	if strings.Contains(out, "droid_slam") {
		t.Errorf("jobsite filter leaked droid_slam:\n%s", out)
	}
	if !strings.Contains(out, "orb_slam3") {
		t.Errorf("filtered summary missing orb_slam3:\n%s", out)
	}

	// A later invocation without the flag must see the full dataset again.
	out = execute(t, "summary", "--results", results)
	if !strings.Contains(out, "droid_slam") {
		t.Errorf("jobsite filter leaked into a later run:\n%s", out)
	}
}

func TestSummaryCommand_FromArchivedRun(t *testing.T) {
	results := writeFixture(t)
	db := filepath.Join(t.TempDir(), ".apedash", "apedash.db")

	execute(t, "ingest", results, "--db", db, "--name", "march-eval")
	out := execute(t, "summary", "--run", "1", "--db", db)

	if !strings.Contains(out, "march-eval (run #1)") {
		t.Errorf("summary not labeled with the archived run:\n%s", out)
	}
	if !strings.Contains(out, "droid_slam") || !strings.Contains(out, "orb_slam3") {
		t.Errorf("archived-run summary missing algorithms:\n%s", out)
	}
}

func TestExportCommand_ToFile(t *testing.T) {
	results := writeFixture(t)
	outPath := filepath.Join(t.TempDir(), "filtered.csv")
	execute(t, "export", "--results", results, "-o", outPath)

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want header + 2 rows:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "Algorithm,Jobsite,Subtag,Video") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestIngestAndRunsCommands(t *testing.T) {
	results := writeFixture(t)
	db := filepath.Join(t.TempDir(), ".apedash", "apedash.db")

	out := execute(t, "ingest", results, "--db", db, "--name", "march-eval")
	if !strings.Contains(out, "run #1") {
		t.Errorf("ingest output:\n%s", out)
	}

	out = execute(t, "runs", "--db", db)
	if !strings.Contains(out, "march-eval") {
		t.Errorf("runs output missing run name:\n%s", out)
	}
}

func TestRunsCommand_EmptyStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), ".apedash", "apedash.db")
	out := execute(t, "runs", "--db", db)
	if !strings.Contains(out, "No archived runs") {
		t.Errorf("empty store output:\n%s", out)
	}
}
