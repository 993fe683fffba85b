package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"apedash/internal/config"
	"apedash/internal/query"
	"apedash/internal/results"
	"apedash/internal/store"
)

// filterFlags are the query flags shared by summary, export, and serve-side
// tooling. Multi-value flags repeat: --jobsite NWC --jobsite SEA.
type filterFlags struct {
	algorithm string
	jobsites  []string
	subtags   []string
	video     string
}

func addFilterFlags(f *pflag.FlagSet, ff *filterFlags) {
	f.StringVar(&ff.algorithm, "algorithm", "", "exact algorithm name (default: all)")
	f.StringArrayVar(&ff.jobsites, "jobsite", nil, "jobsite tag (repeatable)")
	f.StringArrayVar(&ff.subtags, "subtag", nil, "encoding subtag (repeatable)")
	f.StringVar(&ff.video, "video", "", "substring of the video name")
}

func (ff filterFlags) filter() query.Filter {
	return query.Filter{
		Algorithm:   ff.algorithm,
		Jobsites:    ff.jobsites,
		Subtags:     ff.subtags,
		VideoSearch: ff.video,
	}
}

// loadConfig resolves the effective config: file over defaults. A config
// path set explicitly must exist; the default path may be absent.
func loadConfig(cmd *cobra.Command, flagName string) (config.Config, error) {
	path, _ := cmd.Flags().GetString(flagName)
	explicit := cmd.Flags().Changed(flagName)
	if path == "" {
		path = config.DefaultPath
	}
	return config.Load(path, explicit)
}

// loadDataset loads records either from an archived run (runID > 0) or from
// the results JSON file. The returned name labels the dataset in output.
func loadDataset(resultsPath, dbPath string, runID int64) (*results.Dataset, string, error) {
	if runID > 0 {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		run, err := st.GetRun(runID)
		if err != nil {
			return nil, "", fmt.Errorf("run %d: %w", runID, err)
		}
		recs, err := st.LoadRecords(runID)
		if err != nil {
			return nil, "", fmt.Errorf("load run %d: %w", runID, err)
		}
		name := fmt.Sprintf("%s (run #%d)", run.Name, run.ID)
		return &results.Dataset{Records: recs}, name, nil
	}

	ds, err := results.LoadFile(resultsPath)
	if err != nil {
		return nil, "", err
	}
	return ds, resultsPath, nil
}
