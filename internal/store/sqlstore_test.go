package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"apedash/internal/results"
)

func testRecords() []results.Record {
	return []results.Record{
		{
			Algorithm: "orb_slam3", Jobsite: "NWC", Subtag: "mp4_low",
			Video: "walk_01", PlotPDF: "orb_walk_01.pdf",
			Metrics: map[string]float64{
				results.MetricRMSE: 0.42, results.MetricMean: 0.35,
				results.MetricMedian: 0.33, results.MetricStd: 0.11,
				results.MetricMin: 0.02, results.MetricMax: 0.91,
			},
		},
		{
			Algorithm: "droid_slam", Jobsite: "SEA", Subtag: "mp4_high",
			Video: "walk_02", PlotPDF: "droid_walk_02.pdf",
			Metrics: map[string]float64{results.MetricRMSE: 0.31},
		},
	}
}

// stores runs each test against both implementations.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	sql, err := Open(filepath.Join(t.TempDir(), ".apedash", "apedash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { sql.Close() })
	return map[string]Store{"sqlite": sql, "mem": NewMemStore()}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			recs := testRecords()
			id, err := st.SaveRun("march-eval", "/data/ape_results.json", recs)
			if err != nil {
				t.Fatalf("SaveRun: %v", err)
			}

			run, err := st.GetRun(id)
			if err != nil {
				t.Fatalf("GetRun: %v", err)
			}
			if run.Name != "march-eval" || run.RecordCount != 2 {
				t.Errorf("run = %+v", run)
			}
			if run.CreatedAt == "" {
				t.Error("CreatedAt is empty")
			}

			got, err := st.LoadRecords(id)
			if err != nil {
				t.Fatalf("LoadRecords: %v", err)
			}
			if diff := cmp.Diff(recs, got); diff != "" {
				t.Errorf("records round trip (-want +got):\n%s", diff)
			}
			// Absent metrics must stay absent.
			if _, ok := got[1].Metric(results.MetricMean); ok {
				t.Error("mean should be absent on the second record")
			}
		})
	}
}

func TestLatestAndList(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.LatestRun(); !errors.Is(err, ErrNotFound) {
				t.Errorf("LatestRun on empty store = %v, want ErrNotFound", err)
			}

			first, _ := st.SaveRun("first", "a.json", testRecords())
			second, _ := st.SaveRun("second", "b.json", nil)

			latest, err := st.LatestRun()
			if err != nil {
				t.Fatalf("LatestRun: %v", err)
			}
			if latest.ID != second {
				t.Errorf("latest = %d, want %d", latest.ID, second)
			}

			runs, err := st.ListRuns()
			if err != nil {
				t.Fatalf("ListRuns: %v", err)
			}
			if len(runs) != 2 || runs[0].ID != second || runs[1].ID != first {
				t.Errorf("ListRuns order wrong: %+v", runs)
			}
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := st.GetRun(99); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetRun(99) = %v, want ErrNotFound", err)
			}
			if _, err := st.LoadRecords(99); !errors.Is(err, ErrNotFound) {
				t.Errorf("LoadRecords(99) = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".apedash", "apedash.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, err := st.SaveRun("persisted", "x.json", testRecords())
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	recs, err := st2.LoadRecords(id)
	if err != nil {
		t.Fatalf("LoadRecords after reopen: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("got %d records after reopen, want 2", len(recs))
	}
}
