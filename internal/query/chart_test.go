package query

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"apedash/internal/results"
)

func TestBuildChart_FacetsAndSeries(t *testing.T) {
	recs := []results.Record{
		rec("a", "NWC", "mp4_high", "v2", 0.2),
		rec("a", "NWC", "mp4_low", "v1", 0.4),
		rec("b", "SEA", "mp4_low", "v1", 0.6),
		rec("b", "SEA", "mp4_low", "v2", 0.8),
	}

	cfg, err := BuildChart(recs, results.MetricRMSE, GroupAlgorithm, results.DefaultSubtagOrder)
	if err != nil {
		t.Fatalf("BuildChart: %v", err)
	}

	if len(cfg.Facets) != 2 {
		t.Fatalf("facets = %d, want 2", len(cfg.Facets))
	}
	// Canonical ladder: mp4_low before mp4_high.
	if cfg.Facets[0].Subtag != "mp4_low" || cfg.Facets[1].Subtag != "mp4_high" {
		t.Errorf("facet order = %s, %s", cfg.Facets[0].Subtag, cfg.Facets[1].Subtag)
	}

	low := cfg.Facets[0]
	if len(low.Series) != 2 || low.Series[0].Name != "a" || low.Series[1].Name != "b" {
		t.Fatalf("mp4_low series = %+v", low.Series)
	}
	if len(low.Series[1].Points) != 2 {
		t.Errorf("series b points = %d, want 2", len(low.Series[1].Points))
	}
	if low.N != 3 {
		t.Errorf("mp4_low N = %d, want 3", low.N)
	}
	if low.Box.Min != 0.4 || low.Box.Max != 0.8 || low.Box.Median != 0.6 {
		t.Errorf("mp4_low box = %+v", low.Box)
	}

	if math.Abs(cfg.MaxY-0.88) > 1e-9 {
		t.Errorf("MaxY = %v, want 0.88", cfg.MaxY)
	}
}

func TestBuildChart_UnknownSubtagsSortLast(t *testing.T) {
	recs := []results.Record{
		rec("a", "NWC", "mp4_high", "v1", 0.21),
		rec("a", "NWC", "mp4_verylow", "v1", 0.90),
		rec("a", "NWC", "zzz_custom", "v1", 0.10),
		rec("a", "NWC", "mp4_low", "v1", 0.42),
	}

	cfg, err := BuildChart(recs, results.MetricRMSE, GroupVideo, results.DefaultSubtagOrder)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range cfg.Facets {
		got = append(got, f.Subtag)
	}
	want := []string{"mp4_verylow", "mp4_low", "mp4_high", "zzz_custom"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("facet order (-want +got):\n%s", diff)
	}
}

func TestBuildChart_SkipsRecordsMissingMetric(t *testing.T) {
	withMean := rec("a", "NWC", "mp4_low", "v1", 0.40)
	withMean.Metrics[results.MetricMean] = 0.30
	noMean := rec("b", "NWC", "mp4_low", "v2", 0.20)

	cfg, err := BuildChart([]results.Record{withMean, noMean}, results.MetricMean, GroupVideo, nil)
	if err != nil {
		t.Fatal(err)
	}
	facet := cfg.Facets[0]
	if facet.N != 1 {
		t.Errorf("N = %d, want 1", facet.N)
	}
	if len(facet.Series) != 1 || facet.Series[0].Name != "v1" {
		t.Errorf("series = %+v, want single v1", facet.Series)
	}
}

func TestBuildChart_Rejections(t *testing.T) {
	if _, err := BuildChart(nil, "nope", GroupVideo, nil); err == nil {
		t.Error("expected error for unknown metric")
	}
	if _, err := BuildChart(nil, results.MetricRMSE, "color", nil); err == nil {
		t.Error("expected error for unknown group")
	}
}

func TestBoxStats(t *testing.T) {
	got := boxStats([]float64{4, 1, 3, 2})
	want := BoxStats{
		Min:     1,
		Q1:      1.75,
		Median:  2.5,
		Q3:      3.25,
		Max:     4,
		Samples: []float64{1, 2, 3, 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("boxStats (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(BoxStats{}, boxStats(nil)); diff != "" {
		t.Errorf("empty samples (-want +got):\n%s", diff)
	}
}

func TestQuantile_Interpolates(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	if got := quantile(sorted, 0.5); got != 2.5 {
		t.Errorf("median = %v, want 2.5", got)
	}
	if got := quantile([]float64{7}, 0.75); got != 7 {
		t.Errorf("single-sample quantile = %v, want 7", got)
	}
}
