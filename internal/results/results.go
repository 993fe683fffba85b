// Package results loads APE benchmark output (ape_results.json) into domain
// records. The file is a JSON array of per-run entries; ground-truth
// trajectories and entries without a jobsite/subtag path are not results and
// are skipped during load.
package results

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Metric keys. These are the only metrics the benchmark emits.
const (
	MetricRMSE   = "rmse"
	MetricMean   = "mean"
	MetricMedian = "median"
	MetricStd    = "std"
	MetricMin    = "min"
	MetricMax    = "max"
)

// MetricKeys returns the metric keys in display order.
func MetricKeys() []string {
	return []string{MetricRMSE, MetricMean, MetricMedian, MetricStd, MetricMin, MetricMax}
}

// metricLabels maps metric keys to their display names.
var metricLabels = map[string]string{
	MetricRMSE:   "RMSE",
	MetricMedian: "Median",
	MetricMean:   "Mean",
	MetricStd:    "Std",
	MetricMin:    "Min",
	MetricMax:    "Max",
}

// MetricLabel returns the display name for a metric key ("rmse" -> "RMSE").
// Unknown keys are returned as-is.
func MetricLabel(key string) string {
	if l, ok := metricLabels[key]; ok {
		return l
	}
	return key
}

// IsMetric reports whether key is a known metric key.
func IsMetric(key string) bool {
	_, ok := metricLabels[key]
	return ok
}

// DefaultSubtagOrder is the canonical encoding-quality ladder used for
// sorting and chart facets. Subtags not in the list sort after it.
var DefaultSubtagOrder = []string{"mp4_verylow", "mp4_low", "mp4_mid", "mp4_medium", "mp4_high"}

// SubtagRank returns the position of subtag in order, or len(order) when the
// subtag is not listed (unknown subtags sort last, among themselves by name).
func SubtagRank(order []string, subtag string) int {
	for i, s := range order {
		if s == subtag {
			return i
		}
	}
	return len(order)
}

// Record is one evaluated run: an algorithm applied to one video at one
// encoding quality, with its APE metrics and the pre-rendered plot name.
type Record struct {
	Algorithm string             `json:"algorithm"`
	Jobsite   string             `json:"jobsite"`
	Subtag    string             `json:"subtag"`
	Video     string             `json:"video"`
	PlotPDF   string             `json:"plot_pdf"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Metric returns the named metric and whether the run reported it.
func (r Record) Metric(key string) (float64, bool) {
	v, ok := r.Metrics[key]
	return v, ok
}

// entry is the wire shape of one element of ape_results.json. Metrics are
// pointers so a missing value stays distinct from zero.
type entry struct {
	Algorithm string   `json:"algorithm"`
	RelFolder string   `json:"algorithm_relative_folder"`
	Folder    string   `json:"folder"`
	PlotPath  string   `json:"plot_path"`
	RMSE      *float64 `json:"rmse"`
	Mean      *float64 `json:"mean"`
	Median    *float64 `json:"median"`
	Std       *float64 `json:"std"`
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
}

// Dataset is a loaded results file plus load bookkeeping.
type Dataset struct {
	Records []Record

	// SkippedGroundTruth counts entries dropped because the algorithm is a
	// ground-truth trajectory, SkippedMalformed those whose relative folder
	// had no jobsite/subtag segments.
	SkippedGroundTruth int
	SkippedMalformed   int
}

// Load parses an ape_results.json stream.
func Load(r io.Reader) (*Dataset, error) {
	var entries []entry
	dec := json.NewDecoder(r)
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	ds := &Dataset{Records: make([]Record, 0, len(entries))}
	for _, e := range entries {
		if strings.Contains(e.Algorithm, "groundTruth") {
			ds.SkippedGroundTruth++
			continue
		}
		parts := strings.Split(e.RelFolder, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			ds.SkippedMalformed++
			continue
		}

		rec := Record{
			Algorithm: e.Algorithm,
			Jobsite:   parts[0],
			Subtag:    parts[1],
			Video:     e.Folder,
			PlotPDF:   filepath.Base(e.PlotPath),
			Metrics:   map[string]float64{},
		}
		if e.PlotPath == "" {
			rec.PlotPDF = ""
		}
		setMetric(rec.Metrics, MetricRMSE, e.RMSE)
		setMetric(rec.Metrics, MetricMean, e.Mean)
		setMetric(rec.Metrics, MetricMedian, e.Median)
		setMetric(rec.Metrics, MetricStd, e.Std)
		setMetric(rec.Metrics, MetricMin, e.Min)
		setMetric(rec.Metrics, MetricMax, e.Max)

		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// LoadFile loads an ape_results.json file from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results file: %w", err)
	}
	defer f.Close()
	ds, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

func setMetric(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}

// Algorithms returns the sorted unique algorithm names.
func (d *Dataset) Algorithms() []string { return uniqueField(d.Records, func(r Record) string { return r.Algorithm }) }

// Jobsites returns the sorted unique jobsite tags.
func (d *Dataset) Jobsites() []string { return uniqueField(d.Records, func(r Record) string { return r.Jobsite }) }

// Subtags returns the sorted unique subtags, canonical order first.
func (d *Dataset) Subtags() []string {
	tags := uniqueField(d.Records, func(r Record) string { return r.Subtag })
	sort.SliceStable(tags, func(i, j int) bool {
		ri, rj := SubtagRank(DefaultSubtagOrder, tags[i]), SubtagRank(DefaultSubtagOrder, tags[j])
		if ri != rj {
			return ri < rj
		}
		return tags[i] < tags[j]
	})
	return tags
}

// Videos returns the sorted unique video names.
func (d *Dataset) Videos() []string { return uniqueField(d.Records, func(r Record) string { return r.Video }) }

// Len returns the number of loaded records.
func (d *Dataset) Len() int { return len(d.Records) }

func uniqueField(recs []Record, get func(Record) string) []string {
	seen := make(map[string]bool, len(recs))
	var out []string
	for _, r := range recs {
		v := get(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
