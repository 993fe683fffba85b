package query

import (
	"fmt"
	"math"
	"sort"

	"apedash/internal/results"
)

// Grouping keys for chart series colors.
const (
	GroupVideo     = "video"
	GroupAlgorithm = "algorithm"
	GroupJobsite   = "jobsite"
)

// Point is one bar: a video and its metric value.
type Point struct {
	Video string  `json:"video"`
	Value float64 `json:"value"`
}

// Series is one color group within a facet.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// BoxStats are five-number box-plot statistics for one facet.
type BoxStats struct {
	Min     float64   `json:"min"`
	Q1      float64   `json:"q1"`
	Median  float64   `json:"median"`
	Q3      float64   `json:"q3"`
	Max     float64   `json:"max"`
	Samples []float64 `json:"samples"` // raw points, sorted
}

// Facet holds the bar series and box stats for one subtag.
type Facet struct {
	Subtag string   `json:"subtag"`
	Series []Series `json:"series"`
	Box    BoxStats `json:"box"`
	N      int      `json:"n"`
}

// ChartConfig is the render-ready chart payload for one metric.
type ChartConfig struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Group  string  `json:"group"`
	MaxY   float64 `json:"max_y"` // headroom: 1.1 * max observed value
	Facets []Facet `json:"facets"`
}

// BuildChart shapes records into per-subtag facets of grouped bar data plus
// box statistics, matching the dashboard's faceted bar and box views.
// group must be one of GroupVideo, GroupAlgorithm, GroupJobsite.
func BuildChart(recs []results.Record, metric, group string, subtagOrder []string) (*ChartConfig, error) {
	if !results.IsMetric(metric) {
		return nil, fmt.Errorf("unknown metric %q", metric)
	}
	groupKey, err := groupAccessor(group)
	if err != nil {
		return nil, err
	}

	cfg := &ChartConfig{Metric: metric, Label: results.MetricLabel(metric), Group: group}

	// Bucket by subtag first; facets follow the quality ladder.
	bySubtag := map[string][]results.Record{}
	var subtags []string
	for _, r := range recs {
		if _, seen := bySubtag[r.Subtag]; !seen {
			subtags = append(subtags, r.Subtag)
		}
		bySubtag[r.Subtag] = append(bySubtag[r.Subtag], r)
	}
	sort.SliceStable(subtags, func(i, j int) bool {
		ri, rj := results.SubtagRank(subtagOrder, subtags[i]), results.SubtagRank(subtagOrder, subtags[j])
		if ri != rj {
			return ri < rj
		}
		return subtags[i] < subtags[j]
	})

	maxY := math.Inf(-1)
	for _, tag := range subtags {
		facet := Facet{Subtag: tag}

		bySeries := map[string][]Point{}
		var names []string
		var samples []float64
		for _, r := range bySubtag[tag] {
			v, ok := r.Metric(metric)
			if !ok {
				continue
			}
			name := groupKey(r)
			if _, seen := bySeries[name]; !seen {
				names = append(names, name)
			}
			bySeries[name] = append(bySeries[name], Point{Video: r.Video, Value: v})
			samples = append(samples, v)
			if v > maxY {
				maxY = v
			}
		}
		sort.Strings(names)
		for _, name := range names {
			facet.Series = append(facet.Series, Series{Name: name, Points: bySeries[name]})
		}
		facet.N = len(samples)
		facet.Box = boxStats(samples)
		cfg.Facets = append(cfg.Facets, facet)
	}

	if !math.IsInf(maxY, -1) {
		cfg.MaxY = maxY * 1.1
	}
	return cfg, nil
}

func groupAccessor(group string) (func(results.Record) string, error) {
	switch group {
	case GroupVideo, "":
		return func(r results.Record) string { return r.Video }, nil
	case GroupAlgorithm:
		return func(r results.Record) string { return r.Algorithm }, nil
	case GroupJobsite:
		return func(r results.Record) string { return r.Jobsite }, nil
	default:
		return nil, fmt.Errorf("unknown group %q (want video, algorithm, or jobsite)", group)
	}
}

// boxStats computes five-number statistics over samples. Quartiles use
// linear interpolation between closest ranks.
func boxStats(samples []float64) BoxStats {
	if len(samples) == 0 {
		return BoxStats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return BoxStats{
		Min:     sorted[0],
		Q1:      quantile(sorted, 0.25),
		Median:  quantile(sorted, 0.5),
		Q3:      quantile(sorted, 0.75),
		Max:     sorted[len(sorted)-1],
		Samples: sorted,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
