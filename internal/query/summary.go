package query

import (
	"sort"

	"apedash/internal/results"
)

// AlgorithmSummary is one row of the mean-RMSE leaderboard.
type AlgorithmSummary struct {
	Algorithm string  `json:"algorithm"`
	MeanRMSE  float64 `json:"mean_rmse"`
	Count     int     `json:"count"` // runs that reported RMSE
}

// Summary computes the mean RMSE per algorithm over records that report one,
// sorted ascending (best first). Algorithms with no RMSE values are omitted.
func Summary(recs []results.Record) []AlgorithmSummary {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, r := range recs {
		v, ok := r.Metric(results.MetricRMSE)
		if !ok {
			continue
		}
		sums[r.Algorithm] += v
		counts[r.Algorithm]++
	}

	out := make([]AlgorithmSummary, 0, len(sums))
	for algo, sum := range sums {
		out = append(out, AlgorithmSummary{
			Algorithm: algo,
			MeanRMSE:  sum / float64(counts[algo]),
			Count:     counts[algo],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanRMSE != out[j].MeanRMSE {
			return out[i].MeanRMSE < out[j].MeanRMSE
		}
		return out[i].Algorithm < out[j].Algorithm
	})
	return out
}

// Extremes returns the smallest and largest value of a metric across recs.
// ok is false when no record reports the metric.
func Extremes(recs []results.Record, metric string) (min, max float64, ok bool) {
	for _, r := range recs {
		v, has := r.Metric(metric)
		if !has {
			continue
		}
		if !ok {
			min, max, ok = v, v, true
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, ok
}
