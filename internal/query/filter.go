// Package query filters, aggregates, and shapes loaded APE records for the
// dashboard, the CLI tables, and the MCP tools.
package query

import (
	"sort"
	"strings"

	"apedash/internal/results"
)

// AllAlgorithms selects every algorithm when used as Filter.Algorithm.
const AllAlgorithms = "all"

// Filter selects records. Fields are AND-combined; values within a list
// field are OR-combined. Matching is case-insensitive. Zero value = keep all.
type Filter struct {
	Algorithm   string   // exact algorithm, "" or "all" keeps all
	Jobsites    []string // allowed jobsite tags
	Subtags     []string // allowed encoding subtags
	VideoSearch string   // substring of the video name
}

// IsEmpty reports whether the filter imposes no restriction.
func (f Filter) IsEmpty() bool {
	return (f.Algorithm == "" || strings.EqualFold(f.Algorithm, AllAlgorithms)) &&
		len(f.Jobsites) == 0 && len(f.Subtags) == 0 && f.VideoSearch == ""
}

// Apply returns the records matching the filter, in input order.
// Single pass; every constraint is checked per record.
func Apply(recs []results.Record, f Filter) []results.Record {
	if f.IsEmpty() {
		return recs
	}

	algo := strings.ToLower(f.Algorithm)
	if algo == AllAlgorithms {
		algo = ""
	}
	jobsites := toLowerSet(f.Jobsites)
	subtags := toLowerSet(f.Subtags)
	search := strings.ToLower(f.VideoSearch)

	out := make([]results.Record, 0, len(recs))
	for _, r := range recs {
		if algo != "" && strings.ToLower(r.Algorithm) != algo {
			continue
		}
		if len(jobsites) > 0 && !jobsites[strings.ToLower(r.Jobsite)] {
			continue
		}
		if len(subtags) > 0 && !subtags[strings.ToLower(r.Subtag)] {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Video), search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

// SortForTable orders records for table display: algorithm, jobsite, video,
// then subtag rank along the given quality ladder.
func SortForTable(recs []results.Record, subtagOrder []string) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.Algorithm != b.Algorithm {
			return a.Algorithm < b.Algorithm
		}
		if a.Jobsite != b.Jobsite {
			return a.Jobsite < b.Jobsite
		}
		if a.Video != b.Video {
			return a.Video < b.Video
		}
		ra, rb := results.SubtagRank(subtagOrder, a.Subtag), results.SubtagRank(subtagOrder, b.Subtag)
		if ra != rb {
			return ra < rb
		}
		return a.Subtag < b.Subtag
	})
}
