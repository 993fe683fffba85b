// Package mcp exposes the loaded APE dataset as MCP tools over stdio, so an
// editor agent can query metrics without scraping the dashboard.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"apedash/internal/query"
	"apedash/internal/results"
)

// DefaultQueryLimit caps the rows returned by query_metrics unless the
// caller asks for fewer.
const DefaultQueryLimit = 100

// Server wraps the MCP SDK server around one loaded dataset. All tools are
// read-only; the dataset never changes after construction.
type Server struct {
	MCPServer *sdkmcp.Server

	dataset     *results.Dataset
	datasetName string
	subtagOrder []string
}

// NewServer creates an MCP server over ds. name labels the dataset in tool
// output (the results path or archived run name).
func NewServer(ds *results.Dataset, name string, subtagOrder []string) *Server {
	if len(subtagOrder) == 0 {
		subtagOrder = results.DefaultSubtagOrder
	}
	s := &Server{
		dataset:     ds,
		datasetName: name,
		subtagOrder: subtagOrder,
	}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "apedash", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_filters",
		Description: "List the filterable values of the loaded APE dataset: algorithms, jobsites, subtags, videos.",
	}, s.handleListFilters)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "query_metrics",
		Description: "Query APE records by algorithm, jobsite, subtag, and video substring. Returns matching records with their metrics.",
	}, s.handleQueryMetrics)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "metrics_summary",
		Description: "Mean RMSE per algorithm over the filtered records, best first, plus the best/worst single-run RMSE.",
	}, s.handleMetricsSummary)
}

// --- Tool input/output types ---

type filterInput struct {
	Algorithm string   `json:"algorithm,omitempty" jsonschema:"exact algorithm name, or empty/all for every algorithm"`
	Jobsites  []string `json:"jobsites,omitempty" jsonschema:"allowed jobsite tags"`
	Subtags   []string `json:"subtags,omitempty" jsonschema:"allowed encoding subtags"`
	Video     string   `json:"video,omitempty" jsonschema:"case-insensitive substring of the video name"`
}

func (in filterInput) filter() query.Filter {
	return query.Filter{
		Algorithm:   in.Algorithm,
		Jobsites:    in.Jobsites,
		Subtags:     in.Subtags,
		VideoSearch: in.Video,
	}
}

type listFiltersInput struct{}

type listFiltersOutput struct {
	Dataset    string   `json:"dataset"`
	Records    int      `json:"records"`
	Algorithms []string `json:"algorithms"`
	Jobsites   []string `json:"jobsites"`
	Subtags    []string `json:"subtags"`
	Videos     []string `json:"videos"`
}

type queryMetricsInput struct {
	filterInput
	Limit int `json:"limit,omitempty" jsonschema:"max rows to return (default 100)"`
}

type queryMetricsOutput struct {
	Total    int              `json:"total"`
	Returned int              `json:"returned"`
	Records  []results.Record `json:"records"`
}

type metricsSummaryInput struct {
	filterInput
}

type metricsSummaryOutput struct {
	Summary   []query.AlgorithmSummary `json:"summary"`
	BestRMSE  float64                  `json:"best_rmse"`
	WorstRMSE float64                  `json:"worst_rmse"`
	HasRMSE   bool                     `json:"has_rmse"`
	RowCount  int                      `json:"row_count"`
}

// --- Tool handlers ---

func (s *Server) handleListFilters(_ context.Context, _ *sdkmcp.CallToolRequest, _ listFiltersInput) (*sdkmcp.CallToolResult, listFiltersOutput, error) {
	return nil, listFiltersOutput{
		Dataset:    s.datasetName,
		Records:    s.dataset.Len(),
		Algorithms: s.dataset.Algorithms(),
		Jobsites:   s.dataset.Jobsites(),
		Subtags:    s.dataset.Subtags(),
		Videos:     s.dataset.Videos(),
	}, nil
}

func (s *Server) handleQueryMetrics(_ context.Context, _ *sdkmcp.CallToolRequest, input queryMetricsInput) (*sdkmcp.CallToolResult, queryMetricsOutput, error) {
	recs := query.Apply(s.dataset.Records, input.filter())
	sorted := append([]results.Record(nil), recs...)
	query.SortForTable(sorted, s.subtagOrder)

	limit := input.Limit
	if limit <= 0 || limit > DefaultQueryLimit {
		limit = DefaultQueryLimit
	}
	total := len(sorted)
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return nil, queryMetricsOutput{
		Total:    total,
		Returned: len(sorted),
		Records:  sorted,
	}, nil
}

func (s *Server) handleMetricsSummary(_ context.Context, _ *sdkmcp.CallToolRequest, input metricsSummaryInput) (*sdkmcp.CallToolResult, metricsSummaryOutput, error) {
	recs := query.Apply(s.dataset.Records, input.filter())
	min, max, ok := query.Extremes(recs, results.MetricRMSE)
	return nil, metricsSummaryOutput{
		Summary:   query.Summary(recs),
		BestRMSE:  min,
		WorstRMSE: max,
		HasRMSE:   ok,
		RowCount:  len(recs),
	}, nil
}
