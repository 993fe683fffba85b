package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "apedash/internal/mcp"
	"apedash/internal/results"
)

func testDataset() *results.Dataset {
	return &results.Dataset{Records: []results.Record{
		{
			Algorithm: "orb_slam3", Jobsite: "NWC", Subtag: "mp4_low",
			Video: "walk_01", PlotPDF: "orb_walk_01.pdf",
			Metrics: map[string]float64{results.MetricRMSE: 0.42},
		},
		{
			Algorithm: "droid_slam", Jobsite: "SEA", Subtag: "mp4_high",
			Video: "walk_02", PlotPDF: "droid_walk_02.pdf",
			Metrics: map[string]float64{results.MetricRMSE: 0.31},
		},
	}}
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatalf("no text content in tool result")
	return nil
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv := mcpserver.NewServer(testDataset(), "test.json", nil)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"list_filters":    false,
		"query_metrics":   false,
		"metrics_summary": false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestListFilters(t *testing.T) {
	srv := mcpserver.NewServer(testDataset(), "test.json", nil)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	out := callTool(t, ctx, session, "list_filters", nil)
	if out["dataset"] != "test.json" {
		t.Errorf("dataset = %v", out["dataset"])
	}
	algos, _ := out["algorithms"].([]any)
	if len(algos) != 2 {
		t.Errorf("algorithms = %v", out["algorithms"])
	}
}

func TestQueryMetrics_Filtered(t *testing.T) {
	srv := mcpserver.NewServer(testDataset(), "test.json", nil)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	out := callTool(t, ctx, session, "query_metrics", map[string]any{
		"jobsites": []string{"NWC"},
	})
	if out["total"].(float64) != 1 {
		t.Errorf("total = %v", out["total"])
	}
	recs, _ := out["records"].([]any)
	if len(recs) != 1 {
		t.Fatalf("records = %v", out["records"])
	}
	first, _ := recs[0].(map[string]any)
	if first["algorithm"] != "orb_slam3" {
		t.Errorf("record = %v", first)
	}
}

func TestQueryMetrics_Limit(t *testing.T) {
	srv := mcpserver.NewServer(testDataset(), "test.json", nil)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	out := callTool(t, ctx, session, "query_metrics", map[string]any{"limit": 1})
	if out["total"].(float64) != 2 {
		t.Errorf("total = %v", out["total"])
	}
	if out["returned"].(float64) != 1 {
		t.Errorf("returned = %v", out["returned"])
	}
}

func TestMetricsSummary(t *testing.T) {
	srv := mcpserver.NewServer(testDataset(), "test.json", nil)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	out := callTool(t, ctx, session, "metrics_summary", nil)
	if out["has_rmse"] != true {
		t.Fatalf("has_rmse = %v", out["has_rmse"])
	}
	if out["best_rmse"].(float64) != 0.31 || out["worst_rmse"].(float64) != 0.42 {
		t.Errorf("extremes = %v / %v", out["best_rmse"], out["worst_rmse"])
	}
	summary, _ := out["summary"].([]any)
	if len(summary) != 2 {
		t.Fatalf("summary = %v", out["summary"])
	}
	best, _ := summary[0].(map[string]any)
	if best["algorithm"] != "droid_slam" {
		t.Errorf("best algorithm = %v", best["algorithm"])
	}
}
