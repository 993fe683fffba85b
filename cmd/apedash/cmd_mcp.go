package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"apedash/internal/logging"
	mcpserver "apedash/internal/mcp"
	"apedash/internal/store"
)

var mcpFlags struct {
	configPath string
	results    string
	dbPath     string
	runID      int64
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio for editor-agent integration",
	Long: `Starts an MCP server over stdin/stdout exposing read-only query tools
over the loaded dataset. The server monitors for parent process death and
self-terminates when the editor disconnects, to prevent zombie processes.`,
	RunE: runMCP,
}

func init() {
	f := mcpCmd.Flags()
	f.StringVar(&mcpFlags.configPath, "config", "", "path to apedash.yaml (default: ./apedash.yaml if present)")
	f.StringVar(&mcpFlags.results, "results", "", "path to ape_results.json")
	f.StringVar(&mcpFlags.dbPath, "db", store.DefaultDBPath, "store DB path (with --run)")
	f.Int64Var(&mcpFlags.runID, "run", 0, "serve an archived run instead of the results file")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, "config")
	if err != nil {
		return err
	}
	if mcpFlags.results != "" {
		cfg.Results = mcpFlags.results
	}

	ds, name, err := loadDataset(cfg.Results, mcpFlags.dbPath, mcpFlags.runID)
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(ds, name, cfg.SubtagOrder)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting apedash MCP server over stdio (parent watchdog active)",
		slog.String("dataset", name),
		slog.Int("records", ds.Len()))
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
