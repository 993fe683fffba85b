package mcp

import (
	"context"
	"log/slog"
	"os"
	"time"

	"apedash/internal/logging"
)

const watchdogInterval = 2 * time.Second

// WatchParent monitors for parent process death in a background goroutine.
// When the parent PID changes (the editor disconnected or restarted its
// extension host), it calls cancelFn to trigger graceful shutdown. This
// prevents zombie MCP server processes from accumulating.
//
// IMPORTANT: This must NOT read from stdin — the MCP SDK's StdioTransport
// owns stdin exclusively. Reading from stdin here would steal bytes and
// corrupt the JSON-RPC protocol.
//
// The goroutine exits when ctx is canceled or parent death is detected.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	go watchParent(ctx, cancelFn, os.Getppid, watchdogInterval, logging.New("mcp"))
}

func watchParent(ctx context.Context, cancelFn context.CancelFunc, getppid func() int, interval time.Duration, log *slog.Logger) {
	ppid := getppid()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			if getppid() != ppid {
				log.Warn("parent process died, shutting down", slog.Int("was_pid", ppid))
				cancelFn()
				return
			}
		}
	}
}
