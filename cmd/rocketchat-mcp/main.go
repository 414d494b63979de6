package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/rocketchat-mcp/pkg/mcpsrv"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ROCKETCHAT_URL selects the server (default http://localhost:3000/api/v1).
	// The session gets its own credential store; Run fills it from
	// ROCKETCHAT_AUTH_TOKEN/ROCKETCHAT_USER_ID or ROCKETCHAT_USER/ROCKETCHAT_PASSWORD.
	session, err := mcpsrv.NewSession()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// See internal/config for LOG_LEVEL, LOG_FILE, FETCH_WORKERS and the rest.
	server, err := mcpsrv.NewServer(session)
	if err != nil {
		slog.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}
	defer server.Close()

	slog.Info("starting rocketchat MCP server on stdio", slog.String("url", session.BaseURL()))
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
