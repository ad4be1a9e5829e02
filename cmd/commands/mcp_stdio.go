package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/config"
	"github.com/dohr-michael/agentbus/internal/core"
	"github.com/dohr-michael/agentbus/internal/invite"
	"github.com/dohr-michael/agentbus/internal/mcpapi"
	"github.com/dohr-michael/agentbus/internal/presence"
	"github.com/dohr-michael/agentbus/internal/store"
	"github.com/dohr-michael/agentbus/internal/wait"
)

// NewMCPStdioCommand returns the mcp-stdio subcommand: an MCP server over
// the stdio transport, for clients that spawn a subprocess rather than
// connecting over SSE (§9's dual-mount open question, out-of-process case).
func NewMCPStdioCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-stdio",
		Usage: "Expose the agent bus as an MCP server over stdio",
		Action: runMCPStdio,
	}
}

func runMCPStdio(ctx context.Context, cmd *cli.Command) error {
	// stdout is reserved for MCP protocol frames; all logging goes to stderr.
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Debug("config not found, using defaults", "path", configPath, "error", err)
		cfg = &config.Config{}
		cfg.Store.Path = config.StorePath()
		cfg.Events.SubscriberQueueSize = 256
		cfg.Wait.DefaultTimeoutSeconds = 300
		cfg.Wait.MaxTimeoutSeconds = 600
		cfg.Wait.SafetyNetPollSeconds = 1
		cfg.Presence.HeartbeatTimeoutSeconds = 30
		cfg.Presence.SweepIntervalSeconds = 1
		cfg.Uploads.Dir = config.UploadsPath()
		cfg.Catalog.Path = config.CatalogPath()
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	s := store.New(db)
	b := bus.New(cfg.Events.SubscriberQueueSize)

	w := wait.New(s, b,
		time.Duration(cfg.Wait.DefaultTimeoutSeconds)*time.Second,
		time.Duration(cfg.Wait.MaxTimeoutSeconds)*time.Second,
		time.Duration(cfg.Wait.SafetyNetPollSeconds)*time.Second,
	)

	p := presence.New(s, b,
		time.Duration(cfg.Presence.HeartbeatTimeoutSeconds)*time.Second,
		time.Duration(cfg.Presence.SweepIntervalSeconds)*time.Second,
	)
	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sweeperDone := p.StartSweeper(sweepCtx)

	cat, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	inv := invite.New(cat, cfg.Uploads.Dir)

	api := core.New(s, b, w, p, inv, core.BusConfig{
		Host:                    cfg.Gateway.Host,
		Port:                    cfg.Gateway.Port,
		HeartbeatTimeoutSeconds: cfg.Presence.HeartbeatTimeoutSeconds,
		WaitTimeoutSeconds:      cfg.Wait.DefaultTimeoutSeconds,
	})

	server := mcpapi.NewServer(api)
	err = mcpapi.RunStdio(ctx, server)
	// RunStdio also returns when the client closes stdin, which leaves ctx
	// live; stop the sweeper explicitly and wait for it at most 2s.
	stopSweeper()
	select {
	case <-sweeperDone:
	case <-time.After(2 * time.Second):
	}
	return err
}
