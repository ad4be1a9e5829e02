package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/agentbus/internal/bus"
	"github.com/dohr-michael/agentbus/internal/config"
	"github.com/dohr-michael/agentbus/internal/core"
	"github.com/dohr-michael/agentbus/internal/httpapi"
	"github.com/dohr-michael/agentbus/internal/invite"
	"github.com/dohr-michael/agentbus/internal/logging"
	"github.com/dohr-michael/agentbus/internal/mcpapi"
	"github.com/dohr-michael/agentbus/internal/presence"
	"github.com/dohr-michael/agentbus/internal/store"
	"github.com/dohr-michael/agentbus/internal/wait"
)

// NewServeCommand returns the serve subcommand: the REST+SSE gateway with
// the MCP-over-SSE transport mounted alongside it (§9's dual-mount open
// question, in-process case).
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the agent bus gateway (REST, SSE, and MCP-over-SSE)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "Host to listen on"},
			&cli.IntFlag{Name: "port", Usage: "Port to listen on"},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", configPath, "error", err)
		cfg = &config.Config{}
		cfg.Gateway.Host = "127.0.0.1"
		cfg.Gateway.Port = 39765
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

	logging.Setup()
	if cmd.Bool("debug") {
		logging.SetLevel(slog.LevelDebug)
	}

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

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
	sweeperDone := p.StartSweeper(ctx)

	cat, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	inviteLogDir := cfg.Uploads.Dir // invitation logs live alongside uploads under the data dir
	inv := invite.New(cat, inviteLogDir)

	api := core.New(s, b, w, p, inv, core.BusConfig{
		Host:                    cfg.Gateway.Host,
		Port:                    cfg.Gateway.Port,
		HeartbeatTimeoutSeconds: cfg.Presence.HeartbeatTimeoutSeconds,
		WaitTimeoutSeconds:      cfg.Wait.DefaultTimeoutSeconds,
	})

	gateway := httpapi.NewServer(api, cfg.Gateway.Host, cfg.Gateway.Port, cfg.Uploads.Dir)
	mcpServer := mcpapi.NewServer(api)

	mux := http.NewServeMux()
	mux.Handle("/", gateway.Handler())
	mux.Handle("/mcp/", http.StripPrefix("/mcp", mcpapi.SSEHandler(mcpServer)))

	httpServer := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port), Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("agentbus listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		// Wake any blocked msg_wait/long-poll callers before the listener
		// stops accepting, so they observe a clean empty result rather
		// than being cut off by Shutdown's deadline (§8 P8).
		b.BroadcastShutdown()

		shutdownErr := httpServer.Shutdown(shutdownCtx)

		select {
		case <-sweeperDone:
		case <-shutdownCtx.Done():
		}

		return shutdownErr
	case err := <-errCh:
		return err
	}
}
