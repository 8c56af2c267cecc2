package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/duet/internal/config"
	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/gateway"
	"github.com/dohr-michael/duet/internal/heartbeat"
	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/storage"
	"github.com/dohr-michael/duet/internal/store"
)

// NewServeCommand returns the serve subcommand.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the duet gateway (HTML UI, JSON API, websocket)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	cfg := loadConfig(cmd)
	level := setupLogging(cmd, cfg, os.Stderr)

	// CLI flags override config
	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	variant, err := store.ParseVariant(cfg.UI.Variant)
	if err != nil {
		return fmt.Errorf("ui.variant: %w", err)
	}

	// Event bus
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	if cfg.Events.Journal {
		journal := storage.NewJournal(config.JournalPath(), bus)
		defer journal.Close()
	}

	// Sessions
	manager := sessions.NewManager(bus,
		sessions.WithMaxSessions(cfg.Sessions.Max),
		sessions.WithIdleTTL(cfg.Sessions.IdleTTL.Duration()),
	)
	defer manager.CloseAll(sessions.ReasonClosed)

	sweeper, err := sessions.NewSweeper(manager, cfg.Sessions.SweepInterval.Duration())
	if err != nil {
		return fmt.Errorf("init sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Gateway server
	server := gateway.NewServer(bus, manager, cfg.Gateway.Host, cfg.Gateway.Port, variant)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Heartbeat
	hb := heartbeat.NewWriter(config.HeartbeatPath(),
		heartbeat.WithInterval(cfg.Heartbeat.Interval.Duration()),
		heartbeat.WithAddr(net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))),
		heartbeat.WithGauges(func() (int, int) { return manager.Len(), bus.Dispatched() }),
	)
	if err := hb.Start(); err != nil {
		slog.Warn("heartbeat disabled", "error", err)
	} else {
		defer hb.Stop()
	}

	// Config reload on SIGHUP. Only the log level is applied live.
	reloader := config.NewReloader(configPath, config.DotenvPath(), cfg)
	reloader.OnReload(func(c *config.Config) {
		if !cmd.Bool("debug") {
			level.Set(parseLevel(c.Log.Level))
		}
	})
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	slog.Info("gateway starting", "host", cfg.Gateway.Host, "port", cfg.Gateway.Port, "variant", variant)

	for {
		select {
		case <-hup:
			if err := reloader.Reload(); err != nil {
				slog.Warn("config reload failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	}
}
