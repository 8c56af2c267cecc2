package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/coder/websocket"
	"github.com/urfave/cli/v3"

	wsclient "github.com/dohr-michael/duet/clients/ws"
	"github.com/dohr-michael/duet/internal/events"
	wsprotocol "github.com/dohr-michael/duet/internal/gateway/ws"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream the state of a gateway session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "session",
				Usage:    "Session ID to follow",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Gateway address (host:port), defaults to the configured gateway",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format (json, yaml)",
				Value: "json",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)
	setupLogging(cmd, cfg, os.Stderr)

	format := cmd.String("format")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q", format)
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = net.JoinHostPort(cfg.Gateway.Host, strconv.Itoa(cfg.Gateway.Port))
	}

	client, err := wsclient.Dial(ctx, "ws://"+addr+"/api/ws")
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.OpenSession(cmd.String("session"), "")
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	slog.Debug("watching session", "session", res.SessionID)

	w := cmd.Root().Writer
	if err := writeValue(w, format, res.Snapshot); err != nil {
		return err
	}

	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) != -1 {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}

		if snap, ok := wsclient.SnapshotFromFrame(frame); ok {
			if err := writeValue(w, format, snap); err != nil {
				return err
			}
			continue
		}
		if frame.Type == wsprotocol.FrameTypeEvent && frame.Event == string(events.EventSessionClosed) {
			slog.Info("session closed", "session", frame.SessionID, "reason", closedReason(frame))
			return nil
		}
	}
}

// closedReason reads the reason of a session.closed frame, or "" when the
// payload cannot be decoded.
func closedReason(frame wsprotocol.Frame) string {
	var p events.SessionClosedPayload
	if err := json.Unmarshal(frame.Payload, &p); err != nil {
		slog.Debug("decode session.closed payload", "error", err)
		return ""
	}
	return p.Reason
}
