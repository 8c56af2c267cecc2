package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/duet/internal/config"
	"github.com/dohr-michael/duet/internal/heartbeat"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show duet gateway status",
		Action: func(_ context.Context, cmd *cli.Command) error {
			status, hb, err := heartbeat.Check(config.HeartbeatPath(), 0)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			w := cmd.Root().Writer
			switch status {
			case heartbeat.StatusAlive:
				fmt.Fprintf(w, "Gateway: ALIVE (PID %d, %s, uptime %s, %d sessions)\n",
					hb.PID, hb.Addr, hb.Uptime, hb.Sessions)
			case heartbeat.StatusStale:
				fmt.Fprintf(w, "Gateway: STALE (PID %d, last heartbeat %s ago)\n",
					hb.PID, time.Since(hb.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Fprintln(w, "Gateway: NOT RUNNING")
			}

			return nil
		},
	}
}
