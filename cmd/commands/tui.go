package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/duet/clients/tui"
	"github.com/dohr-michael/duet/internal/config"
	"github.com/dohr-michael/duet/internal/store"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive TUI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "variant",
				Usage: "Reactive idiom driving the list (hooks, signals)",
			},
		},
		Action: runTUI,
	}
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("tui requires a terminal")
	}

	cfg := loadConfig(cmd)

	// Log lines would corrupt the screen.
	logPath := config.TUILogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open tui log: %w", err)
	}
	defer logFile.Close()
	setupLogging(cmd, cfg, logFile)

	name := cfg.UI.Variant
	if cmd.IsSet("variant") {
		name = cmd.String("variant")
	}
	variant, err := store.ParseVariant(name)
	if err != nil {
		return fmt.Errorf("variant: %w", err)
	}

	st, err := store.New(variant, store.WithLogger(slog.Default().With("variant", variant)))
	if err != nil {
		return err
	}
	slog.Info("tui starting", "variant", variant)
	return tui.Run(ctx, st)
}
