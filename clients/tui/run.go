package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/duet/internal/store"
)

// Run drives st in a full-screen program until the user quits or ctx ends.
func Run(ctx context.Context, st store.Store) error {
	p := tea.NewProgram(New(st), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
