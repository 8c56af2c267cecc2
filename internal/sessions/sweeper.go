package sessions

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically closes idle sessions.
type Sweeper struct {
	cron    *cron.Cron
	manager *Manager
}

// NewSweeper schedules Manager.Sweep every interval.
func NewSweeper(m *Manager, interval time.Duration) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweeper: interval must be positive, got %s", interval)
	}
	c := cron.New()
	s := &Sweeper{cron: c, manager: m}
	if _, err := c.AddFunc("@every "+interval.String(), s.run); err != nil {
		return nil, fmt.Errorf("sweeper: schedule: %w", err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	if n := s.manager.Sweep(); n > 0 {
		slog.Info("idle sessions closed", "count", n, "remaining", s.manager.Len())
	}
}

// Start begins sweeping in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
