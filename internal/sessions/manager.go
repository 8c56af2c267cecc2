package sessions

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/store"
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrTooManySessions = errors.New("too many sessions")
	ErrClosed          = errors.New("session closed")
)

// Close reasons published with session.closed.
const (
	ReasonClosed = "closed"
	ReasonIdle   = "idle"
)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxSessions bounds the number of live sessions. Zero means unbounded.
func WithMaxSessions(n int) ManagerOption {
	return func(m *Manager) { m.max = n }
}

// WithIdleTTL sets how long a session may go without mutations before Sweep
// closes it. Zero disables expiry.
func WithIdleTTL(d time.Duration) ManagerOption {
	return func(m *Manager) { m.idleTTL = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// Manager is the in-memory registry of sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	bus      *events.Bus
	max      int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewManager creates a session registry publishing to bus. bus may be nil.
func NewManager(bus *events.Bus, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		bus:      bus,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session with an empty component of variant v.
func (m *Manager) Create(src events.EventSource, v store.Variant) (*Session, error) {
	if _, err := store.ParseVariant(string(v)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.max > 0 && len(m.sessions) >= m.max {
		return nil, fmt.Errorf("create session: %w (max %d)", ErrTooManySessions, m.max)
	}

	s, err := newSession(v, m.bus, m.now)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	m.sessions[s.ID] = s

	if m.bus != nil {
		m.bus.Publish(events.NewTypedEventWithSession(src, events.SessionCreatedPayload{Variant: v}, s.ID))
	}
	slog.Debug("session created", "session", s.ID, "variant", v)
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// List returns summaries of all sessions, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(all))
	for _, s := range all {
		out = append(out, s.Summary())
	}
	slices.SortFunc(out, func(a, b Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close removes a session and publishes session.closed.
func (m *Manager) Close(src events.EventSource, id, reason string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close(src, reason)
	slog.Debug("session closed", "session", id, "reason", reason)
	return nil
}

// Sweep closes every session idle for longer than the idle TTL and returns
// how many were closed.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if err := m.Close(events.SourceSweeper, id, ReasonIdle); err == nil {
			closed++
		}
	}
	return closed
}

// CloseAll closes every session, typically on shutdown.
func (m *Manager) CloseAll(reason string) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close(events.SourceSession, reason)
	}
}
