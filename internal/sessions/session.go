// Package sessions keeps one task-list component per UI session, in memory.
package sessions

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Summary describes a session without exposing its store.
type Summary struct {
	ID        string        `json:"id"`
	Variant   store.Variant `json:"variant"`
	Status    Status        `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	TaskCount int           `json:"task_count"`
	Filter    todo.Filter   `json:"filter"`
}

// Session serializes access to one Store. Every mutation is handled to
// completion, including re-rendering, before the next one starts. Its events
// are published cause first: the mutation event, then state.changed.
type Session struct {
	ID        string
	Variant   store.Variant
	CreatedAt time.Time

	mu        sync.Mutex
	store     store.Store
	bus       *events.Bus
	now       func() time.Time
	updatedAt time.Time
	status    Status
	source    events.EventSource
	unsub     func()

	// Snapshots rendered during the current mutation, published after the
	// mutation's own event.
	pending []store.Snapshot
}

func generateSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func newSession(v store.Variant, bus *events.Bus, now func() time.Time) (*Session, error) {
	id := generateSessionID()
	st, err := store.New(v, store.WithLogger(slog.Default().With("session", id)))
	if err != nil {
		return nil, err
	}

	created := now()
	s := &Session{
		ID:        id,
		Variant:   v,
		CreatedAt: created,
		store:     st,
		bus:       bus,
		now:       now,
		updatedAt: created,
		status:    StatusActive,
		source:    events.SourceSession,
	}
	s.unsub = st.Subscribe(func(snap store.Snapshot) {
		s.pending = append(s.pending, snap)
	})
	return s, nil
}

// publish must be called with mu held.
func (s *Session) publish(p events.EventPayload) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.NewTypedEventWithSession(s.source, p, s.ID))
}

// do runs fn under the session lock on behalf of src.
func (s *Session) do(src events.EventSource, fn func(st store.Store)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return ErrClosed
	}
	s.source = src
	s.updatedAt = s.now()
	fn(s.store)
	s.flush()
	s.source = events.SourceSession
	return nil
}

// flush publishes the snapshots rendered by the last mutation. Must be called
// with mu held.
func (s *Session) flush() {
	for _, snap := range s.pending {
		s.publish(events.StateChangedPayload{Snapshot: snap})
	}
	s.pending = nil
}

// SetField edits the draft.
func (s *Session) SetField(src events.EventSource, name, value string) error {
	var err error
	if cerr := s.do(src, func(st store.Store) {
		if err = st.SetField(name, value); err == nil {
			s.publish(events.DraftUpdatedPayload{Field: name, Value: value})
		}
	}); cerr != nil {
		return cerr
	}
	return err
}

// Submit creates a task from the draft.
func (s *Session) Submit(src events.EventSource) (todo.Task, error) {
	var (
		task todo.Task
		err  error
	)
	if cerr := s.do(src, func(st store.Store) {
		if task, err = st.Submit(); err == nil {
			s.publish(events.TaskCreatedPayload{Task: task})
		}
	}); cerr != nil {
		return todo.Task{}, cerr
	}
	return task, err
}

// SubmitDraft overlays the given fields onto the draft and submits it, as a
// form post does.
func (s *Session) SubmitDraft(src events.EventSource, fields map[string]string) (todo.Task, error) {
	var (
		task todo.Task
		err  error
	)
	if cerr := s.do(src, func(st store.Store) {
		for _, name := range todo.Fields {
			v, ok := fields[name]
			if !ok {
				continue
			}
			if err = st.SetField(name, v); err != nil {
				return
			}
		}
		if task, err = st.Submit(); err == nil {
			s.publish(events.TaskCreatedPayload{Task: task})
		}
	}); cerr != nil {
		return todo.Task{}, cerr
	}
	return task, err
}

// SetStatus toggles a task. It reports false for an unknown id.
func (s *Session) SetStatus(src events.EventSource, id string, done bool) (bool, error) {
	var found bool
	err := s.do(src, func(st store.Store) {
		found = st.SetStatus(id, done)
		s.publish(events.TaskStatusPayload{TaskID: id, Status: todo.StatusFor(done), Found: found})
	})
	return found, err
}

// SetFilter changes the visibility filter.
func (s *Session) SetFilter(src events.EventSource, f todo.Filter) error {
	var err error
	if cerr := s.do(src, func(st store.Store) {
		if err = st.SetFilter(f); err == nil {
			s.publish(events.FilterChangedPayload{Filter: f})
		}
	}); cerr != nil {
		return cerr
	}
	return err
}

// Snapshot returns the current rendered state.
func (s *Session) Snapshot() store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// View derives the list for f without changing the session filter.
func (s *Session) View(f todo.Filter) []todo.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return todo.Derive(s.store.Tasks(), f)
}

// Summary returns the session metadata.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:        s.ID,
		Variant:   s.Variant,
		Status:    s.status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
		TaskCount: len(s.store.Tasks()),
		Filter:    s.store.Filter(),
	}
}

// IdleSince returns the time of the last mutation.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) close(src events.EventSource, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return false
	}
	s.status = StatusClosed
	s.unsub()
	s.source = src
	s.publish(events.SessionClosedPayload{Reason: reason})
	return true
}
