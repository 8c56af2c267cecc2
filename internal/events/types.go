package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event.
type EventType string

const (
	// Session lifecycle
	EventSessionCreated EventType = "session.created"
	EventSessionClosed  EventType = "session.closed"

	// Component mutations
	EventDraftUpdated  EventType = "draft.updated"
	EventTaskCreated   EventType = "task.created"
	EventTaskStatus    EventType = "task.status"
	EventFilterChanged EventType = "filter.changed"

	// Rendered state after a mutation
	EventStateChanged EventType = "state.changed"
)

// EventSource identifies the surface that caused an event.
type EventSource string

const (
	SourceSession EventSource = "session"
	SourceHTTP    EventSource = "http"
	SourceWS      EventSource = "ws"
	SourceSweeper EventSource = "sweeper"
)

// Event represents an event in the system.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}
