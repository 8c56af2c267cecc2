package events

import (
	"encoding/json"

	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

type SessionCreatedPayload struct {
	Variant store.Variant `json:"variant"`
}

func (SessionCreatedPayload) EventType() EventType { return EventSessionCreated }

type SessionClosedPayload struct {
	Reason string `json:"reason"`
}

func (SessionClosedPayload) EventType() EventType { return EventSessionClosed }

// =============================================================================
// MUTATION EVENTS
// =============================================================================

type DraftUpdatedPayload struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (DraftUpdatedPayload) EventType() EventType { return EventDraftUpdated }

type TaskCreatedPayload struct {
	Task todo.Task `json:"task"`
}

func (TaskCreatedPayload) EventType() EventType { return EventTaskCreated }

type TaskStatusPayload struct {
	TaskID string      `json:"task_id"`
	Status todo.Status `json:"status"`
	Found  bool        `json:"found"`
}

func (TaskStatusPayload) EventType() EventType { return EventTaskStatus }

type FilterChangedPayload struct {
	Filter todo.Filter `json:"filter"`
}

func (FilterChangedPayload) EventType() EventType { return EventFilterChanged }

// =============================================================================
// STATE EVENTS
// =============================================================================

type StateChangedPayload struct {
	Snapshot store.Snapshot `json:"snapshot"`
}

func (StateChangedPayload) EventType() EventType { return EventStateChanged }

// =============================================================================
// TYPED EVENT CONSTRUCTORS
// =============================================================================

func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return NewEvent(payload.EventType(), source, toMap(payload))
}

func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

func toMap(v any) map[string]any {
	var result map[string]any
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}
	return result
}

// =============================================================================
// TYPED PAYLOAD EXTRACTORS
// =============================================================================

func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var result T
	if e.Type != result.EventType() {
		return result, false
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return result, false
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false
	}
	return result, true
}

func GetStateChangedPayload(e Event) (StateChangedPayload, bool) {
	return ExtractPayload[StateChangedPayload](e)
}

func GetTaskCreatedPayload(e Event) (TaskCreatedPayload, bool) {
	return ExtractPayload[TaskCreatedPayload](e)
}
