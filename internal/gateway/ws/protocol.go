package ws

import (
	"encoding/json"

	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// FrameType represents the type of WebSocket frame.
type FrameType string

const (
	FrameTypeRequest  FrameType = "req"
	FrameTypeResponse FrameType = "res"
	FrameTypeEvent    FrameType = "event"
)

// Method represents a WebSocket request method.
type Method string

const (
	MethodOpenSession Method = "open_session"
	MethodSetField    Method = "set_field"
	MethodSubmit      Method = "submit"
	MethodSetStatus   Method = "set_status"
	MethodSetFilter   Method = "set_filter"
	MethodSnapshot    Method = "snapshot"
)

// MaxFrameSize bounds one incoming frame on both ends. Snapshots carry the
// whole collection twice (tasks and visible), so the library default of
// 32 KiB is reached at a few hundred tasks.
const MaxFrameSize int64 = 64 << 20

// Frame is the WebSocket protocol envelope.
type Frame struct {
	Type      FrameType       `json:"type"`
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	OK        *bool           `json:"ok,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	Event     string          `json:"event,omitempty"`
	SessionID string          `json:"session_id,omitempty"`
}

// OpenSessionParams binds a connection to an existing session, or to a new
// one of Variant when SessionID is empty.
type OpenSessionParams struct {
	SessionID string        `json:"session_id,omitempty"`
	Variant   store.Variant `json:"variant,omitempty"`
}

// OpenSessionResult answers open_session.
type OpenSessionResult struct {
	SessionID string         `json:"session_id"`
	Snapshot  store.Snapshot `json:"snapshot"`
}

type SetFieldParams struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type SetStatusParams struct {
	ID   string `json:"id"`
	Done bool   `json:"done"`
}

type SetFilterParams struct {
	Filter todo.Filter `json:"filter"`
}

// SetStatusResult reports whether the task existed.
type SetStatusResult struct {
	Found bool `json:"found"`
}

// SubmitError is the payload of a failed submit.
type SubmitError struct {
	Missing []string `json:"missing"`
}

// MarshalFrame serializes a Frame to JSON bytes.
func MarshalFrame(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// UnmarshalFrame deserializes JSON bytes into a Frame.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(data, &f)
	return f, err
}

// NewRequestFrame creates a request Frame.
func NewRequestFrame(id string, method Method, params any) (Frame, error) {
	f := Frame{
		Type:   FrameTypeRequest,
		ID:     id,
		Method: string(method),
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Frame{}, err
		}
		f.Params = data
	}
	return f, nil
}

// NewEventFrame creates a Frame for broadcasting an event.
func NewEventFrame(event string, sessionID string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Type:      FrameTypeEvent,
		Event:     event,
		SessionID: sessionID,
		Payload:   data,
	}, nil
}

// NewResponseFrame creates a response Frame.
func NewResponseFrame(id string, ok bool, payload any, errMsg string) (Frame, error) {
	f := Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: errMsg,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Frame{}, err
		}
		f.Payload = data
	}
	return f, nil
}
