// Package ws provides a WebSocket client for the duet gateway.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/dohr-michael/duet/internal/events"
	wsprotocol "github.com/dohr-michael/duet/internal/gateway/ws"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// ResponseError is a request the gateway answered with ok=false.
type ResponseError struct {
	Method  wsprotocol.Method
	Message string
	Payload json.RawMessage
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Method, e.Message)
}

// Missing returns the fields a failed submit reported as missing.
func (e *ResponseError) Missing() []string {
	var se wsprotocol.SubmitError
	if len(e.Payload) == 0 || json.Unmarshal(e.Payload, &se) != nil {
		return nil
	}
	return se.Missing
}

// Client is a WebSocket client for the duet gateway. Calls are not safe for
// concurrent use; a single goroutine drives the connection.
type Client struct {
	conn    *websocket.Conn
	reqSeq  uint64
	ctx     context.Context
	cancel  context.CancelFunc
	pending []wsprotocol.Frame
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	conn.SetReadLimit(wsprotocol.MaxFrameSize)

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// Send writes a request frame and returns its id without waiting for the
// response.
func (c *Client) Send(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame, err := wsprotocol.NewRequestFrame(id, method, params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}
	if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
		return "", fmt.Errorf("ws write: %w", err)
	}
	return id, nil
}

// Call sends a request and waits for its response, decoding the payload into
// out when out is non-nil. Event frames read meanwhile are kept for ReadFrame.
func (c *Client) Call(method wsprotocol.Method, params, out any) error {
	id, err := c.Send(method, params)
	if err != nil {
		return err
	}

	for {
		frame, err := c.read()
		if err != nil {
			return err
		}
		if frame.Type != wsprotocol.FrameTypeResponse || frame.ID != id {
			c.pending = append(c.pending, frame)
			continue
		}
		if frame.OK == nil || !*frame.OK {
			return &ResponseError{Method: method, Message: frame.Error, Payload: frame.Payload}
		}
		if out != nil && len(frame.Payload) > 0 {
			if err := json.Unmarshal(frame.Payload, out); err != nil {
				return fmt.Errorf("decode %s response: %w", method, err)
			}
		}
		return nil
	}
}

// OpenSession binds the connection to sessionID, or to a new session of
// variant v when sessionID is empty.
func (c *Client) OpenSession(sessionID string, v store.Variant) (wsprotocol.OpenSessionResult, error) {
	var res wsprotocol.OpenSessionResult
	err := c.Call(wsprotocol.MethodOpenSession, wsprotocol.OpenSessionParams{SessionID: sessionID, Variant: v}, &res)
	return res, err
}

// SetField edits the draft of the bound session.
func (c *Client) SetField(name, value string) (todo.Draft, error) {
	var d todo.Draft
	err := c.Call(wsprotocol.MethodSetField, wsprotocol.SetFieldParams{Name: name, Value: value}, &d)
	return d, err
}

// Submit creates a task from the draft.
func (c *Client) Submit() (todo.Task, error) {
	var t todo.Task
	err := c.Call(wsprotocol.MethodSubmit, nil, &t)
	return t, err
}

// SetStatus toggles a task and reports whether it existed.
func (c *Client) SetStatus(id string, done bool) (bool, error) {
	var res wsprotocol.SetStatusResult
	err := c.Call(wsprotocol.MethodSetStatus, wsprotocol.SetStatusParams{ID: id, Done: done}, &res)
	return res.Found, err
}

// SetFilter changes the filter and returns the resulting state.
func (c *Client) SetFilter(f todo.Filter) (store.Snapshot, error) {
	var snap store.Snapshot
	err := c.Call(wsprotocol.MethodSetFilter, wsprotocol.SetFilterParams{Filter: f}, &snap)
	return snap, err
}

// Snapshot fetches the current state of the bound session.
func (c *Client) Snapshot() (store.Snapshot, error) {
	var snap store.Snapshot
	err := c.Call(wsprotocol.MethodSnapshot, nil, &snap)
	return snap, err
}

// ReadFrame returns the next frame, starting with those buffered by Call.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	if len(c.pending) > 0 {
		f := c.pending[0]
		c.pending = c.pending[1:]
		return f, nil
	}
	return c.read()
}

func (c *Client) read() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// SnapshotFromFrame extracts the snapshot carried by a state.changed event.
func SnapshotFromFrame(f wsprotocol.Frame) (store.Snapshot, bool) {
	if f.Type != wsprotocol.FrameTypeEvent || f.Event != string(events.EventStateChanged) {
		return store.Snapshot{}, false
	}
	var p events.StateChangedPayload
	if err := json.Unmarshal(f.Payload, &p); err != nil {
		return store.Snapshot{}, false
	}
	return p.Snapshot, true
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	defer c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
