// Package ws serves the websocket surface: each connection binds to one
// session, drives it with request frames and receives its state as events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// SessionProvider resolves and creates sessions.
type SessionProvider interface {
	Create(src events.EventSource, v store.Variant) (*sessions.Session, error)
	Get(id string) (*sessions.Session, error)
}

// Client represents a connected WebSocket client.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	hub  *Hub

	// Only touched from the read loop.
	session     *sessions.Session
	unsubscribe func()
}

// Hub manages WebSocket clients and bridges their sessions' events to them.
type Hub struct {
	mu             sync.RWMutex
	clients        map[*Client]struct{}
	bus            *events.Bus
	sessions       SessionProvider
	defaultVariant store.Variant
}

// NewHub creates a new WebSocket hub. Sessions opened without a variant use
// defaultVariant.
func NewHub(bus *events.Bus, sp SessionProvider, defaultVariant store.Variant) *Hub {
	return &Hub{
		clients:        make(map[*Client]struct{}),
		bus:            bus,
		sessions:       sp,
		defaultVariant: defaultVariant,
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	slog.Info("ws client connected", "clients", len(h.clients))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.done)
		slog.Info("ws client disconnected", "clients", len(h.clients))
	}
}

// ServeWS handles a WebSocket upgrade and manages the client lifecycle.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // any origin, local tool
	})
	if err != nil {
		slog.Error("ws accept", "error", err)
		return
	}
	conn.SetReadLimit(MaxFrameSize)

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
		hub:  h,
	}

	h.register(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.unbind()
		c.hub.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("ws read closed", "status", websocket.CloseStatus(err))
			} else {
				slog.Debug("ws read error", "error", err)
			}
			return
		}

		frame, err := UnmarshalFrame(data)
		if err != nil {
			slog.Warn("ws unmarshal frame", "error", err)
			continue
		}

		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame Frame) {
	switch frame.Type {
	case FrameTypeRequest:
		c.handleRequest(frame)
	default:
		slog.Debug("ws unknown frame type", "type", frame.Type)
	}
}

func (c *Client) handleRequest(frame Frame) {
	if Method(frame.Method) == MethodOpenSession {
		c.openSession(frame)
		return
	}

	s := c.session
	if s == nil {
		c.sendError(frame.ID, "no session: call open_session first", nil)
		return
	}

	switch Method(frame.Method) {
	case MethodSetField:
		var params SetFieldParams
		if !c.decode(frame, &params) {
			return
		}
		if err := s.SetField(events.SourceWS, params.Name, params.Value); err != nil {
			c.sendError(frame.ID, err.Error(), nil)
			return
		}
		c.sendOK(frame.ID, s.Snapshot().Draft)

	case MethodSubmit:
		task, err := s.Submit(events.SourceWS)
		if err != nil {
			var missing *todo.MissingFieldError
			if errors.As(err, &missing) {
				c.sendError(frame.ID, err.Error(), SubmitError{Missing: missing.Fields})
				return
			}
			c.sendError(frame.ID, err.Error(), nil)
			return
		}
		c.sendOK(frame.ID, task)

	case MethodSetStatus:
		var params SetStatusParams
		if !c.decode(frame, &params) {
			return
		}
		found, err := s.SetStatus(events.SourceWS, params.ID, params.Done)
		if err != nil {
			c.sendError(frame.ID, err.Error(), nil)
			return
		}
		c.sendOK(frame.ID, SetStatusResult{Found: found})

	case MethodSetFilter:
		var params SetFilterParams
		if !c.decode(frame, &params) {
			return
		}
		if err := s.SetFilter(events.SourceWS, params.Filter); err != nil {
			c.sendError(frame.ID, err.Error(), nil)
			return
		}
		c.sendOK(frame.ID, s.Snapshot())

	case MethodSnapshot:
		c.sendOK(frame.ID, s.Snapshot())

	default:
		c.sendError(frame.ID, "unknown method: "+frame.Method, nil)
	}
}

func (c *Client) openSession(frame Frame) {
	var params OpenSessionParams
	if len(frame.Params) > 0 && !c.decode(frame, &params) {
		return
	}

	var (
		s   *sessions.Session
		err error
	)
	if params.SessionID != "" {
		s, err = c.hub.sessions.Get(params.SessionID)
	} else {
		v := params.Variant
		if v == "" {
			v = c.hub.defaultVariant
		}
		s, err = c.hub.sessions.Create(events.SourceWS, v)
	}
	if err != nil {
		c.sendError(frame.ID, err.Error(), nil)
		return
	}

	c.bind(s)
	c.sendOK(frame.ID, OpenSessionResult{SessionID: s.ID, Snapshot: s.Snapshot()})
}

// bind replaces the session whose events this client receives.
func (c *Client) bind(s *sessions.Session) {
	c.unbind()
	c.session = s
	c.unsubscribe = c.hub.bus.SubscribeSession(s.ID, c.forward,
		events.EventStateChanged, events.EventSessionClosed)
	slog.Debug("ws client bound", "session", s.ID)
}

func (c *Client) unbind() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.session = nil
}

// forward runs on the bus dispatch goroutine.
func (c *Client) forward(e events.Event) {
	frame, err := NewEventFrame(string(e.Type), e.SessionID, e.Payload)
	if err != nil {
		slog.Error("marshal event frame", "error", err)
		return
	}
	c.enqueue(frame)
}

func (c *Client) decode(frame Frame, v any) bool {
	if err := json.Unmarshal(frame.Params, v); err != nil {
		c.sendError(frame.ID, "invalid params", nil)
		return false
	}
	return true
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) enqueue(f Frame) {
	data, err := MarshalFrame(f)
	if err != nil {
		slog.Error("marshal frame", "error", err)
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		slog.Debug("ws client too slow, frame dropped", "event", f.Event, "id", f.ID)
	}
}

func (c *Client) sendOK(id string, payload any) {
	f, err := NewResponseFrame(id, true, payload, "")
	if err != nil {
		slog.Error("build response frame", "error", err)
		return
	}
	c.enqueue(f)
}

func (c *Client) sendError(id string, errMsg string, payload any) {
	f, err := NewResponseFrame(id, false, payload, errMsg)
	if err != nil {
		slog.Error("build response frame", "error", err)
		return
	}
	c.enqueue(f)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close(websocket.StatusGoingAway, "server shutdown")
		delete(h.clients, c)
		close(c.done)
	}
}
