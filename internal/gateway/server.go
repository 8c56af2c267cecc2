// Package gateway serves the task list over HTTP: server-rendered pages, a
// JSON API and the websocket endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/gateway/ws"
	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

// Server is the duet gateway HTTP server.
type Server struct {
	httpServer     *http.Server
	hub            *ws.Hub
	bus            *events.Bus
	sessions       *sessions.Manager
	defaultVariant store.Variant

	mu   sync.Mutex
	addr string
}

// NewServer creates a new gateway server. Sessions created without an
// explicit variant use defaultVariant.
func NewServer(bus *events.Bus, manager *sessions.Manager, host string, port int, defaultVariant store.Variant) *Server {
	hub := ws.NewHub(bus, manager, defaultVariant)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	s := &Server{
		hub:            hub,
		bus:            bus,
		sessions:       manager,
		defaultVariant: defaultVariant,
	}

	// Pages
	r.Get("/", s.handleIndex)
	r.Route("/s/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handlePage)
		r.Post("/tasks", s.handlePageSubmit)
		r.Post("/tasks/{taskID}/status", s.handlePageStatus)
		r.Post("/filter", s.handlePageFilter)
	})

	// API
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", s.handleListSessions)
		r.Post("/", s.handleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/draft", s.handleSetField)
			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleSubmit)
			r.Patch("/tasks/{taskID}", s.handleSetStatus)
			r.Put("/filter", s.handleSetFilter)
		})
	})

	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	slog.Info("duet gateway listening", "addr", ln.Addr().String())
	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Addr returns the bound address once Start has begun listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"clients":  s.hub.Len(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		SessionID string             `json:"session_id,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			SessionID: e.SessionID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, http.StatusOK, result)
}

// session resolves {sessionID}, writing the error response itself when it
// cannot.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return nil, false
	}
	return sess, true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrClosed):
		return http.StatusGone
	case errors.Is(err, sessions.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, todo.ErrMissingField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, todo.ErrInvalidFilter),
		errors.Is(err, todo.ErrUnknownField),
		errors.Is(err, todo.ErrInvalidStatus),
		errors.Is(err, store.ErrUnknownVariant):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fieldValue applies the date input's sanitization to the due date.
func fieldValue(name, value string) string {
	if name == todo.FieldDueDate {
		return todo.SanitizeDate(value)
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
