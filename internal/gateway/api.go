package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

type createSessionRequest struct {
	Variant store.Variant `json:"variant"`
}

type setFieldRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type submitRequest struct {
	Title   *string `json:"title"`
	DueDate *string `json:"duedate"`
}

type setStatusRequest struct {
	Done *bool `json:"done"`
}

type setFilterRequest struct {
	Filter todo.Filter `json:"filter"`
}

type missingFieldsResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing"`
}

// decodeBody decodes an optional JSON body; an empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Variant == "" {
		req.Variant = s.defaultVariant
	}

	sess, err := s.sessions.Create(events.SourceHTTP, req.Variant)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
		store.Snapshot
	}{ID: sess.ID, Snapshot: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Close(events.SourceHTTP, id, "deleted"); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req setFieldRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := sess.SetField(events.SourceHTTP, req.Name, fieldValue(req.Name, req.Value)); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot().Draft)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	overlay := make(map[string]string, 2)
	if req.Title != nil {
		overlay[todo.FieldTitle] = *req.Title
	}
	if req.DueDate != nil {
		overlay[todo.FieldDueDate] = fieldValue(todo.FieldDueDate, *req.DueDate)
	}

	task, err := sess.SubmitDraft(events.SourceHTTP, overlay)
	if err != nil {
		var missing *todo.MissingFieldError
		if errors.As(err, &missing) {
			writeJSON(w, http.StatusUnprocessableEntity, missingFieldsResponse{Error: err.Error(), Missing: missing.Fields})
			return
		}
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Done == nil {
		writeError(w, http.StatusBadRequest, errors.New(`missing "done"`))
		return
	}

	taskID := chi.URLParam(r, "taskID")
	found, err := sess.SetStatus(events.SourceHTTP, taskID, *req.Done)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("task not found: %s", taskID))
		return
	}

	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, snap.Tasks[todo.IndexOf(snap.Tasks, taskID)])
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req setFilterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := sess.SetFilter(events.SourceHTTP, req.Filter); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query().Get("filter")
	if q == "" {
		writeJSON(w, http.StatusOK, sess.Snapshot().Visible)
		return
	}

	f, err := todo.ParseFilter(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.View(f))
}
