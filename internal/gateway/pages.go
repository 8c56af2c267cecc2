package gateway

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageData struct {
	SessionID string
	Snapshot  store.Snapshot
	Filters   []todo.Filter
	Missing   []string
	Error     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	v := s.defaultVariant
	if q := r.URL.Query().Get("variant"); q != "" {
		parsed, err := store.ParseVariant(q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v = parsed
	}

	sess, err := s.sessions.Create(events.SourceHTTP, v)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Redirect(w, r, "/s/"+sess.ID, http.StatusSeeOther)
}

// pageSession is session() for HTML routes: errors are plain text.
func (s *Server) pageSession(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return nil, false
	}
	return sess, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	s.renderPage(w, http.StatusOK, pageData{SessionID: sess.ID, Snapshot: sess.Snapshot()})
}

func (s *Server) handlePageSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(todo.Fields))
	for _, name := range todo.Fields {
		if _, present := r.PostForm[name]; present {
			fields[name] = fieldValue(name, r.PostForm.Get(name))
		}
	}

	if _, err := sess.SubmitDraft(events.SourceHTTP, fields); err != nil {
		data := pageData{SessionID: sess.ID, Snapshot: sess.Snapshot()}
		var missing *todo.MissingFieldError
		if errors.As(err, &missing) {
			data.Missing = missing.Fields
			s.renderPage(w, http.StatusUnprocessableEntity, data)
			return
		}
		data.Error = err.Error()
		s.renderPage(w, statusFor(err), data)
		return
	}
	s.redirectToPage(w, r, sess.ID)
}

func (s *Server) handlePageStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	taskID := chi.URLParam(r, "taskID")
	done := r.PostForm.Get("done") == "true"
	found, err := sess.SetStatus(events.SourceHTTP, taskID, done)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if !found {
		http.Error(w, "task not found: "+taskID, http.StatusNotFound)
		return
	}
	s.redirectToPage(w, r, sess.ID)
}

func (s *Server) handlePageFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.pageSession(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := sess.SetFilter(events.SourceHTTP, todo.Filter(r.PostForm.Get("filter"))); err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	s.redirectToPage(w, r, sess.ID)
}

func (s *Server) redirectToPage(w http.ResponseWriter, r *http.Request, id string) {
	http.Redirect(w, r, "/s/"+id, http.StatusSeeOther)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.Filters = todo.Filters

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		slog.Error("render page", "session", data.SessionID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("write page", "error", err)
	}
}
