package gateway

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

type createdSession struct {
	ID string `json:"id"`
	store.Snapshot
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func createSession(t *testing.T, srv *Server, body string) createdSession {
	t.Helper()
	w := do(t, srv, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[createdSession](t, w.Body.Bytes())
}

func addTask(t *testing.T, srv *Server, id, title, due string) todo.Task {
	t.Helper()
	body, err := json.Marshal(map[string]string{"title": title, "duedate": due})
	require.NoError(t, err)
	w := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/tasks", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[todo.Task](t, w.Body.Bytes())
}

func TestAPICreateSession(t *testing.T) {
	srv := newTestServer(t)

	hooks := createSession(t, srv, "")
	assert.Regexp(t, `^sess_`, hooks.ID)
	assert.Equal(t, store.VariantHooks, hooks.Variant)
	assert.Equal(t, todo.FilterAll, hooks.Filter)
	assert.Empty(t, hooks.Tasks)

	signals := createSession(t, srv, `{"variant":"signals"}`)
	assert.Equal(t, store.VariantSignals, signals.Variant)

	w := do(t, srv, http.MethodPost, "/api/sessions", `{"variant":"vdom"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)

	w = do(t, srv, http.MethodPost, "/api/sessions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIListGetDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	a := createSession(t, srv, "")
	b := createSession(t, srv, `{"variant":"signals"}`)

	w := do(t, srv, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]sessions.Summary](t, w.Body.Bytes())
	require.Len(t, list, 2)
	ids := []string{list[0].ID, list[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+b.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, store.VariantSignals, decode[store.Snapshot](t, w.Body.Bytes()).Variant)

	w = do(t, srv, http.MethodDelete, "/api/sessions/"+b.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+b.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodDelete, "/api/sessions/"+b.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPITooManySessions(t *testing.T) {
	srv := newTestServer(t)
	for range 10 {
		createSession(t, srv, "")
	}
	w := do(t, srv, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAPISetField(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")

	w := do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/draft", `{"name":"title","value":"Buy milk"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, todo.Draft{Title: "Buy milk"}, decode[todo.Draft](t, w.Body.Bytes()))

	w = do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/draft", `{"name":"duedate","value":"tomorrow"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, todo.Draft{Title: "Buy milk"}, decode[todo.Draft](t, w.Body.Bytes()), "invalid date sanitized to empty")

	w = do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/draft", `{"name":"priority","value":"high"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPut, "/api/sessions/sess_nope/draft", `{"name":"title","value":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPISubmit(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")

	w := do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/draft", `{"name":"title","value":"Buy milk"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodPost, "/api/sessions/"+s.ID+"/tasks", "")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	missing := decode[missingFieldsResponse](t, w.Body.Bytes())
	assert.Equal(t, []string{todo.FieldDueDate}, missing.Missing)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID, "")
	assert.Equal(t, "Buy milk", decode[store.Snapshot](t, w.Body.Bytes()).Draft.Title, "draft retained")

	w = do(t, srv, http.MethodPost, "/api/sessions/"+s.ID+"/tasks", `{"duedate":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	task := decode[todo.Task](t, w.Body.Bytes())
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, "2024-01-01", task.DueDate)
	assert.Equal(t, todo.StatusNew, task.Status)
	assert.NotEmpty(t, task.ID)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID, "")
	snap := decode[store.Snapshot](t, w.Body.Bytes())
	assert.True(t, snap.Draft.IsZero())
	assert.Equal(t, []todo.Task{task}, snap.Tasks)
}

func TestAPISetStatus(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, `{"variant":"signals"}`)
	a := addTask(t, srv, s.ID, "A", "2024-01-01")
	b := addTask(t, srv, s.ID, "B", "2024-01-02")

	w := do(t, srv, http.MethodPatch, "/api/sessions/"+s.ID+"/tasks/"+b.ID, `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[todo.Task](t, w.Body.Bytes())
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, todo.StatusDone, got.Status)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID, "")
	snap := decode[store.Snapshot](t, w.Body.Bytes())
	require.Len(t, snap.Tasks, 2)
	assert.Equal(t, a, snap.Tasks[0], "other task untouched")

	w = do(t, srv, http.MethodPatch, "/api/sessions/"+s.ID+"/tasks/unknown", `{"done":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPatch, "/api/sessions/"+s.ID+"/tasks/"+a.ID, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIFilterAndTasks(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")
	a := addTask(t, srv, s.ID, "A", "2024-01-01")
	b := addTask(t, srv, s.ID, "B", "2024-01-02")

	w := do(t, srv, http.MethodPatch, "/api/sessions/"+s.ID+"/tasks/"+a.ID, `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID+"/tasks?filter=NEW", "")
	require.Equal(t, http.StatusOK, w.Code)
	newOnly := decode[[]todo.Task](t, w.Body.Bytes())
	require.Len(t, newOnly, 1)
	assert.Equal(t, b.ID, newOnly[0].ID)

	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID+"/tasks", "")
	assert.Len(t, decode[[]todo.Task](t, w.Body.Bytes()), 2, "query filter leaves the session filter at ALL")

	w = do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/filter", `{"filter":"DONE"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[store.Snapshot](t, w.Body.Bytes())
	assert.Equal(t, todo.FilterDone, snap.Filter)
	require.Len(t, snap.Visible, 1)
	assert.Equal(t, a.ID, snap.Visible[0].ID)

	w = do(t, srv, http.MethodPut, "/api/sessions/"+s.ID+"/filter", `{"filter":"SOON"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, srv, http.MethodGet, "/api/sessions/"+s.ID+"/tasks?filter=SOON", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIScenarioToggleUnderFilter(t *testing.T) {
	for _, v := range store.Variants {
		t.Run(string(v), func(t *testing.T) {
			srv := newTestServer(t)
			s := createSession(t, srv, `{"variant":"`+string(v)+`"}`)
			base := "/api/sessions/" + s.ID

			visible := func() []todo.Task {
				w := do(t, srv, http.MethodGet, base+"/tasks", "")
				require.Equal(t, http.StatusOK, w.Code)
				return decode[[]todo.Task](t, w.Body.Bytes())
			}
			setFilter := func(f string) {
				w := do(t, srv, http.MethodPut, base+"/filter", `{"filter":"`+f+`"}`)
				require.Equal(t, http.StatusOK, w.Code)
			}

			a := addTask(t, srv, s.ID, "Buy milk", "2024-01-01")
			assert.Equal(t, []todo.Task{a}, visible())

			setFilter("DONE")
			assert.Empty(t, visible())

			w := do(t, srv, http.MethodPatch, base+"/tasks/"+a.ID, `{"done":true}`)
			require.Equal(t, http.StatusOK, w.Code)
			require.Len(t, visible(), 1)
			assert.Equal(t, todo.StatusDone, visible()[0].Status)

			setFilter("NEW")
			assert.Empty(t, visible())
		})
	}
}
