package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dohr-michael/duet/internal/events"
	"github.com/dohr-michael/duet/internal/sessions"
	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

type testConn struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
	seq  int
}

func newTestHub(t *testing.T) (*sessions.Manager, string) {
	t.Helper()
	bus := events.NewBus(256)
	t.Cleanup(bus.Close)

	manager := sessions.NewManager(bus)
	hub := NewHub(bus, manager, store.VariantSignals)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return manager, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *testConn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &testConn{t: t, ctx: ctx, conn: conn}
}

func (c *testConn) read() Frame {
	c.t.Helper()
	_, data, err := c.conn.Read(c.ctx)
	require.NoError(c.t, err)
	f, err := UnmarshalFrame(data)
	require.NoError(c.t, err)
	return f
}

// call sends a request and returns its response, discarding event frames.
func (c *testConn) call(method Method, params any) Frame {
	c.t.Helper()
	c.seq++
	id := "req-" + strconv.Itoa(c.seq)
	f, err := NewRequestFrame(id, method, params)
	require.NoError(c.t, err)
	data, err := MarshalFrame(f)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.Write(c.ctx, websocket.MessageText, data))

	for {
		got := c.read()
		if got.Type == FrameTypeResponse && got.ID == id {
			return got
		}
	}
}

// nextEvent returns the next event frame of the given type.
func (c *testConn) nextEvent(event events.EventType) Frame {
	c.t.Helper()
	for {
		got := c.read()
		if got.Type == FrameTypeEvent && got.Event == string(event) {
			return got
		}
	}
}

func payload[T any](t *testing.T, f Frame) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(f.Payload, &v))
	return v
}

func ok(f Frame) bool {
	return f.OK != nil && *f.OK
}

func TestHubRequiresSession(t *testing.T) {
	_, url := newTestHub(t)
	c := dial(t, url)

	res := c.call(MethodSnapshot, nil)
	assert.False(t, ok(res))
	assert.Contains(t, res.Error, "open_session")
}

func TestHubOpenSessionDefaultsVariant(t *testing.T) {
	manager, url := newTestHub(t)
	c := dial(t, url)

	res := c.call(MethodOpenSession, nil)
	require.True(t, ok(res), res.Error)
	opened := payload[OpenSessionResult](t, res)
	assert.Equal(t, store.VariantSignals, opened.Snapshot.Variant)

	_, err := manager.Get(opened.SessionID)
	assert.NoError(t, err)

	res = c.call(MethodOpenSession, OpenSessionParams{SessionID: "sess_missing"})
	assert.False(t, ok(res))
}

func TestHubDrivesSession(t *testing.T) {
	_, url := newTestHub(t)
	c := dial(t, url)

	res := c.call(MethodOpenSession, OpenSessionParams{Variant: store.VariantHooks})
	require.True(t, ok(res), res.Error)

	res = c.call(MethodSetField, SetFieldParams{Name: todo.FieldTitle, Value: "Buy milk"})
	require.True(t, ok(res), res.Error)
	assert.Equal(t, "Buy milk", payload[todo.Draft](t, res).Title)

	res = c.call(MethodSubmit, nil)
	assert.False(t, ok(res))
	assert.Equal(t, []string{todo.FieldDueDate}, payload[SubmitError](t, res).Missing)

	res = c.call(MethodSetField, SetFieldParams{Name: todo.FieldDueDate, Value: "2024-01-01"})
	require.True(t, ok(res), res.Error)
	res = c.call(MethodSubmit, nil)
	require.True(t, ok(res), res.Error)
	task := payload[todo.Task](t, res)
	assert.Equal(t, todo.StatusNew, task.Status)

	res = c.call(MethodSetStatus, SetStatusParams{ID: task.ID, Done: true})
	require.True(t, ok(res), res.Error)
	assert.True(t, payload[SetStatusResult](t, res).Found)

	res = c.call(MethodSetStatus, SetStatusParams{ID: "nope", Done: true})
	require.True(t, ok(res), res.Error)
	assert.False(t, payload[SetStatusResult](t, res).Found)

	res = c.call(MethodSetFilter, SetFilterParams{Filter: todo.FilterNew})
	require.True(t, ok(res), res.Error)
	assert.Empty(t, payload[store.Snapshot](t, res).Visible)

	res = c.call(MethodSetFilter, SetFilterParams{Filter: "SOON"})
	assert.False(t, ok(res))

	res = c.call(Method("rename"), nil)
	assert.False(t, ok(res))
	assert.Contains(t, res.Error, "unknown method")
}

func TestHubForwardsStateOfBoundSession(t *testing.T) {
	manager, url := newTestHub(t)
	watcher := dial(t, url)
	actor := dial(t, url)

	res := actor.call(MethodOpenSession, nil)
	require.True(t, ok(res), res.Error)
	id := payload[OpenSessionResult](t, res).SessionID

	res = watcher.call(MethodOpenSession, OpenSessionParams{SessionID: id})
	require.True(t, ok(res), res.Error)

	// A mutation on another session must not reach the watcher.
	other, err := manager.Create(events.SourceHTTP, store.VariantHooks)
	require.NoError(t, err)
	require.NoError(t, other.SetFilter(events.SourceHTTP, todo.FilterDone))

	res = actor.call(MethodSetFilter, SetFilterParams{Filter: todo.FilterDone})
	require.True(t, ok(res), res.Error)

	evt := watcher.nextEvent(events.EventStateChanged)
	assert.Equal(t, id, evt.SessionID)
	state := payload[events.StateChangedPayload](t, evt)
	assert.Equal(t, todo.FilterDone, state.Snapshot.Filter)

	require.NoError(t, manager.Close(events.SourceHTTP, id, sessions.ReasonClosed))
	closed := watcher.nextEvent(events.EventSessionClosed)
	assert.Equal(t, id, closed.SessionID)
}
