package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dohr-michael/duet/internal/store"
	"github.com/dohr-michael/duet/internal/todo"
)

type focusArea int

const (
	focusTitle focusArea = iota
	focusDueDate
	focusList
	focusCount
)

// Model is the root bubbletea model. It owns the store: every mutation
// happens on the Update goroutine.
type Model struct {
	store  store.Store
	inputs []textinput.Model
	focus  focusArea

	// The selected task is tracked by id so the cursor stays on the same
	// task when the visible list changes under it.
	cursorID string

	status    string
	statusErr bool

	keys     keyMap
	help     help.Model
	width    int
	quitting bool
}

// New creates a model over st with the title field focused.
func New(st store.Store) Model {
	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = 256
	title.Prompt = ""

	due := textinput.New()
	due.Placeholder = todo.DateLayout
	due.CharLimit = len(todo.DateLayout)
	due.Prompt = ""

	m := Model{
		store:  st,
		inputs: []textinput.Model{title, due},
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	m.inputs[0].Focus()
	m.syncInputs()
	return m
}

// Store returns the store driven by the model.
func (m Model) Store() store.Store {
	return m.store
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-LabelStyle.GetWidth()-4, 10)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			return m, m.setFocus((m.focus + 1) % focusCount)
		case key.Matches(msg, m.keys.Prev):
			return m, m.setFocus((m.focus + focusCount - 1) % focusCount)
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateForm(msg)
	}

	// Blink and other input internals.
	if m.focus != focusList {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if focusArea(i) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	if f == focusList && m.cursorID == "" {
		if visible := m.store.Visible(); len(visible) > 0 {
			m.cursorID = visible[0].ID
		}
	}
	return cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Submit) {
		m.submit()
		return m, nil
	}

	i := int(m.focus)
	var cmd tea.Cmd
	m.inputs[i], cmd = m.inputs[i].Update(msg)

	name := todo.Fields[i]
	value := m.inputs[i].Value()
	if name == todo.FieldDueDate {
		value = todo.SanitizeDate(value)
	}
	// Only real changes reach the store.
	if current, err := m.store.Draft().Field(name); err == nil && current != value {
		if err := m.store.SetField(name, value); err != nil {
			m.setStatus(err.Error(), true)
		}
	}
	return m, cmd
}

func (m *Model) submit() {
	task, err := m.store.Submit()
	if err != nil {
		var missing *todo.MissingFieldError
		if errors.As(err, &missing) {
			m.setStatus(fmt.Sprintf("required: %v", missing.Fields), true)
			return
		}
		m.setStatus(err.Error(), true)
		return
	}
	m.syncInputs()
	m.setStatus(fmt.Sprintf("registered %q", task.Title), false)
	slog.Debug("task registered", "task_id", task.ID)
	if m.cursorID == "" {
		m.syncCursor(0)
	}
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.store.Visible()
	idx := todo.IndexOf(visible, m.cursorID)

	switch {
	case key.Matches(msg, m.keys.Up):
		if idx > 0 {
			m.cursorID = visible[idx-1].ID
		} else if idx < 0 && len(visible) > 0 {
			m.cursorID = visible[0].ID
		}

	case key.Matches(msg, m.keys.Down):
		if idx >= 0 && idx < len(visible)-1 {
			m.cursorID = visible[idx+1].ID
		} else if idx < 0 && len(visible) > 0 {
			m.cursorID = visible[0].ID
		}

	case key.Matches(msg, m.keys.Toggle):
		if idx < 0 {
			return m, nil
		}
		t := visible[idx]
		m.store.SetStatus(t.ID, !t.Done())
		m.syncCursor(idx)

	case key.Matches(msg, m.keys.Filter):
		next := m.store.Filter().Next()
		if err := m.store.SetFilter(next); err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus("filter: "+string(next), false)
		m.syncCursor(max(idx, 0))
	}
	return m, nil
}

// syncCursor keeps the cursor on its task when still visible, otherwise moves
// it to the task now at index near, or clears it when the list is empty.
func (m *Model) syncCursor(near int) {
	visible := m.store.Visible()
	if todo.IndexOf(visible, m.cursorID) >= 0 {
		return
	}
	if len(visible) == 0 {
		m.cursorID = ""
		return
	}
	m.cursorID = visible[min(near, len(visible)-1)].ID
}

// syncInputs copies the draft into the text inputs, after a submit resets it.
func (m *Model) syncInputs() {
	d := m.store.Draft()
	m.inputs[0].SetValue(d.Title)
	m.inputs[1].SetValue(d.DueDate)
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}
