package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/dohr-michael/duet/internal/todo"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		TitleStyle.Render("Todo"),
		m.viewForm(),
		m.viewFilter(),
		m.viewList(),
		m.viewStatus(),
		m.viewFooter(),
		m.help.View(m.helpKeys()),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) viewForm() string {
	labels := []string{"Title", "Due date"}
	rows := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		style := LabelStyle
		if focusArea(i) == m.focus {
			style = FocusedLabelStyle
		}
		rows[i] = style.Render(labels[i]) + in.View()
	}
	rows = append(rows, MutedStyle.Render(strings.Repeat(" ", LabelStyle.GetWidth())+"[ Register Todo ]"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) viewFilter() string {
	current := m.store.Filter()
	parts := make([]string, 0, len(todo.Filters)+1)
	parts = append(parts, LabelStyle.Render("Filter"))
	for _, f := range todo.Filters {
		if f == current {
			parts = append(parts, ActiveFilterStyle.Render(string(f)))
		} else {
			parts = append(parts, FilterStyle.Render(string(f)))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewList() string {
	border := ListBorderStyle
	if m.focus == focusList {
		border = FocusedListBorderStyle
	}
	if m.width > 4 {
		border = border.Width(m.width - 2)
	}

	visible := m.store.Visible()
	if len(visible) == 0 {
		return border.Render(MutedStyle.Render("nothing to show"))
	}

	lines := make([]string, len(visible))
	for i, t := range visible {
		lines[i] = m.viewTask(t)
	}
	return border.Render(strings.Join(lines, "\n"))
}

func (m Model) viewTask(t todo.Task) string {
	pointer := "  "
	if m.focus == focusList && t.ID == m.cursorID {
		pointer = CursorStyle.Render("> ")
	}
	box, style := "[ ]", TaskStyle
	if t.Done() {
		box, style = "[x]", DoneTaskStyle
	}
	return fmt.Sprintf("%s%s %s  %s", pointer, box, style.Render(t.Title), MutedStyle.Render(t.DueDate))
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return ErrorStyle.Render(m.status)
	}
	return MutedStyle.Render(m.status)
}

func (m Model) viewFooter() string {
	st := m.store.Stats()
	content := fmt.Sprintf("%s · renders %d · derivations %d · list updates %d",
		m.store.Variant(), st.Renders, st.Derivations, st.ListUpdates)
	style := StatusBarStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	return style.Render(content)
}

func (m Model) helpKeys() help.KeyMap {
	if m.focus == focusList {
		return listKeys{m.keys}
	}
	return formKeys{m.keys}
}
