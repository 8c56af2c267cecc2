package store

import (
	"slices"

	"github.com/dohr-michael/duet/internal/reactive/hooks"
	"github.com/dohr-michael/duet/internal/todo"
)

// HooksStore re-renders on every state change. The visible list is memoized
// on the versions of the tasks and filter states, so a draft edit renders
// without deriving again.
type HooksStore struct {
	base

	comp    *hooks.Component
	draft   *hooks.State[todo.Draft]
	tasks   *hooks.State[[]todo.Task]
	filter  *hooks.State[todo.Filter]
	visible *hooks.Memo[[]todo.Task]

	// Output of the last render.
	view        []todo.Task
	listUpdates int
}

var _ Store = (*HooksStore)(nil)

// NewHooks creates and mounts a hooks store.
func NewHooks(opts ...Option) *HooksStore {
	s := &HooksStore{base: newBase(VariantHooks, opts)}

	s.comp = hooks.NewComponent(s.render)
	s.draft = hooks.NewState(s.comp, todo.Draft{})
	s.tasks = hooks.NewState(s.comp, []todo.Task{})
	s.filter = hooks.NewState(s.comp, todo.FilterAll)
	s.visible = hooks.NewMemo(func() []todo.Task {
		return todo.Derive(s.tasks.Get(), s.filter.Get())
	})

	s.comp.Mount()
	return s
}

func (s *HooksStore) render() {
	s.view = s.visible.Use(s.tasks, s.filter)
	s.listUpdates++
	s.logger.Debug("rendered", "renders", s.comp.Renders())
	s.emit(s.Snapshot)
}

func (s *HooksStore) Draft() todo.Draft {
	return s.draft.Get()
}

func (s *HooksStore) SetField(name, value string) error {
	d, err := s.draft.Get().SetField(name, value)
	if err != nil {
		return err
	}
	s.draft.Set(d)
	return nil
}

func (s *HooksStore) AddTask(d todo.Draft) todo.Task {
	t := d.Materialize(s.newID())
	s.tasks.Update(func(prev []todo.Task) []todo.Task {
		return appendTask(prev, t)
	})
	return t
}

func (s *HooksStore) Submit() (todo.Task, error) {
	d := s.draft.Get()
	if err := d.Validate(); err != nil {
		return todo.Task{}, err
	}

	var t todo.Task
	s.comp.Batch(func() {
		t = s.AddTask(d)
		s.draft.Set(todo.Draft{})
	})
	return t, nil
}

func (s *HooksStore) SetStatus(id string, done bool) bool {
	next, ok, changed := withStatus(s.tasks.Get(), id, todo.StatusFor(done))
	if !ok {
		s.unknownTask(id)
		return false
	}
	if changed {
		s.tasks.Set(next)
	}
	return true
}

func (s *HooksStore) Tasks() []todo.Task {
	return slices.Clone(s.tasks.Get())
}

func (s *HooksStore) Filter() todo.Filter {
	return s.filter.Get()
}

func (s *HooksStore) SetFilter(f todo.Filter) error {
	if _, err := todo.ParseFilter(string(f)); err != nil {
		return err
	}
	// Same value: the state hook bails out without rendering.
	if f == s.filter.Get() {
		return nil
	}
	s.filter.Set(f)
	return nil
}

func (s *HooksStore) Visible() []todo.Task {
	return slices.Clone(s.view)
}

func (s *HooksStore) Stats() Stats {
	return Stats{
		Renders:     s.comp.Renders(),
		Derivations: s.visible.Computations(),
		ListUpdates: s.listUpdates,
	}
}

func (s *HooksStore) Snapshot() Snapshot {
	return Snapshot{
		Variant: s.variant,
		Draft:   s.draft.Get(),
		Filter:  s.filter.Get(),
		Tasks:   s.Tasks(),
		Visible: s.Visible(),
		Stats:   s.Stats(),
	}
}
