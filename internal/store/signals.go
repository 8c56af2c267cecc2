package store

import (
	"slices"

	"github.com/dohr-michael/duet/internal/reactive/signals"
	"github.com/dohr-michael/duet/internal/todo"
)

// SignalsStore runs its component body once. Each rendered region is an
// effect over the signals it reads, and the visible list is a memo that
// re-runs the list effect only when its content actually changed.
type SignalsStore struct {
	base

	rt      *signals.Runtime
	draft   *signals.Signal[todo.Draft]
	tasks   *signals.Signal[[]todo.Task]
	filter  *signals.Signal[todo.Filter]
	visible *signals.Memo[[]todo.Task]

	formEffect   *signals.Effect
	filterEffect *signals.Effect
	listEffect   *signals.Effect

	// Rendered regions.
	form    todo.Draft
	control todo.Filter
	view    []todo.Task

	renders int
}

var _ Store = (*SignalsStore)(nil)

// NewSignals creates a signals store and runs its component body.
func NewSignals(opts ...Option) *SignalsStore {
	s := &SignalsStore{base: newBase(VariantSignals, opts)}
	s.render()
	return s
}

func (s *SignalsStore) render() {
	s.renders++
	s.logger.Debug("rendered", "renders", s.renders)

	s.rt = signals.NewRuntime()
	s.draft = signals.New(s.rt, todo.Draft{})
	s.tasks = signals.New(s.rt, []todo.Task{})
	s.filter = signals.New(s.rt, todo.FilterAll, signals.WithEquals(func(a, b todo.Filter) bool { return a == b }))
	s.visible = signals.NewMemo(s.rt, func() []todo.Task {
		return todo.Derive(s.tasks.Get(), s.filter.Get())
	}, signals.WithEquals(tasksEqual))

	s.formEffect = signals.NewEffect(s.rt, func() { s.form = s.draft.Get() })
	s.filterEffect = signals.NewEffect(s.rt, func() { s.control = s.filter.Get() })
	s.listEffect = signals.NewEffect(s.rt, func() { s.view = s.visible.Get() })
}

// mutate runs fn as one batch and notifies subscribers if it changed state.
func (s *SignalsStore) mutate(fn func() bool) {
	var changed bool
	s.rt.Batch(func() { changed = fn() })
	if changed {
		s.emit(s.Snapshot)
	}
}

func (s *SignalsStore) Draft() todo.Draft {
	return s.form
}

func (s *SignalsStore) SetField(name, value string) error {
	d, err := s.draft.Peek().SetField(name, value)
	if err != nil {
		return err
	}
	s.mutate(func() bool {
		s.draft.Set(d)
		return true
	})
	return nil
}

func (s *SignalsStore) AddTask(d todo.Draft) todo.Task {
	var t todo.Task
	s.mutate(func() bool {
		t = s.addTask(d)
		return true
	})
	return t
}

func (s *SignalsStore) addTask(d todo.Draft) todo.Task {
	t := d.Materialize(s.newID())
	s.tasks.Update(func(prev []todo.Task) []todo.Task {
		return appendTask(prev, t)
	})
	return t
}

func (s *SignalsStore) Submit() (todo.Task, error) {
	d := s.draft.Peek()
	if err := d.Validate(); err != nil {
		return todo.Task{}, err
	}

	var t todo.Task
	s.mutate(func() bool {
		t = s.addTask(d)
		s.draft.Set(todo.Draft{})
		return true
	})
	return t, nil
}

func (s *SignalsStore) SetStatus(id string, done bool) bool {
	next, ok, changed := withStatus(s.tasks.Peek(), id, todo.StatusFor(done))
	if !ok {
		s.unknownTask(id)
		return false
	}
	s.mutate(func() bool {
		if changed {
			s.tasks.Set(next)
		}
		return changed
	})
	return true
}

func (s *SignalsStore) Tasks() []todo.Task {
	return slices.Clone(s.tasks.Peek())
}

func (s *SignalsStore) Filter() todo.Filter {
	return s.control
}

func (s *SignalsStore) SetFilter(f todo.Filter) error {
	if _, err := todo.ParseFilter(string(f)); err != nil {
		return err
	}
	s.mutate(func() bool {
		if f == s.filter.Peek() {
			return false
		}
		s.filter.Set(f)
		return true
	})
	return nil
}

func (s *SignalsStore) Visible() []todo.Task {
	return slices.Clone(s.view)
}

func (s *SignalsStore) Stats() Stats {
	return Stats{
		Renders:     s.renders,
		Derivations: s.visible.Computations(),
		ListUpdates: s.listEffect.Runs(),
	}
}

func (s *SignalsStore) Snapshot() Snapshot {
	return Snapshot{
		Variant: s.variant,
		Draft:   s.form,
		Filter:  s.control,
		Tasks:   s.Tasks(),
		Visible: s.Visible(),
		Stats:   s.Stats(),
	}
}
