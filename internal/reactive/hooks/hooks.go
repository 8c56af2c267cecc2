// Package hooks implements whole-component re-rendering: every state change
// runs the render function again, and derived values are memoized against
// the versions of the states they were declared to depend on.
//
// A Component and its states are not safe for concurrent use.
package hooks

// Component owns a render function and the states that trigger it.
type Component struct {
	render  func()
	mounted bool
	renders int

	batchDepth int
	dirty      bool
	rendering  bool
}

// NewComponent creates an unmounted component.
func NewComponent(render func()) *Component {
	return &Component{render: render}
}

// Mount performs the first render. Calling it again is a no-op.
func (c *Component) Mount() {
	if c.mounted {
		return
	}
	c.mounted = true
	c.run()
}

// Renders returns how many times the render function has run.
func (c *Component) Renders() int {
	return c.renders
}

// Batch runs fn and re-renders at most once afterwards, however many states
// fn changed.
func (c *Component) Batch(fn func()) {
	c.batchDepth++
	defer func() {
		c.batchDepth--
		if c.batchDepth == 0 && c.dirty {
			c.run()
		}
	}()
	fn()
}

func (c *Component) invalidate() {
	c.dirty = true
	if c.batchDepth > 0 || c.rendering || !c.mounted {
		return
	}
	c.run()
}

func (c *Component) run() {
	c.dirty = false
	c.rendering = true
	c.renders++
	c.render()
	c.rendering = false

	// A render that set state schedules one more pass.
	if c.dirty && c.batchDepth == 0 {
		c.run()
	}
}

// Dep is a memo dependency: anything whose version changes when its value does.
type Dep interface {
	Version() uint64
}

// State is a mutable cell owned by a component.
type State[T any] struct {
	owner   *Component
	value   T
	version uint64
}

// NewState declares a state on c.
func NewState[T any](c *Component, initial T) *State[T] {
	return &State[T]{owner: c, value: initial}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	return s.value
}

// Set replaces the value and re-renders the owning component.
func (s *State[T]) Set(v T) {
	s.value = v
	s.version++
	s.owner.invalidate()
}

// Update sets the value computed from the previous one.
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Version increments on every Set.
func (s *State[T]) Version() uint64 {
	return s.version
}

// Memo caches the result of compute until one of its dependencies changes.
type Memo[T any] struct {
	compute      func() T
	value        T
	deps         []uint64
	valid        bool
	computations int
}

// NewMemo creates an empty memo.
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{compute: compute}
}

// Use returns the cached value, recomputing it first if the dependency list
// differs from the previous call.
func (m *Memo[T]) Use(deps ...Dep) T {
	if m.valid && m.same(deps) {
		return m.value
	}
	m.value = m.compute()
	m.computations++
	m.valid = true
	m.deps = m.deps[:0]
	for _, d := range deps {
		m.deps = append(m.deps, d.Version())
	}
	return m.value
}

// Computations returns how many times compute has run.
func (m *Memo[T]) Computations() int {
	return m.computations
}

func (m *Memo[T]) same(deps []Dep) bool {
	if len(deps) != len(m.deps) {
		return false
	}
	for i, d := range deps {
		if d.Version() != m.deps[i] {
			return false
		}
	}
	return true
}
