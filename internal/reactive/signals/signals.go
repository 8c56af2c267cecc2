// Package signals implements fine-grained reactivity: signals hold values,
// memos and effects record which signals they read and re-run only when one
// of those changes.
//
// A Runtime and everything created from it are not safe for concurrent use;
// the owner serializes access.
package signals

import "slices"

// Runtime holds the tracking context and the pending effect queue.
type Runtime struct {
	current    dependent
	batchDepth int
	flushing   bool
	pending    []*Effect
}

// NewRuntime creates an empty runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Batch runs fn and defers effects until the outermost batch returns. Each
// effect runs at most once per flush.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		rt.flush()
	}()
	fn()
}

// Untrack runs fn without recording dependencies for the current computation.
func (rt *Runtime) Untrack(fn func()) {
	prev := rt.current
	rt.current = nil
	defer func() { rt.current = prev }()
	fn()
}

func (rt *Runtime) track(n *node) {
	if rt.current != nil {
		rt.current.addSource(n)
	}
}

func (rt *Runtime) schedule(e *Effect) {
	e.queued = true
	rt.pending = append(rt.pending, e)
	rt.flush()
}

func (rt *Runtime) flush() {
	if rt.batchDepth > 0 || rt.flushing {
		return
	}
	rt.flushing = true
	defer func() { rt.flushing = false }()

	for len(rt.pending) > 0 {
		e := rt.pending[0]
		rt.pending = rt.pending[1:]
		e.queued = false
		if !e.disposed {
			e.run()
		}
	}
}

// observer is notified when one of its sources changes.
type observer interface {
	stale()
}

// dependent is an observer that records the sources it reads.
type dependent interface {
	observer
	addSource(n *node)
}

// node is the observable half of a signal or memo.
type node struct {
	observers []observer
}

func (n *node) subscribe(o observer) {
	if !slices.Contains(n.observers, o) {
		n.observers = append(n.observers, o)
	}
}

func (n *node) unsubscribe(o observer) {
	n.observers = slices.DeleteFunc(n.observers, func(x observer) bool { return x == o })
}

func (n *node) propagate() {
	for _, o := range slices.Clone(n.observers) {
		o.stale()
	}
}

// sources is the tracking half of a memo or effect.
type sources []*node

func (s *sources) add(n *node, self observer) {
	if slices.Contains(*s, n) {
		return
	}
	*s = append(*s, n)
	n.subscribe(self)
}

func (s *sources) clear(self observer) {
	for _, n := range *s {
		n.unsubscribe(self)
	}
	*s = (*s)[:0]
}

// Option configures a Signal or Memo.
type Option[T any] func(*options[T])

type options[T any] struct {
	equals func(a, b T) bool
}

// WithEquals suppresses propagation when the new value equals the old one.
func WithEquals[T any](equals func(a, b T) bool) Option[T] {
	return func(o *options[T]) { o.equals = equals }
}

func applyOptions[T any](opts []Option[T]) options[T] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Signal is a mutable reactive value.
type Signal[T any] struct {
	rt    *Runtime
	node  node
	value T
	opts  options[T]
}

// New creates a signal holding initial.
func New[T any](rt *Runtime, initial T, opts ...Option[T]) *Signal[T] {
	return &Signal[T]{rt: rt, value: initial, opts: applyOptions(opts)}
}

// Get returns the value and records the signal as a dependency of the
// running computation.
func (s *Signal[T]) Get() T {
	s.rt.track(&s.node)
	return s.value
}

// Peek returns the value without tracking.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set replaces the value and notifies dependents.
func (s *Signal[T]) Set(v T) {
	if s.opts.equals != nil && s.opts.equals(s.value, v) {
		return
	}
	s.value = v
	s.rt.batchDepth++
	s.node.propagate()
	s.rt.batchDepth--
	s.rt.flush()
}

// Update sets the value computed from the previous one.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Memo is a derived value, re-evaluated eagerly when a source changes.
type Memo[T any] struct {
	rt      *Runtime
	node    node
	sources sources
	fn      func() T
	value   T
	opts    options[T]

	computations int
}

// NewMemo creates a memo and evaluates it once.
func NewMemo[T any](rt *Runtime, fn func() T, opts ...Option[T]) *Memo[T] {
	m := &Memo[T]{rt: rt, fn: fn, opts: applyOptions(opts)}
	m.evaluate()
	return m
}

// Get returns the memoized value and tracks the memo.
func (m *Memo[T]) Get() T {
	m.rt.track(&m.node)
	return m.value
}

// Computations returns how many times fn has run.
func (m *Memo[T]) Computations() int {
	return m.computations
}

func (m *Memo[T]) addSource(n *node) {
	m.sources.add(n, m)
}

func (m *Memo[T]) stale() {
	if m.evaluate() {
		m.node.propagate()
	}
}

func (m *Memo[T]) evaluate() bool {
	m.sources.clear(m)

	prev := m.rt.current
	m.rt.current = m
	v := m.fn()
	m.rt.current = prev

	m.computations++
	changed := m.computations == 1 || m.opts.equals == nil || !m.opts.equals(m.value, v)
	m.value = v
	return changed
}

// Effect is a side effect that re-runs when a source it read changes.
type Effect struct {
	rt       *Runtime
	sources  sources
	fn       func()
	queued   bool
	disposed bool
	runs     int
}

// NewEffect creates an effect and runs it once immediately.
func NewEffect(rt *Runtime, fn func()) *Effect {
	e := &Effect{rt: rt, fn: fn}
	e.run()
	return e
}

// Runs returns how many times the effect has run.
func (e *Effect) Runs() int {
	return e.runs
}

// Dispose detaches the effect from its sources.
func (e *Effect) Dispose() {
	e.disposed = true
	e.sources.clear(e)
}

func (e *Effect) addSource(n *node) {
	e.sources.add(n, e)
}

func (e *Effect) stale() {
	if e.disposed || e.queued {
		return
	}
	e.rt.schedule(e)
}

func (e *Effect) run() {
	e.sources.clear(e)

	prev := e.rt.current
	e.rt.current = e
	defer func() { e.rt.current = prev }()

	e.runs++
	e.fn()
}
