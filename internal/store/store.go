// Package store implements the task-list component state twice, once per
// reactive idiom, behind a single contract.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dohr-michael/duet/internal/todo"
)

var ErrUnknownVariant = errors.New("unknown variant")

// Variant names a reactive idiom.
type Variant string

const (
	// VariantHooks re-renders the whole component on every change and memoizes
	// the visible list against explicit dependencies.
	VariantHooks Variant = "hooks"
	// VariantSignals runs the component once and re-runs only the effects whose
	// tracked sources changed.
	VariantSignals Variant = "signals"
)

// Variants lists every available variant.
var Variants = []Variant{VariantHooks, VariantSignals}

// ParseVariant accepts "hooks" or "signals".
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantHooks, VariantSignals:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Store is the state of one task-list component: draft, collection, filter
// and the derived visible list. Implementations are not safe for concurrent
// use.
type Store interface {
	Variant() Variant

	// Draft editor.
	Draft() todo.Draft
	SetField(name, value string) error

	// Task collection.
	AddTask(d todo.Draft) todo.Task
	Submit() (todo.Task, error)
	SetStatus(id string, done bool) bool
	Tasks() []todo.Task

	// Filter selector and derivation.
	Filter() todo.Filter
	SetFilter(f todo.Filter) error
	Visible() []todo.Task

	Snapshot() Snapshot
	Stats() Stats
	// Subscribe registers fn to receive a snapshot after every effective
	// mutation, before the mutating call returns.
	Subscribe(fn func(Snapshot)) (unsubscribe func())
}

// Stats counts how the component reacted to mutations.
type Stats struct {
	Renders     int `json:"renders" yaml:"renders"`
	Derivations int `json:"derivations" yaml:"derivations"`
	ListUpdates int `json:"list_updates" yaml:"list_updates"`
}

// Snapshot is the rendered state of a store.
type Snapshot struct {
	Variant Variant     `json:"variant" yaml:"variant"`
	Draft   todo.Draft  `json:"draft" yaml:"draft"`
	Filter  todo.Filter `json:"filter" yaml:"filter"`
	Tasks   []todo.Task `json:"tasks" yaml:"tasks"`
	Visible []todo.Task `json:"visible" yaml:"visible"`
	Stats   Stats       `json:"stats" yaml:"stats"`
}

// Option configures a store.
type Option func(*base)

// WithIDGenerator replaces todo.NewID.
func WithIDGenerator(fn func() string) Option {
	return func(b *base) { b.newID = fn }
}

// WithLogger sets the logger used for contract violations.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) { b.logger = l }
}

// New creates a store of the given variant.
func New(v Variant, opts ...Option) (Store, error) {
	switch v {
	case VariantHooks:
		return NewHooks(opts...), nil
	case VariantSignals:
		return NewSignals(opts...), nil
	}
	return nil, fmt.Errorf("new store: %w: %q", ErrUnknownVariant, v)
}

type listener struct {
	id int
	fn func(Snapshot)
}

// base holds what both variants share: configuration and subscribers.
type base struct {
	variant   Variant
	newID     func() string
	logger    *slog.Logger
	listeners []listener
	nextID    int
}

func newBase(v Variant, opts []Option) base {
	b := base{
		variant: v,
		newID:   todo.NewID,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	b.logger = b.logger.With("variant", string(v))
	return b
}

func (b *base) Variant() Variant {
	return b.variant
}

func (b *base) Subscribe(fn func(Snapshot)) func() {
	id := b.nextID
	b.nextID++
	b.listeners = append(b.listeners, listener{id: id, fn: fn})

	return func() {
		b.listeners = slices.DeleteFunc(b.listeners, func(l listener) bool { return l.id == id })
	}
}

func (b *base) emit(snap func() Snapshot) {
	if len(b.listeners) == 0 {
		return
	}
	s := snap()
	for _, l := range slices.Clone(b.listeners) {
		l.fn(s)
	}
}

func (b *base) unknownTask(id string) {
	b.logger.Warn("status change for unknown task ignored", "task_id", id)
}

// appendTask returns a new slice; snapshots keep sharing the old one.
func appendTask(tasks []todo.Task, t todo.Task) []todo.Task {
	return append(slices.Clip(tasks), t)
}

// withStatus returns a copy of tasks where the task with id has status s.
// ok is false when no such task exists; changed is false when it already had s.
func withStatus(tasks []todo.Task, id string, s todo.Status) (next []todo.Task, ok, changed bool) {
	i := todo.IndexOf(tasks, id)
	if i < 0 {
		return tasks, false, false
	}
	if tasks[i].Status == s {
		return tasks, true, false
	}
	next = slices.Clone(tasks)
	next[i] = next[i].WithStatus(s)
	return next, true, true
}

func tasksEqual(a, b []todo.Task) bool {
	return slices.Equal(a, b)
}
