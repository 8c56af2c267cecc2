package todo

import "fmt"

// Filter selects which tasks are visible. It never changes the collection.
type Filter string

const (
	FilterAll  Filter = "ALL"
	FilterNew  Filter = "NEW"
	FilterDone Filter = "DONE"
)

// Filters lists the options of the filter control, in display order.
var Filters = []Filter{FilterAll, FilterNew, FilterDone}

// ParseFilter accepts exactly ALL, NEW or DONE.
func ParseFilter(s string) (Filter, error) {
	f := Filter(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
	return f, nil
}

// Valid reports whether f is one of the three filter options.
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterNew, FilterDone:
		return true
	}
	return false
}

// Matches reports whether a task with status s is visible under f.
func (f Filter) Matches(s Status) bool {
	return f == FilterAll || Status(f) == s
}

// Next cycles ALL -> NEW -> DONE -> ALL.
func (f Filter) Next() Filter {
	switch f {
	case FilterAll:
		return FilterNew
	case FilterNew:
		return FilterDone
	default:
		return FilterAll
	}
}

// Derive returns the tasks visible under f, preserving their relative order.
// The result is always a fresh slice; tasks is never modified.
func Derive(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t.Status) {
			out = append(out, t)
		}
	}
	return out
}

// IndexOf returns the position of the task with the given id, or -1.
func IndexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
