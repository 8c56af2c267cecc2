package store

import (
	"fmt"

	"github.com/dohr-michael/duet/internal/todo"
)

// Step is one user action against a Store.
type Step struct {
	Name string
	Do   func(Store) error
}

func stepType(name, value string) Step {
	return Step{
		Name: fmt.Sprintf("type %s %q", name, value),
		Do: func(s Store) error {
			// One edit per keystroke, as an input would report them.
			for i := 1; i <= len(value); i++ {
				v := value[:i]
				if name == todo.FieldDueDate {
					v = todo.SanitizeDate(v)
				}
				if cur, err := s.Draft().Field(name); err == nil && cur == v {
					continue
				}
				if err := s.SetField(name, v); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func stepSubmit() Step {
	return Step{Name: "submit", Do: func(s Store) error {
		_, err := s.Submit()
		return err
	}}
}

func stepFilter(f todo.Filter) Step {
	return Step{Name: "filter " + string(f), Do: func(s Store) error {
		return s.SetFilter(f)
	}}
}

func stepToggle(index int) Step {
	return Step{Name: fmt.Sprintf("toggle #%d", index), Do: func(s Store) error {
		tasks := s.Tasks()
		if index >= len(tasks) {
			return fmt.Errorf("toggle #%d: only %d tasks", index, len(tasks))
		}
		s.SetStatus(tasks[index].ID, !tasks[index].Done())
		return nil
	}}
}

// ReferenceScenario creates two tasks through the form and walks the
// filters around a status toggle.
var ReferenceScenario = []Step{
	stepType(todo.FieldTitle, "Buy milk"),
	stepType(todo.FieldDueDate, "2024-01-01"),
	stepSubmit(),
	stepFilter(todo.FilterDone),
	stepToggle(0),
	stepFilter(todo.FilterDone),
	stepFilter(todo.FilterNew),
	stepType(todo.FieldTitle, "Walk dog"),
	stepType(todo.FieldDueDate, "2024-01-02"),
	stepSubmit(),
	stepFilter(todo.FilterAll),
}

// Run applies steps to s in order and stops at the first failure.
func Run(s Store, steps []Step) error {
	for i, step := range steps {
		if err := step.Do(s); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Name, err)
		}
	}
	return nil
}
