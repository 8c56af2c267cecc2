// Package todo defines the task-list domain: tasks, drafts, filters and the
// derivation of the visible list.
package todo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidFilter = errors.New("invalid filter")
	ErrUnknownField  = errors.New("unknown field")
	ErrMissingField  = errors.New("missing required field")
)

// DateLayout is the value format of a native date control.
const DateLayout = "2006-01-02"

// Status is the completion state of a task.
type Status string

const (
	StatusNew  Status = "NEW"
	StatusDone Status = "DONE"
)

// ParseStatus accepts exactly NEW or DONE.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusDone:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// StatusFor maps a checkbox value to a status.
func StatusFor(done bool) Status {
	if done {
		return StatusDone
	}
	return StatusNew
}

// Task is a created task. ID is immutable once assigned.
type Task struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	DueDate string `json:"duedate" yaml:"duedate"`
	Status  Status `json:"status" yaml:"status"`
}

// Done reports whether the task is checked.
func (t Task) Done() bool {
	return t.Status == StatusDone
}

// WithStatus returns a copy of t with the given status.
func (t Task) WithStatus(s Status) Task {
	t.Status = s
	return t
}

// NewID returns a fresh random task identifier.
func NewID() string {
	return uuid.NewString()
}

// Field names accepted by Draft.SetField, in form order.
const (
	FieldTitle   = "title"
	FieldDueDate = "duedate"
)

// Fields lists the editable draft fields in form order.
var Fields = []string{FieldTitle, FieldDueDate}

// Draft stages form input before a Task is materialized.
type Draft struct {
	Title   string `json:"title" yaml:"title"`
	DueDate string `json:"duedate" yaml:"duedate"`
}

// SetField returns a copy of d with exactly the named field replaced.
func (d Draft) SetField(name, value string) (Draft, error) {
	switch name {
	case FieldTitle:
		d.Title = value
	case FieldDueDate:
		d.DueDate = value
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return d, nil
}

// Field returns the value of the named field.
func (d Draft) Field(name string) (string, error) {
	switch name {
	case FieldTitle:
		return d.Title, nil
	case FieldDueDate:
		return d.DueDate, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool {
	return d == Draft{}
}

// Validate runs the required-field check of the form.
func (d Draft) Validate() error {
	var missing []string
	if d.Title == "" {
		missing = append(missing, FieldTitle)
	}
	if d.DueDate == "" {
		missing = append(missing, FieldDueDate)
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}

// Materialize builds a NEW task from the draft.
func (d Draft) Materialize(id string) Task {
	return Task{
		ID:      id,
		Title:   d.Title,
		DueDate: d.DueDate,
		Status:  StatusNew,
	}
}

// MissingFieldError lists the required fields left empty.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// SanitizeDate mirrors a date input: anything that is not a valid
// YYYY-MM-DD value becomes empty.
func SanitizeDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ""
	}
	return s
}
