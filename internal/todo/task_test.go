package todo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "NEW", want: StatusNew},
		{in: "DONE", want: StatusDone},
		{in: "done", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDraftSetField(t *testing.T) {
	d := Draft{Title: "Buy milk", DueDate: "2024-01-01"}

	got, err := d.SetField(FieldTitle, "Buy bread")
	require.NoError(t, err)
	assert.Equal(t, Draft{Title: "Buy bread", DueDate: "2024-01-01"}, got)
	assert.Equal(t, "Buy milk", d.Title, "receiver must not change")

	got, err = got.SetField(FieldDueDate, "2024-02-02")
	require.NoError(t, err)
	assert.Equal(t, Draft{Title: "Buy bread", DueDate: "2024-02-02"}, got)

	for _, name := range []string{"id", "status", "Title", ""} {
		_, err := d.SetField(name, "x")
		assert.ErrorIs(t, err, ErrUnknownField, name)
	}
}

func TestDraftField(t *testing.T) {
	d := Draft{Title: "a", DueDate: "2024-01-01"}

	v, err := d.Field(FieldDueDate)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", v)

	_, err = d.Field("nope")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		missing []string
	}{
		{name: "complete", draft: Draft{Title: "a", DueDate: "2024-01-01"}},
		{name: "no title", draft: Draft{DueDate: "2024-01-01"}, missing: []string{FieldTitle}},
		{name: "no due date", draft: Draft{Title: "a"}, missing: []string{FieldDueDate}},
		{name: "empty", draft: Draft{}, missing: []string{FieldTitle, FieldDueDate}},
		{name: "whitespace title passes", draft: Draft{Title: " ", DueDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMissingField)

			var mfe *MissingFieldError
			require.True(t, errors.As(err, &mfe))
			assert.Equal(t, tt.missing, mfe.Fields)
		})
	}
}

func TestDraftMaterialize(t *testing.T) {
	task := Draft{Title: "Buy milk", DueDate: "2024-01-01"}.Materialize("abc")

	assert.Equal(t, Task{ID: "abc", Title: "Buy milk", DueDate: "2024-01-01", Status: StatusNew}, task)
	assert.False(t, task.Done())
	assert.True(t, task.WithStatus(StatusDone).Done())
}

func TestSanitizeDate(t *testing.T) {
	assert.Equal(t, "2024-01-01", SanitizeDate("2024-01-01"))
	assert.Equal(t, "2024-01-01", SanitizeDate(" 2024-01-01 "))
	assert.Equal(t, "", SanitizeDate("2024-13-01"))
	assert.Equal(t, "", SanitizeDate("01/01/2024"))
	assert.Equal(t, "", SanitizeDate("tomorrow"))
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusDone, StatusFor(true))
	assert.Equal(t, StatusNew, StatusFor(false))
}
