package todo

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	for _, f := range Filters {
		got, err := ParseFilter(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	for _, in := range []string{"", "all", "PENDING", "NEW "} {
		_, err := ParseFilter(in)
		assert.ErrorIs(t, err, ErrInvalidFilter, in)
	}
}

func TestFilterNext(t *testing.T) {
	assert.Equal(t, FilterNew, FilterAll.Next())
	assert.Equal(t, FilterDone, FilterNew.Next())
	assert.Equal(t, FilterAll, FilterDone.Next())
}

func TestDeriveOrder(t *testing.T) {
	a := Task{ID: "a", Title: "A", DueDate: "2024-01-01", Status: StatusNew}
	b := Task{ID: "b", Title: "B", DueDate: "2024-01-02", Status: StatusDone}
	c := Task{ID: "c", Title: "C", DueDate: "2024-01-03", Status: StatusNew}
	tasks := []Task{a, b, c}

	assert.Equal(t, []Task{a, b, c}, Derive(tasks, FilterAll))
	assert.Equal(t, []Task{a, c}, Derive(tasks, FilterNew))
	assert.Equal(t, []Task{b}, Derive(tasks, FilterDone))
	assert.Empty(t, Derive(nil, FilterAll))
}

func TestDeriveDoesNotAlias(t *testing.T) {
	tasks := []Task{{ID: "a", Status: StatusNew}}
	out := Derive(tasks, FilterAll)
	out[0].Status = StatusDone

	assert.Equal(t, StatusNew, tasks[0].Status)
}

func TestDeriveProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		tasks := make([]Task, n)
		for i := range tasks {
			tasks[i] = Task{
				ID:      fmt.Sprintf("t%d", i),
				Title:   fmt.Sprintf("task %d", i),
				DueDate: "2024-01-01",
				Status:  StatusFor(rng.Intn(2) == 0),
			}
		}

		for _, f := range Filters {
			got := Derive(tasks, f)
			require.LessOrEqual(t, len(got), len(tasks))

			// Order-preserving subsequence where every element matches.
			j := 0
			for _, v := range got {
				require.True(t, f == FilterAll || v.Status == Status(f))
				for j < len(tasks) && tasks[j] != v {
					j++
				}
				require.Less(t, j, len(tasks), "not a subsequence")
				j++
			}

			allMatch := true
			for _, v := range tasks {
				if !f.Matches(v.Status) {
					allMatch = false
				}
			}
			assert.Equal(t, f == FilterAll || allMatch, len(got) == len(tasks))
		}
	}
}

func TestIndexOf(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, 1, IndexOf(tasks, "b"))
	assert.Equal(t, -1, IndexOf(tasks, "z"))
}
