package hooks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateRerendersComponent(t *testing.T) {
	var seen []int
	var count *State[int]
	c := NewComponent(func() { seen = append(seen, count.Get()) })
	count = NewState(c, 0)

	count.Set(5) // before mount: no render
	assert.Equal(t, 0, c.Renders())

	c.Mount()
	c.Mount()
	count.Set(6)
	count.Update(func(v int) int { return v + 1 })

	assert.Equal(t, 3, c.Renders())
	assert.Equal(t, []int{5, 6, 7}, seen)
	assert.Equal(t, uint64(3), count.Version())
}

func TestBatchRendersOnce(t *testing.T) {
	c := NewComponent(func() {})
	a := NewState(c, "")
	b := NewState(c, "")
	c.Mount()

	c.Batch(func() {
		a.Set("x")
		b.Set("y")
		c.Batch(func() { a.Set("z") })
	})

	assert.Equal(t, 2, c.Renders())
	assert.Equal(t, "z", a.Get())
}

func TestBatchWithoutChangeDoesNotRender(t *testing.T) {
	c := NewComponent(func() {})
	c.Mount()
	c.Batch(func() {})

	assert.Equal(t, 1, c.Renders())
}

func TestMemoRecomputesOnDepChange(t *testing.T) {
	var items, filter *State[int]
	var memo *Memo[int]
	var got int

	c := NewComponent(func() { got = memo.Use(items, filter) })
	items = NewState(c, 1)
	filter = NewState(c, 10)
	unrelated := NewState(c, "")
	memo = NewMemo(func() int { return items.Get() * filter.Get() })

	c.Mount()
	assert.Equal(t, 10, got)
	assert.Equal(t, 1, memo.Computations())

	unrelated.Set("typing")
	assert.Equal(t, 2, c.Renders())
	assert.Equal(t, 1, memo.Computations(), "unrelated state must not recompute")

	items.Set(2)
	assert.Equal(t, 20, got)
	assert.Equal(t, 2, memo.Computations())

	filter.Set(3)
	assert.Equal(t, 6, got)
	assert.Equal(t, 3, memo.Computations())
}

func TestSetDuringRenderSchedulesOnePass(t *testing.T) {
	var s *State[int]
	c := NewComponent(func() {
		if s.Get() == 1 {
			s.Set(2)
		}
	})
	s = NewState(c, 0)
	c.Mount()

	s.Set(1)

	assert.Equal(t, 2, s.Get())
	assert.Equal(t, 3, c.Renders())
}
