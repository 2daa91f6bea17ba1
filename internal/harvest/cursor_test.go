package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorGrowingList(t *testing.T) {
	c := Cursor[string]{}
	list := []string{"a", "b"}

	unseen, next := c.Slice(list)
	assert.Equal(t, []string{"a", "b"}, unseen)
	assert.Equal(t, 2, next)
	assert.Equal(t, 0, c.Position(), "slicing must not move the cursor")
	c.Advance(next)

	list = append(list, "c", "d", "e")
	unseen, next = c.Slice(list)
	assert.Equal(t, []string{"c", "d", "e"}, unseen)
	c.Advance(next)
	assert.Equal(t, 5, c.Position())

	unseen, next = c.Slice(list)
	assert.Empty(t, unseen)
	assert.Equal(t, 5, next)
}

func TestCursorNeverMovesBack(t *testing.T) {
	c := Cursor[int]{}
	c.Advance(4)
	c.Advance(2)
	assert.Equal(t, 4, c.Position())

	unseen, next := c.Slice([]int{1, 2})
	assert.Nil(t, unseen)
	assert.Equal(t, 4, next)
}

func TestCursorEveryElementOnce(t *testing.T) {
	c := Cursor[int]{}
	list := []int{}
	seen := []int{}
	for round := 0; round < 6; round++ {
		for i := 0; i < round; i++ {
			list = append(list, len(list))
		}
		unseen, next := c.Slice(list)
		seen = append(seen, unseen...)
		c.Advance(next)
	}
	assert.Equal(t, list, seen)
}
