package harvest

// Cursor remembers how much of a growing list has already been scanned.
type Cursor[T any] struct {
	pos int
}

// Slice returns the elements at or after the stored position and the
// position to store once they have been processed. The cursor itself does
// not move; call Advance.
func (c *Cursor[T]) Slice(elements []T) ([]T, int) {
	if c.pos >= len(elements) {
		return nil, c.pos
	}
	return elements[c.pos:], len(elements)
}

// Advance stores next as the new position. The position never decreases.
func (c *Cursor[T]) Advance(next int) {
	if next > c.pos {
		c.pos = next
	}
}

// Position returns the number of elements scanned so far.
func (c *Cursor[T]) Position() int {
	return c.pos
}
