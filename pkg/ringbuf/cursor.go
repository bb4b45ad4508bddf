package ringbuf

import (
	"cmp"
	"fmt"
	"iter"
)

// Direction selects the traversal order of a Cursor.
type Direction int

const (
	// Forward visits elements from oldest to newest.
	Forward Direction = iota
	// Reverse visits elements from newest to oldest.
	Reverse
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Cursor is a random-access position in a RingBuffer traversal.
//
// A cursor snapshots the buffer layout when it is created. Any structural
// modification of the buffer (push, clear, reallocation, swap, move) makes
// every existing cursor stale, and using a stale cursor to read panics.
// Position arithmetic and comparison remain available on stale cursors.
//
// Position 0 is the first element in traversal order and Size() is the
// one-past-the-end position.
type Cursor[T any] struct {
	rb  *RingBuffer[T]
	pos int
	dir Direction

	head       int
	capacity   int
	count      int
	generation uint64
}

func (rb *RingBuffer[T]) cursor(pos int, dir Direction) Cursor[T] {
	return Cursor[T]{
		rb:         rb,
		pos:        pos,
		dir:        dir,
		head:       rb.head,
		capacity:   len(rb.storage),
		count:      rb.count,
		generation: rb.generation,
	}
}

// Begin returns a cursor at the oldest element.
func (rb *RingBuffer[T]) Begin() Cursor[T] {
	return rb.cursor(0, Forward)
}

// End returns the one-past-the-newest forward cursor.
func (rb *RingBuffer[T]) End() Cursor[T] {
	return rb.cursor(rb.count, Forward)
}

// RBegin returns a reverse cursor at the newest element.
func (rb *RingBuffer[T]) RBegin() Cursor[T] {
	return rb.cursor(0, Reverse)
}

// REnd returns the one-past-the-oldest reverse cursor.
func (rb *RingBuffer[T]) REnd() Cursor[T] {
	return rb.cursor(rb.count, Reverse)
}

// Direction returns the traversal order of the cursor.
func (c Cursor[T]) Direction() Direction {
	return c.dir
}

// Position returns the traversal position, 0 for the first element.
// In a reverse traversal this equals the logical position used by At.
func (c Cursor[T]) Position() int {
	return c.pos
}

// Done reports whether the cursor is at or past the end of its traversal.
func (c Cursor[T]) Done() bool {
	return c.pos >= c.count
}

// Valid reports whether the cursor can be dereferenced: it addresses an
// element and the buffer has not been modified since it was created.
func (c Cursor[T]) Valid() bool {
	return c.rb != nil && c.rb.generation == c.generation && c.pos >= 0 && c.pos < c.count
}

// slot maps a traversal position to a storage index using the snapshot.
func (c Cursor[T]) slot(pos int) int {
	if c.rb == nil {
		panic("ringbuf: use of zero Cursor")
	}
	if c.rb.generation != c.generation {
		panic("ringbuf: cursor used after buffer modification")
	}
	if pos < 0 || pos >= c.count {
		panic(fmt.Sprintf("ringbuf: cursor position %d outside [0, %d)", pos, c.count))
	}

	// offset from the oldest element
	offset := pos
	if c.dir == Reverse {
		offset = c.count - 1 - pos
	}
	return (c.head + c.capacity - (c.count - 1 - offset)) % c.capacity
}

// Value returns the element under the cursor.
func (c Cursor[T]) Value() T {
	return c.rb.storage[c.slot(c.pos)]
}

// Ptr returns a pointer to the element under the cursor for in-place mutation.
// Writing through the pointer does not invalidate cursors.
func (c Cursor[T]) Ptr() *T {
	return &c.rb.storage[c.slot(c.pos)]
}

// Index returns the element n positions from the cursor.
func (c Cursor[T]) Index(n int) T {
	return c.rb.storage[c.slot(c.pos+n)]
}

// Next advances the cursor one position.
func (c *Cursor[T]) Next() {
	c.pos++
}

// Prev moves the cursor back one position.
func (c *Cursor[T]) Prev() {
	c.pos--
}

// Advance moves the cursor n positions; n may be negative.
func (c *Cursor[T]) Advance(n int) {
	c.pos += n
}

// Add returns a copy of the cursor moved n positions.
func (c Cursor[T]) Add(n int) Cursor[T] {
	c.pos += n
	return c
}

// Distance returns the number of steps from c to other.
func (c Cursor[T]) Distance(other Cursor[T]) int {
	c.mustShareTraversal(other)
	return other.pos - c.pos
}

// Equal reports whether both cursors address the same traversal position.
func (c Cursor[T]) Equal(other Cursor[T]) bool {
	return c.rb == other.rb && c.dir == other.dir && c.pos == other.pos
}

// Less reports whether c comes before other in traversal order.
func (c Cursor[T]) Less(other Cursor[T]) bool {
	return c.Compare(other) < 0
}

// Compare orders cursors of the same traversal by position.
func (c Cursor[T]) Compare(other Cursor[T]) int {
	c.mustShareTraversal(other)
	return cmp.Compare(c.pos, other.pos)
}

func (c Cursor[T]) mustShareTraversal(other Cursor[T]) {
	if c.rb != other.rb || c.dir != other.dir {
		panic("ringbuf: comparing cursors from different traversals")
	}
}

// All returns an iterator over (position, element) pairs from oldest to newest.
// Modifying the buffer during iteration panics on the next step.
func (rb *RingBuffer[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for c := rb.Begin(); !c.Done(); c.Next() {
			if !yield(c.Position(), c.Value()) {
				return
			}
		}
	}
}

// Values returns an iterator over the elements from oldest to newest.
func (rb *RingBuffer[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for c := rb.Begin(); !c.Done(); c.Next() {
			if !yield(c.Value()) {
				return
			}
		}
	}
}

// Backward returns an iterator over (logical position, element) pairs from
// newest to oldest, matching the positions accepted by At.
func (rb *RingBuffer[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for c := rb.RBegin(); !c.Done(); c.Next() {
			if !yield(c.Position(), c.Value()) {
				return
			}
		}
	}
}
