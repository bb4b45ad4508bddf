package ringbuf

import (
	"fmt"
	"log/slog"

	"github.com/c360/circbuf/errors"
)

// RingBuffer is a fixed-capacity sequence that overwrites its oldest element
// when a push arrives while full. Logical position 0 is the newest element
// and Size()-1 the oldest.
//
// Storage is laid out in two regimes. Until the buffer first wraps, elements
// occupy slots 0..Size()-1 in insertion order with head == Size()-1. Once
// full, head may rest on any slot. Every reallocation returns the buffer to
// the contiguous regime.
//
// A RingBuffer is not safe for concurrent use. Its Statistics may be read
// from other goroutines.
type RingBuffer[T any] struct {
	storage []T
	// head is the slot of the newest element, or -1 when nothing has been
	// written since the buffer was last emptied.
	head  int
	count int

	// generation changes on every structural modification and invalidates cursors.
	generation uint64

	alloc   Allocator[T]
	opts    *bufferOptions[T]
	stats   *Statistics
	metrics *bufferMetrics
	logger  *slog.Logger
}

// New creates an empty buffer with capacity 0. Reserve before pushing.
func New[T any](options ...Option[T]) (*RingBuffer[T], error) {
	return newRingBuffer(applyOptions(options...))
}

// NewSized creates a full buffer of n zero-valued elements.
func NewSized[T any](n int, options ...Option[T]) (*RingBuffer[T], error) {
	var zero T
	return NewFilled(n, zero, options...)
}

// NewFilled creates a full buffer of n copies of value.
func NewFilled[T any](n int, value T, options ...Option[T]) (*RingBuffer[T], error) {
	opts := applyOptions(options...)
	if err := checkCapacity("NewFilled", n, opts.maxSize); err != nil {
		return nil, err
	}

	rb, err := newRingBuffer(opts)
	if err != nil {
		return nil, err
	}

	rb.storage = rb.allocate(n)
	for i := range rb.storage {
		rb.storage[i] = value
	}
	rb.count = n
	rb.head = n - 1
	rb.observe()
	return rb, nil
}

// FromSlice creates a full buffer holding items, with items[len(items)-1]
// as the newest element.
func FromSlice[T any](items []T, options ...Option[T]) (*RingBuffer[T], error) {
	opts := applyOptions(options...)
	if err := checkCapacity("FromSlice", len(items), opts.maxSize); err != nil {
		return nil, err
	}

	rb, err := newRingBuffer(opts)
	if err != nil {
		return nil, err
	}

	rb.storage = rb.allocate(len(items))
	copy(rb.storage, items)
	rb.count = len(items)
	rb.head = len(items) - 1
	rb.observe()
	return rb, nil
}

func newRingBuffer[T any](opts *bufferOptions[T]) (*RingBuffer[T], error) {
	rb := &RingBuffer[T]{
		head:   -1,
		alloc:  opts.allocator,
		opts:   opts,
		stats:  NewStatistics(),
		logger: opts.logger,
	}

	if opts.metricsReg != nil {
		m, err := newBufferMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.Wrap(err, "RingBuffer", "New", "metrics registration")
		}
		rb.metrics = m
	}

	return rb, nil
}

// Size returns the number of live elements.
func (rb *RingBuffer[T]) Size() int {
	return rb.count
}

// Capacity returns the number of slots in the backing storage.
func (rb *RingBuffer[T]) Capacity() int {
	return len(rb.storage)
}

// IsEmpty reports whether the buffer holds no elements.
func (rb *RingBuffer[T]) IsEmpty() bool {
	return rb.count == 0
}

// IsFull reports whether the next push will evict the oldest element.
// A zero-capacity buffer is both empty and full.
func (rb *RingBuffer[T]) IsFull() bool {
	return rb.count == len(rb.storage)
}

// MaxSize returns the largest capacity the buffer accepts.
func (rb *RingBuffer[T]) MaxSize() int {
	return rb.opts.maxSize
}

// Allocator returns the allocator that owns the current storage block.
// Swap exchanges it along with the storage.
func (rb *RingBuffer[T]) Allocator() Allocator[T] {
	return rb.alloc
}

// Generation returns a counter that changes on every structural modification.
func (rb *RingBuffer[T]) Generation() uint64 {
	return rb.generation
}

// Stats returns the buffer's statistics.
func (rb *RingBuffer[T]) Stats() *Statistics {
	return rb.stats
}

// slot maps logical position p (0 = newest) to a storage index.
func (rb *RingBuffer[T]) slot(p int) int {
	capacity := len(rb.storage)
	return (rb.head + capacity - p) % capacity
}

// At returns the element at logical position p, where 0 is the newest.
func (rb *RingBuffer[T]) At(p int) (T, error) {
	if p < 0 || p >= rb.count {
		rb.stats.RangeMiss()
		var zero T
		return zero, errors.WrapInvalid(&RangeError{Position: p, Size: rb.count},
			"RingBuffer", "At", "checked access")
	}
	return rb.storage[rb.slot(p)], nil
}

// Get returns the element at logical position p without bounds checking.
// p must be in [0, Size()); other values return an unspecified element or panic.
func (rb *RingBuffer[T]) Get(p int) T {
	return rb.storage[rb.slot(p)]
}

// Ptr returns a pointer to the element at logical position p for in-place
// mutation. The same preconditions as Get apply. The pointer is valid until
// the next reallocation.
func (rb *RingBuffer[T]) Ptr(p int) *T {
	return &rb.storage[rb.slot(p)]
}

// Front returns the newest element. It panics on an empty buffer.
func (rb *RingBuffer[T]) Front() T {
	if rb.count == 0 {
		panic("ringbuf: Front called on empty buffer")
	}
	return rb.storage[rb.head]
}

// Back returns the oldest element. It panics on an empty buffer.
func (rb *RingBuffer[T]) Back() T {
	if rb.count == 0 {
		panic("ringbuf: Back called on empty buffer")
	}
	return rb.storage[rb.slot(rb.count-1)]
}

// PushBack appends value as the newest element. When the buffer is full the
// oldest element is released and overwritten. It panics when Capacity() is 0.
func (rb *RingBuffer[T]) PushBack(value T) {
	capacity := len(rb.storage)
	if capacity == 0 {
		panic("ringbuf: PushBack on zero-capacity buffer")
	}

	rb.head = (rb.head + 1) % capacity
	if rb.count == capacity {
		rb.release(rb.storage[rb.head])
		rb.stats.Evict()
		if rb.metrics != nil {
			rb.metrics.recordEviction()
		}
	} else {
		rb.count++
	}
	rb.storage[rb.head] = value
	rb.generation++

	rb.stats.Push()
	rb.stats.UpdateSize(rb.count, capacity)
	if rb.metrics != nil {
		rb.metrics.recordPush(rb.count, capacity)
	}
}

// Emplace builds the new newest element with build, appends it like PushBack
// and returns a pointer to it in storage.
func (rb *RingBuffer[T]) Emplace(build func() T) *T {
	rb.PushBack(build())
	return &rb.storage[rb.head]
}

// Clear releases every element, oldest first, and keeps the capacity.
// The next push lands in slot 0.
func (rb *RingBuffer[T]) Clear() {
	for p := rb.count - 1; p >= 0; p-- {
		rb.release(rb.storage[rb.slot(p)])
	}
	clear(rb.storage)
	rb.count = 0
	rb.head = -1
	rb.generation++

	rb.stats.Clear()
	rb.stats.UpdateSize(0, len(rb.storage))
	if rb.metrics != nil {
		rb.metrics.recordClear(len(rb.storage))
	}
}

// Reserve changes the capacity to exactly n. Shrinking below Size() keeps the
// n newest elements and releases the rest. Reserving the current capacity is
// a no-op.
func (rb *RingBuffer[T]) Reserve(n int) error {
	if err := checkCapacity("Reserve", n, rb.opts.maxSize); err != nil {
		return err
	}
	rb.reallocate(n)
	return nil
}

// ShrinkToFit reduces the capacity to Size().
func (rb *RingBuffer[T]) ShrinkToFit() {
	rb.reallocate(rb.count)
}

// Resize sets both capacity and size to n, appending zero values as the
// oldest-to-newest continuation of the current contents.
func (rb *RingBuffer[T]) Resize(n int) error {
	var zero T
	return rb.ResizeWith(n, zero)
}

// ResizeWith sets both capacity and size to n. When growing, the new
// positions are filled with fill and become the newest elements.
// When shrinking, the n newest elements are kept.
func (rb *RingBuffer[T]) ResizeWith(n int, fill T) error {
	if err := checkCapacity("Resize", n, rb.opts.maxSize); err != nil {
		return err
	}

	rb.reallocate(n)
	if rb.count < n {
		// Below capacity the buffer is contiguous from slot 0
		for i := rb.count; i < n; i++ {
			rb.storage[i] = fill
		}
		rb.count = n
		rb.head = n - 1
		rb.generation++
	}

	rb.observe()
	return nil
}

// reallocate moves the newest min(Size(), newCap) elements into fresh storage
// of newCap slots, oldest at slot 0. Callers validate newCap.
func (rb *RingBuffer[T]) reallocate(newCap int) {
	oldCap := len(rb.storage)
	if newCap == oldCap {
		return
	}

	kept := min(rb.count, newCap)
	fresh := rb.allocate(newCap)
	for p := 0; p < kept; p++ {
		fresh[kept-1-p] = rb.storage[rb.slot(p)]
	}
	if newCap > kept {
		clear(fresh[kept:])
	}
	for p := kept; p < rb.count; p++ {
		rb.release(rb.storage[rb.slot(p)])
	}
	dropped := rb.count - kept

	old := rb.storage
	clear(old)
	rb.deallocate(old)

	rb.storage = fresh
	rb.count = kept
	rb.head = kept - 1
	rb.generation++

	rb.stats.Reallocate()
	rb.stats.UpdateSize(rb.count, newCap)
	if rb.metrics != nil {
		rb.metrics.recordReallocation(rb.count, newCap)
	}
	rb.logger.Debug("Ring buffer reallocated",
		"old_capacity", oldCap,
		"new_capacity", newCap,
		"kept", kept,
		"dropped", dropped)
}

// Swap exchanges the contents, capacity and allocator of two buffers.
// Options, statistics history and metrics stay with each buffer.
func (rb *RingBuffer[T]) Swap(other *RingBuffer[T]) {
	if other == rb {
		return
	}

	rb.storage, other.storage = other.storage, rb.storage
	rb.head, other.head = other.head, rb.head
	rb.count, other.count = other.count, rb.count
	rb.alloc, other.alloc = other.alloc, rb.alloc

	for _, b := range []*RingBuffer[T]{rb, other} {
		b.generation++
		b.stats.Swap()
		b.observe()
	}
}

// Clone returns an independent buffer holding copies of the live elements,
// with capacity equal to Size() and the same logical order. Elements are
// copied by assignment. Options override the inherited allocator, max size,
// release func and logger; metrics are never inherited.
func (rb *RingBuffer[T]) Clone(options ...Option[T]) (*RingBuffer[T], error) {
	opts, _ := rb.opts.derive(rb.alloc, options...)
	if err := checkCapacity("Clone", rb.count, opts.maxSize); err != nil {
		return nil, err
	}

	clone, err := newRingBuffer(opts)
	if err != nil {
		return nil, err
	}

	clone.storage = clone.allocate(rb.count)
	for p := 0; p < rb.count; p++ {
		clone.storage[rb.count-1-p] = rb.storage[rb.slot(p)]
	}
	clone.count = rb.count
	clone.head = rb.count - 1
	clone.observe()
	return clone, nil
}

// Move transfers the contents into a new buffer and leaves the receiver
// empty with capacity 0. Storage is handed over as-is unless options supply
// a different allocator, in which case elements are copied into storage from
// that allocator and the old storage is returned to its own.
func (rb *RingBuffer[T]) Move(options ...Option[T]) (*RingBuffer[T], error) {
	opts, reallocated := rb.opts.derive(rb.alloc, options...)
	if err := checkCapacity("Move", len(rb.storage), opts.maxSize); err != nil {
		return nil, err
	}

	moved, err := newRingBuffer(opts)
	if err != nil {
		return nil, err
	}

	if reallocated {
		moved.storage = moved.allocate(len(rb.storage))
		copy(moved.storage, rb.storage)
		clear(rb.storage)
		rb.deallocate(rb.storage)
	} else {
		moved.storage = rb.storage
	}
	moved.head = rb.head
	moved.count = rb.count
	moved.observe()

	rb.storage = nil
	rb.head = -1
	rb.count = 0
	rb.generation++
	rb.observe()
	return moved, nil
}

// Close releases every element, returns the storage to the allocator and
// unregisters metrics. The buffer is left empty with capacity 0 and may be
// reused after Reserve. Close is idempotent.
func (rb *RingBuffer[T]) Close() error {
	if rb.count > 0 {
		rb.Clear()
	}
	if rb.storage != nil {
		clear(rb.storage)
		rb.deallocate(rb.storage)
		rb.storage = nil
		rb.head = -1
		rb.generation++
		rb.stats.UpdateSize(0, 0)
	}
	if rb.metrics != nil {
		rb.metrics.unregister()
		rb.metrics = nil
	}
	return nil
}

// Slice returns the live elements from oldest to newest in a new slice.
func (rb *RingBuffer[T]) Slice() []T {
	out := make([]T, rb.count)
	for p := 0; p < rb.count; p++ {
		out[rb.count-1-p] = rb.storage[rb.slot(p)]
	}
	return out
}

// String formats the live elements from oldest to newest.
func (rb *RingBuffer[T]) String() string {
	return fmt.Sprintf("RingBuffer%v", rb.Slice())
}

func (rb *RingBuffer[T]) allocate(n int) []T {
	if n == 0 {
		return nil
	}
	block := rb.alloc.Allocate(n)
	if len(block) != n {
		panic(fmt.Sprintf("ringbuf: allocator returned %d slots, want %d", len(block), n))
	}
	return block
}

func (rb *RingBuffer[T]) deallocate(block []T) {
	if block != nil {
		rb.alloc.Deallocate(block)
	}
}

func (rb *RingBuffer[T]) release(item T) {
	if rb.opts.releaseFunc != nil {
		rb.opts.releaseFunc(item)
	}
	if r, ok := any(item).(Releaser); ok {
		r.Release()
	}
}

// observe records the current size and capacity.
func (rb *RingBuffer[T]) observe() {
	rb.stats.UpdateSize(rb.count, len(rb.storage))
	if rb.metrics != nil {
		rb.metrics.updateSize(rb.count, len(rb.storage))
	}
}
