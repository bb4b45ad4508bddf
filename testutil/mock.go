package testutil

import (
	"fmt"
	"sync"
)

// MockAllocator counts allocations and tracks outstanding blocks so tests
// can verify that every block handed out is returned exactly once.
// It satisfies ringbuf.Allocator[T].
type MockAllocator[T any] struct {
	mu sync.Mutex

	// AllocateFunc overrides block creation when set
	AllocateFunc func(n int) []T

	outstanding map[*T]int
	freed       [][]T

	// Call counts for verification
	AllocateCalls   int
	DeallocateCalls int
	// Sizes records the length requested by each Allocate call
	Sizes []int
}

// NewMockAllocator creates an allocator backed by make.
func NewMockAllocator[T any]() *MockAllocator[T] {
	return &MockAllocator[T]{
		outstanding: make(map[*T]int),
	}
}

// Allocate hands out a block of n elements and records it as outstanding.
func (m *MockAllocator[T]) Allocate(n int) []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AllocateCalls++
	m.Sizes = append(m.Sizes, n)

	var block []T
	if m.AllocateFunc != nil {
		block = m.AllocateFunc(n)
	} else {
		block = make([]T, n)
	}
	if len(block) > 0 {
		m.outstanding[&block[0]] = len(block)
	}
	return block
}

// Deallocate returns a block. Returning a block twice or one this allocator
// never produced panics, which fails the calling test.
func (m *MockAllocator[T]) Deallocate(block []T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeallocateCalls++
	if len(block) == 0 {
		return
	}
	n, ok := m.outstanding[&block[0]]
	if !ok || n != len(block) {
		panic(fmt.Sprintf("testutil: deallocating unknown block of %d elements", len(block)))
	}
	delete(m.outstanding, &block[0])
	m.freed = append(m.freed, block)
}

// Outstanding returns the number of blocks allocated but not yet returned.
func (m *MockAllocator[T]) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outstanding)
}

// Freed returns the blocks passed to Deallocate, in order.
func (m *MockAllocator[T]) Freed() [][]T {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([][]T, len(m.freed))
	copy(result, m.freed)
	return result
}

// ReleaseLog records the IDs of released Tracked elements in release order.
type ReleaseLog struct {
	mu  sync.Mutex
	ids []int
}

// NewReleaseLog creates an empty log.
func NewReleaseLog() *ReleaseLog {
	return &ReleaseLog{}
}

// Track creates an element that appends id to the log when released.
func (l *ReleaseLog) Track(id int) *Tracked {
	return &Tracked{ID: id, log: l}
}

// Released returns the released IDs in order.
func (l *ReleaseLog) Released() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]int, len(l.ids))
	copy(result, l.ids)
	return result
}

// Count returns how many times id was released.
func (l *ReleaseLog) Count(id int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, released := range l.ids {
		if released == id {
			n++
		}
	}
	return n
}

// Reset clears the log.
func (l *ReleaseLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ids = nil
}

// Tracked is an element that reports its release to a ReleaseLog.
// It implements ringbuf.Releaser; a nil *Tracked releases as a no-op.
type Tracked struct {
	ID  int
	log *ReleaseLog
}

// Release records the element in its log.
func (t *Tracked) Release() {
	if t == nil || t.log == nil {
		return
	}
	t.log.mu.Lock()
	defer t.log.mu.Unlock()
	t.log.ids = append(t.log.ids, t.ID)
}

// String returns a short form for assertion messages.
func (t *Tracked) String() string {
	if t == nil {
		return "Tracked(nil)"
	}
	return fmt.Sprintf("Tracked(%d)", t.ID)
}
