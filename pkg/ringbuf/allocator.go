package ringbuf

import (
	"sync"
	"sync/atomic"
)

// Allocator supplies and reclaims the backing storage of a RingBuffer.
//
// Allocate must return a slice of exactly n elements. Deallocate receives
// only blocks previously returned by Allocate, already zeroed by the buffer.
type Allocator[T any] interface {
	Allocate(n int) []T
	Deallocate(block []T)
}

// HeapAllocator allocates with make and leaves reclamation to the garbage collector.
type HeapAllocator[T any] struct{}

// Allocate returns a fresh zeroed block of n elements
func (HeapAllocator[T]) Allocate(n int) []T {
	return make([]T, n)
}

// Deallocate is a no-op; the block becomes garbage once unreferenced
func (HeapAllocator[T]) Deallocate([]T) {}

// DefaultPoolBlocksPerSize bounds how many free blocks of one length a PoolAllocator retains.
const DefaultPoolBlocksPerSize = 4

// PoolAllocator recycles storage blocks keyed by length, so buffers that
// repeatedly reserve and shrink between the same capacities stop allocating.
// It is safe for concurrent use and may be shared between buffers.
type PoolAllocator[T any] struct {
	mu           sync.Mutex
	free         map[int][][]T
	blocksPerLen int

	hits   int64
	misses int64
}

// NewPoolAllocator creates a pool that keeps at most blocksPerLen free blocks
// of each length. Non-positive values select DefaultPoolBlocksPerSize.
func NewPoolAllocator[T any](blocksPerLen int) *PoolAllocator[T] {
	if blocksPerLen <= 0 {
		blocksPerLen = DefaultPoolBlocksPerSize
	}
	return &PoolAllocator[T]{
		free:         make(map[int][][]T),
		blocksPerLen: blocksPerLen,
	}
}

// Allocate returns a recycled zeroed block of n elements, or a new one
func (p *PoolAllocator[T]) Allocate(n int) []T {
	p.mu.Lock()
	blocks := p.free[n]
	if len(blocks) > 0 {
		block := blocks[len(blocks)-1]
		blocks[len(blocks)-1] = nil
		p.free[n] = blocks[:len(blocks)-1]
		p.mu.Unlock()
		atomic.AddInt64(&p.hits, 1)
		return block
	}
	p.mu.Unlock()

	atomic.AddInt64(&p.misses, 1)
	return make([]T, n)
}

// Deallocate returns a block to the pool, dropping it when the pool for
// its length is full.
func (p *PoolAllocator[T]) Deallocate(block []T) {
	n := len(block)
	if n == 0 {
		return
	}
	clear(block)

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.free[n]) < p.blocksPerLen {
		p.free[n] = append(p.free[n], block)
	}
}

// Hits returns how many allocations were served from the pool
func (p *PoolAllocator[T]) Hits() int64 {
	return atomic.LoadInt64(&p.hits)
}

// Misses returns how many allocations required a new block
func (p *PoolAllocator[T]) Misses() int64 {
	return atomic.LoadInt64(&p.misses)
}

// Pooled returns the number of free blocks currently held for length n
func (p *PoolAllocator[T]) Pooled(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free[n])
}
