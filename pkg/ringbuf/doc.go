// Package ringbuf provides a generic fixed-capacity ring buffer that overwrites
// its oldest element when full, with random-access cursors, pluggable storage
// allocation, always-on statistics, and optional Prometheus metrics.
//
// # Overview
//
// A RingBuffer holds at most Capacity() elements. PushBack appends a new
// newest element; once the buffer is full each push evicts the oldest one.
// Elements are addressed by logical position, where 0 is the newest element
// and Size()-1 the oldest:
//
//	rb, err := ringbuf.New[int]()
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := rb.Reserve(3); err != nil {
//		log.Fatal(err)
//	}
//
//	for i := 0; i < 5; i++ {
//		rb.PushBack(i)
//	}
//
//	rb.Get(0)    // 4, newest
//	rb.Get(2)    // 2, oldest
//	rb.At(3)     // RangeError: position 3 out of range for size 3
//	rb.Slice()   // [2 3 4]
//
// A buffer created with New has capacity 0 and must be given capacity with
// Reserve or Resize before the first push. PushBack on a zero-capacity buffer
// panics.
//
// # Capacity Management
//
// Reserve(n) sets the capacity to exactly n, keeping the n newest elements
// when shrinking. ShrinkToFit drops unused slots. Resize(n) and ResizeWith(n,
// fill) set capacity and size together, appending fill values as the newest
// elements when growing. Requests beyond MaxSize or below zero return a
// CapacityError and leave the buffer unchanged. MaxSize defaults to
// DefaultMaxSize[T](), the element count that fits in one allocation, so an
// oversized request is reported as an error rather than failing inside make.
// WithMaxSize can only lower it.
//
// Every capacity change copies the live elements into fresh storage,
// oldest first, and returns the old block to the Allocator.
//
// # Traversal
//
// Cursors walk the buffer oldest to newest (Begin/End) or newest to oldest
// (RBegin/REnd) and support random access:
//
//	for c := rb.Begin(); !c.Done(); c.Next() {
//		fmt.Println(c.Value())
//	}
//
//	mid := rb.Begin().Add(rb.Size() / 2)
//	*mid.Ptr() = 42
//
// The iterator functions All, Values and Backward wrap the same cursors for
// use with range:
//
//	for pos, v := range rb.Backward() {
//		fmt.Println(pos, v) // pos matches At(pos)
//	}
//
// Cursors snapshot the buffer layout. Any push, clear, reallocation, swap or
// move makes existing cursors stale; dereferencing a stale cursor panics
// instead of returning a shifted element.
//
// # Element Release
//
// Elements leave the buffer by eviction, by shrinking, by Clear, or by Close.
// Each departing element is passed to the ReleaseFunc set with
// WithReleaseFunc, and its Release method is called if it implements
// Releaser. This is the place to return pooled resources.
//
// # Allocation
//
// Backing storage comes from an Allocator. HeapAllocator (the default) uses
// make. PoolAllocator recycles blocks by length and can be shared between
// buffers:
//
//	pool := ringbuf.NewPoolAllocator[[]byte](0)
//	rb, _ := ringbuf.NewSized[[]byte](1024, ringbuf.WithAllocator[[]byte](pool))
//
// Swap exchanges allocators along with storage so a block is always returned
// to the allocator that produced it.
//
// # Observability
//
// Statistics are always collected and available via Stats(): pushes,
// evictions, reallocations, clears, swaps, failed checked accesses, peak
// size and utilization.
//
// WithMetrics additionally exports counters and gauges under the
// circbuf_ringbuf_ namespace with a component label:
//
//	rb, err := ringbuf.New[float64](
//		ringbuf.WithMetrics[float64](registry, "latency_window"),
//	)
//	defer rb.Close() // unregisters the metrics
//
// Clone and Move never inherit metrics; pass WithMetrics again to export the
// derived buffer under a different component label.
//
// # Thread Safety
//
// A RingBuffer is not safe for concurrent use; callers synchronize access.
// Statistics may be read concurrently with buffer operations.
//
// # Performance Characteristics
//
//   - PushBack, At, Get, Front, Back: O(1)
//   - Cursor movement and dereference: O(1)
//   - Reserve, Resize, ShrinkToFit, Clone: O(n)
//   - Clear: O(n) for releasing elements
//   - Swap and Move without an allocator override: O(1)
package ringbuf
