// Package testutil provides test doubles and generic data for circbuf tests.
//
// # Core Components
//
// MockAllocator - allocator double for ring buffer storage:
//   - Counts Allocate/Deallocate calls and records requested sizes
//   - Tracks outstanding blocks; Outstanding() == 0 after Close means no leak
//   - Panics on double free or foreign blocks
//   - Optional AllocateFunc hook for injecting misbehaving allocators
//
// ReleaseLog and Tracked - element lifetime tracking:
//   - Tracked implements ringbuf.Releaser
//   - Every release is appended to the shared ReleaseLog in order
//   - Count(id) verifies an element was released exactly once
//
// Test data:
//   - Sequence, Reversed and LastN build expected slices for model checks
//   - TestWords for string buffers
//
// # Usage
//
//	func TestNoLeaks(t *testing.T) {
//	    alloc := testutil.NewMockAllocator[*testutil.Tracked]()
//	    log := testutil.NewReleaseLog()
//
//	    rb, err := ringbuf.NewSized[*testutil.Tracked](3,
//	        ringbuf.WithAllocator[*testutil.Tracked](alloc))
//	    require.NoError(t, err)
//
//	    for i := 0; i < 5; i++ {
//	        rb.PushBack(log.Track(i))
//	    }
//	    require.NoError(t, rb.Close())
//
//	    assert.Equal(t, 0, alloc.Outstanding())
//	    assert.Equal(t, []int{0, 1, 2, 3, 4}, log.Released())
//	}
//
// # Thread Safety
//
// MockAllocator and ReleaseLog are safe for concurrent use.
package testutil
