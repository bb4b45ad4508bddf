// Package circbuf provides a generic fixed-capacity ring buffer with
// overwrite-oldest semantics, cursor traversal and pluggable storage
// allocation, plus the small amount of infrastructure needed to observe it.
//
// # Architecture
//
// The module is layered so the buffer itself has no knowledge of how it is
// configured or exported:
//
//	┌─────────────────────────────────────┐
//	│        cmd/circbuf-demo             │  Flags, config layers,
//	│   (scenario runner, metrics HTTP)   │  logging setup
//	└─────────────────────────────────────┘
//	           ↓ builds
//	┌─────────────────────────────────────┐
//	│          pkg/ringbuf                │  RingBuffer[T], Cursor[T],
//	│  (storage, traversal, allocation)   │  Allocator[T], Statistics
//	└─────────────────────────────────────┘
//	           ↓ reports to
//	┌─────────────────────────────────────┐
//	│      metric / errors                │  Prometheus registry,
//	│  (registry, classified errors)      │  error classification
//	└─────────────────────────────────────┘
//
// # Packages
//
//   - pkg/ringbuf: the ring buffer, its cursors and allocators
//   - errors: sentinel errors and transient/invalid/fatal classification
//   - metric: owner-scoped Prometheus registry and the /metrics server
//   - config: layered JSON/YAML configuration with CIRCBUF_* overrides
//   - testutil: mock allocators and release tracking for tests
//
// # Semantics in Brief
//
// A RingBuffer holds at most Capacity() elements. Pushing into a full buffer
// overwrites the oldest element. Logical position 0 is the newest element;
// forward traversal visits elements from oldest to newest. Capacity changes
// keep the newest elements and invalidate outstanding cursors.
//
//	rb, _ := ringbuf.New[int]()
//	_ = rb.Reserve(3)
//	for i := range 5 {
//		rb.PushBack(i)
//	}
//	fmt.Println(rb.Slice()) // [2 3 4]
//	fmt.Println(rb.Get(0))  // 4
//
// # Running the Demo
//
//	go run ./cmd/circbuf-demo
//	go run ./cmd/circbuf-demo --config configs/demo.yaml --log-level=debug
//	go run ./cmd/circbuf-demo --metrics-port=9090 --hold=1m
//
// # Testing
//
//	go test ./...
//	go test -race ./...
//	go test -bench=. ./pkg/ringbuf
package circbuf
