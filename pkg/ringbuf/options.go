package ringbuf

import (
	"log/slog"
	"math"
	"unsafe"

	"github.com/c360/circbuf/metric"
)

// maxAllocBytes is the largest single allocation the runtime accepts on
// 64-bit platforms; on 32-bit platforms the int range is the tighter bound.
const maxAllocBytes = min(math.MaxInt, 1<<48)

// DefaultMaxSize returns the largest capacity a buffer of T accepts unless
// WithMaxSize lowers it: the number of elements that fit in one allocation.
// Zero-sized types are bounded only by the int range.
func DefaultMaxSize[T any]() int {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		return math.MaxInt
	}
	return maxAllocBytes / int(size)
}

// Option configures buffer behavior using the functional options pattern.
type Option[T any] func(*bufferOptions[T])

// ReleaseFunc is called once for every element leaving the buffer:
// evicted by PushBack, dropped by a shrinking reallocation, or removed by Clear.
type ReleaseFunc[T any] func(item T)

// Releaser is implemented by elements that hold resources.
// Release is called under the same conditions as a ReleaseFunc.
// Pointer element types must tolerate a nil receiver when the buffer
// holds zero-valued slots.
type Releaser interface {
	Release()
}

// bufferOptions holds internal configuration for buffer instances.
// Statistics are always collected; metrics are optional.
type bufferOptions[T any] struct {
	allocator   Allocator[T]
	maxSize     int
	releaseFunc ReleaseFunc[T]
	logger      *slog.Logger

	// metricsReg is optional; when set, statistics are also exported to Prometheus
	metricsReg    *metric.MetricsRegistry
	metricsPrefix string
}

// WithAllocator sets the allocator that provides backing storage.
// Defaults to HeapAllocator. A nil allocator is ignored.
func WithAllocator[T any](allocator Allocator[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		if allocator != nil {
			opts.allocator = allocator
		}
	}
}

// WithMaxSize caps the capacity any operation may request.
// Negative values are ignored and values above DefaultMaxSize are clamped.
func WithMaxSize[T any](maxSize int) Option[T] {
	return func(opts *bufferOptions[T]) {
		if maxSize >= 0 {
			opts.maxSize = maxSize
		}
	}
}

// WithReleaseFunc sets a callback invoked for each element leaving the buffer.
func WithReleaseFunc[T any](fn ReleaseFunc[T]) Option[T] {
	return func(opts *bufferOptions[T]) {
		opts.releaseFunc = fn
	}
}

// WithLogger sets the logger used for capacity changes and lifecycle events.
// Defaults to slog.Default().
func WithLogger[T any](logger *slog.Logger) Option[T] {
	return func(opts *bufferOptions[T]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithMetrics enables Prometheus metrics export for buffer statistics.
// The prefix becomes the component label and the registry owner key.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[T any](registry *metric.MetricsRegistry, prefix string) Option[T] {
	return func(opts *bufferOptions[T]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// applyOptions applies functional options to create final buffer configuration.
func applyOptions[T any](options ...Option[T]) *bufferOptions[T] {
	opts := &bufferOptions[T]{
		allocator: HeapAllocator[T]{},
		maxSize:   DefaultMaxSize[T](),
	}
	opts.apply(options...)
	return opts
}

func (opts *bufferOptions[T]) apply(options ...Option[T]) {
	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if limit := DefaultMaxSize[T](); opts.maxSize > limit {
		opts.maxSize = limit
	}
}

// derive copies the configuration for a buffer built from this one.
// Metrics are never inherited since a registry owner can be registered once.
// The returned flag reports whether options overrode the allocator.
func (opts *bufferOptions[T]) derive(allocator Allocator[T], options ...Option[T]) (*bufferOptions[T], bool) {
	derived := &bufferOptions[T]{
		maxSize:     opts.maxSize,
		releaseFunc: opts.releaseFunc,
		logger:      opts.logger,
	}
	derived.apply(options...)

	overridden := derived.allocator != nil
	if !overridden {
		derived.allocator = allocator
	}
	return derived, overridden
}
