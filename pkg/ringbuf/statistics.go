package ringbuf

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks ring buffer activity.
// Counters are atomic so a Statistics value may be read from any goroutine
// while its buffer is driven by its owner.
type Statistics struct {
	pushes        int64
	evictions     int64
	reallocations int64
	clears        int64
	swaps         int64
	rangeMisses   int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	peakSize    int64
	capacity    int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Push records an appended element.
func (s *Statistics) Push() {
	atomic.AddInt64(&s.pushes, 1)
}

// Evict records an element overwritten by a push into a full buffer.
func (s *Statistics) Evict() {
	atomic.AddInt64(&s.evictions, 1)
}

// Reallocate records a capacity change.
func (s *Statistics) Reallocate() {
	atomic.AddInt64(&s.reallocations, 1)
}

// Clear records a Clear call.
func (s *Statistics) Clear() {
	atomic.AddInt64(&s.clears, 1)
}

// Swap records a content exchange with another buffer.
func (s *Statistics) Swap() {
	atomic.AddInt64(&s.swaps, 1)
}

// RangeMiss records a checked access that failed.
func (s *Statistics) RangeMiss() {
	atomic.AddInt64(&s.rangeMisses, 1)
}

// UpdateSize records the current size and capacity.
func (s *Statistics) UpdateSize(size, capacity int) {
	s.mu.Lock()
	s.currentSize = int64(size)
	s.capacity = int64(capacity)
	if s.currentSize > s.peakSize {
		s.peakSize = s.currentSize
	}
	s.mu.Unlock()
}

// Pushes returns the total number of appended elements.
func (s *Statistics) Pushes() int64 {
	return atomic.LoadInt64(&s.pushes)
}

// Evictions returns the total number of overwritten elements.
func (s *Statistics) Evictions() int64 {
	return atomic.LoadInt64(&s.evictions)
}

// Reallocations returns the total number of capacity changes.
func (s *Statistics) Reallocations() int64 {
	return atomic.LoadInt64(&s.reallocations)
}

// Clears returns the total number of Clear calls.
func (s *Statistics) Clears() int64 {
	return atomic.LoadInt64(&s.clears)
}

// Swaps returns the total number of swaps.
func (s *Statistics) Swaps() int64 {
	return atomic.LoadInt64(&s.swaps)
}

// RangeMisses returns the total number of failed checked accesses.
func (s *Statistics) RangeMisses() int64 {
	return atomic.LoadInt64(&s.rangeMisses)
}

// CurrentSize returns the last recorded element count.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// PeakSize returns the largest element count observed.
func (s *Statistics) PeakSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peakSize
}

// Capacity returns the last recorded capacity.
func (s *Statistics) Capacity() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

// Throughput returns the average number of pushes per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Pushes()) / elapsed.Seconds()
}

// EvictionRate returns the fraction of pushes that overwrote an element (0.0 to 1.0).
func (s *Statistics) EvictionRate() float64 {
	pushes := s.Pushes()
	if pushes == 0 {
		return 0.0
	}
	return float64(s.Evictions()) / float64(pushes)
}

// Utilization returns size over capacity (0.0 to 1.0).
func (s *Statistics) Utilization() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.capacity == 0 {
		return 0.0
	}
	return float64(s.currentSize) / float64(s.capacity)
}

// Uptime returns how long the statistics have been collected.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset zeroes all counters and the peak size. The current size and
// capacity are kept since they describe the buffer, not its history.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.pushes, 0)
	atomic.StoreInt64(&s.evictions, 0)
	atomic.StoreInt64(&s.reallocations, 0)
	atomic.StoreInt64(&s.clears, 0)
	atomic.StoreInt64(&s.swaps, 0)
	atomic.StoreInt64(&s.rangeMisses, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.peakSize = s.currentSize
	s.mu.Unlock()
}

// StatsSummary is a point-in-time snapshot of Statistics.
type StatsSummary struct {
	Pushes        int64         `json:"pushes"`
	Evictions     int64         `json:"evictions"`
	Reallocations int64         `json:"reallocations"`
	Clears        int64         `json:"clears"`
	Swaps         int64         `json:"swaps"`
	RangeMisses   int64         `json:"range_misses"`
	CurrentSize   int64         `json:"current_size"`
	PeakSize      int64         `json:"peak_size"`
	Capacity      int64         `json:"capacity"`
	Throughput    float64       `json:"throughput"`
	EvictionRate  float64       `json:"eviction_rate"`
	Utilization   float64       `json:"utilization"`
	Uptime        time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Pushes:        s.Pushes(),
		Evictions:     s.Evictions(),
		Reallocations: s.Reallocations(),
		Clears:        s.Clears(),
		Swaps:         s.Swaps(),
		RangeMisses:   s.RangeMisses(),
		CurrentSize:   s.CurrentSize(),
		PeakSize:      s.PeakSize(),
		Capacity:      s.Capacity(),
		Throughput:    s.Throughput(),
		EvictionRate:  s.EvictionRate(),
		Utilization:   s.Utilization(),
		Uptime:        s.Uptime(),
	}
}
