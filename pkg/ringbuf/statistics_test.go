package ringbuf

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatistics_Counters(t *testing.T) {
	rb := newReserved[int](t, 3)
	pushAll(rb, 1, 2, 3, 4, 5)
	rb.Clear()
	_, _ = rb.At(0)

	other, err := FromSlice([]int{1})
	require.NoError(t, err)
	rb.Swap(other)

	stats := rb.Stats()
	assert.Equal(t, int64(5), stats.Pushes())
	assert.Equal(t, int64(2), stats.Evictions())
	assert.Equal(t, int64(1), stats.Reallocations())
	assert.Equal(t, int64(1), stats.Clears())
	assert.Equal(t, int64(1), stats.Swaps())
	assert.Equal(t, int64(1), stats.RangeMisses())
	assert.Equal(t, int64(3), stats.PeakSize())
	assert.Equal(t, int64(1), stats.CurrentSize(), "swap brings in the other buffer's contents")
	assert.Equal(t, int64(1), stats.Capacity())
	assert.InDelta(t, 0.4, stats.EvictionRate(), 1e-9)
}

func TestStatistics_Utilization(t *testing.T) {
	s := NewStatistics()
	assert.Equal(t, 0.0, s.Utilization())

	s.UpdateSize(3, 4)
	assert.InDelta(t, 0.75, s.Utilization(), 1e-9)

	s.UpdateSize(0, 0)
	assert.Equal(t, 0.0, s.Utilization())
	assert.Equal(t, int64(3), s.PeakSize())
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Push()
	s.Evict()
	s.UpdateSize(5, 10)
	s.UpdateSize(2, 10)

	s.Reset()
	assert.Zero(t, s.Pushes())
	assert.Zero(t, s.Evictions())
	assert.Equal(t, int64(2), s.CurrentSize())
	assert.Equal(t, int64(2), s.PeakSize())
	assert.Equal(t, 0.0, s.EvictionRate())
}

func TestStatistics_Summary(t *testing.T) {
	s := NewStatistics()
	for i := 0; i < 4; i++ {
		s.Push()
	}
	s.Evict()
	s.UpdateSize(4, 8)

	summary := s.Summary()
	assert.Equal(t, int64(4), summary.Pushes)
	assert.Equal(t, int64(1), summary.Evictions)
	assert.InDelta(t, 0.25, summary.EvictionRate, 1e-9)
	assert.InDelta(t, 0.5, summary.Utilization, 1e-9)
	assert.GreaterOrEqual(t, summary.Throughput, 0.0)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"eviction_rate":0.25`)
}

func TestStatistics_ConcurrentReads(t *testing.T) {
	rb := newReserved[int](t, 16)

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				_ = rb.Stats().Summary()
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		rb.PushBack(i)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, int64(1000), rb.Stats().Pushes())
}
