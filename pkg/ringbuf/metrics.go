package ringbuf

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/circbuf/metric"
)

const (
	metricsNamespace = "circbuf"
	metricsSubsystem = "ringbuf"
)

// bufferMetrics holds Prometheus metrics for ring buffer operations.
type bufferMetrics struct {
	registry *metric.MetricsRegistry
	owner    string
	names    []string

	pushes        prometheus.Counter
	evictions     prometheus.Counter
	reallocations prometheus.Counter
	clears        prometheus.Counter

	size        prometheus.Gauge
	capacity    prometheus.Gauge
	utilization prometheus.Gauge
}

func newCounter(prefix, name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

func newGauge(prefix, name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   metricsNamespace,
		Subsystem:   metricsSubsystem,
		Name:        name,
		ConstLabels: prometheus.Labels{"component": prefix},
		Help:        help,
	})
}

// newBufferMetrics creates and registers ring buffer metrics with the provided registry.
// On failure every metric registered so far is unregistered again.
func newBufferMetrics(registry *metric.MetricsRegistry, prefix string) (*bufferMetrics, error) {
	m := &bufferMetrics{
		registry:      registry,
		owner:         prefix,
		pushes:        newCounter(prefix, "pushes_total", "Total number of elements appended"),
		evictions:     newCounter(prefix, "evictions_total", "Total number of elements overwritten by pushes into a full buffer"),
		reallocations: newCounter(prefix, "reallocations_total", "Total number of capacity changes"),
		clears:        newCounter(prefix, "clears_total", "Total number of clear operations"),
		size:          newGauge(prefix, "size", "Current number of elements in the buffer"),
		capacity:      newGauge(prefix, "capacity", "Current capacity of the buffer"),
		utilization:   newGauge(prefix, "utilization", "Buffer utilization as a fraction (0.0 to 1.0)"),
	}

	counters := []struct {
		name string
		c    prometheus.Counter
	}{
		{"ringbuf_pushes", m.pushes},
		{"ringbuf_evictions", m.evictions},
		{"ringbuf_reallocations", m.reallocations},
		{"ringbuf_clears", m.clears},
	}
	for _, c := range counters {
		if err := registry.RegisterCounter(prefix, c.name, c.c); err != nil {
			m.unregister()
			return nil, err
		}
		m.names = append(m.names, c.name)
	}

	gauges := []struct {
		name string
		g    prometheus.Gauge
	}{
		{"ringbuf_size", m.size},
		{"ringbuf_capacity", m.capacity},
		{"ringbuf_utilization", m.utilization},
	}
	for _, g := range gauges {
		if err := registry.RegisterGauge(prefix, g.name, g.g); err != nil {
			m.unregister()
			return nil, err
		}
		m.names = append(m.names, g.name)
	}

	return m, nil
}

// recordPush increments the push counter and updates size/utilization.
func (m *bufferMetrics) recordPush(size, capacity int) {
	m.pushes.Inc()
	m.updateSize(size, capacity)
}

// recordEviction increments the eviction counter.
func (m *bufferMetrics) recordEviction() {
	m.evictions.Inc()
}

// recordReallocation increments the reallocation counter and updates the gauges.
func (m *bufferMetrics) recordReallocation(size, capacity int) {
	m.reallocations.Inc()
	m.updateSize(size, capacity)
}

// recordClear increments the clear counter and updates the gauges.
func (m *bufferMetrics) recordClear(capacity int) {
	m.clears.Inc()
	m.updateSize(0, capacity)
}

// updateSize sets the current size, capacity and utilization.
func (m *bufferMetrics) updateSize(size, capacity int) {
	m.size.Set(float64(size))
	m.capacity.Set(float64(capacity))
	if capacity == 0 {
		m.utilization.Set(0)
		return
	}
	m.utilization.Set(float64(size) / float64(capacity))
}

// unregister removes every registered metric so the owner label can be reused.
func (m *bufferMetrics) unregister() {
	for _, name := range m.names {
		m.registry.Unregister(m.owner, name)
	}
	m.names = nil
}
