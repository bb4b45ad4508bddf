// Package metric provides a Prometheus-based metrics registry and HTTP server
// for circbuf observability.
//
// The registry wraps a dedicated prometheus.Registry (with Go runtime and process
// collectors) and tracks every collector under an "owner.metricName" key. Ring
// buffers created with ringbuf.WithMetrics register their counters and gauges
// here and unregister them on Close, so an owner label can be reused by a later
// buffer.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(server.Start)
//	g.Go(func() error {
//	    <-ctx.Done()
//	    return server.Stop()
//	})
//	<-server.Ready()
//
//	rb, err := ringbuf.New[int](ringbuf.WithMetrics[int](registry, "samples"))
//
// The server exposes Prometheus-formatted metrics at http://localhost:9090/metrics
// and a health check at http://localhost:9090/health. A Server runs once: Stop,
// even before Start, makes every later Start return errors.ErrAlreadyStopped.
// SetRateLimit answers requests over the limit with 429.
//
// # Reading Metrics Back
//
// Scrape fetches an endpoint and returns the counters of one component label,
// parsed with ParseText and filtered by CounterValues:
//
//	counters, err := metric.Scrape(ctx, server.Address(), "samples")
//	// counters["circbuf_ringbuf_pushes_total"] == 4
//
// # Registration Errors
//
// Registering the same owner/name twice, or a collector whose fully-qualified name
// collides inside Prometheus, returns an error classified as invalid
// (errors.IsInvalid). Any other Prometheus registration failure is fatal.
//
// # Thread Safety
//
// MetricsRegistry and Server are safe for concurrent use.
package metric
