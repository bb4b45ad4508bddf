package metric

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/c360/circbuf/errors"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(0, "", NewMetricsRegistry())
	assert.Equal(t, "http://localhost:9090/metrics", s.Address())
	assert.False(t, s.Running())
}

func TestServer_Handler(t *testing.T) {
	defer goleak.VerifyNone(t)

	registry := NewMetricsRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "handler_test_total",
		Help: "Counter exposed through the handler",
	})
	require.NoError(t, registry.RegisterCounter("handler", "handler_test_total", counter))
	counter.Add(3)

	ts := httptest.NewServer(NewServer(9999, "/metrics", registry).Handler())
	defer ts.Close()
	defer ts.Client().CloseIdleConnections()

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "handler_test_total 3")

	resp, err = ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "OK", string(body))
}

func TestServer_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewServer(freePort(t), "/metrics", NewMetricsRegistry())

	done := make(chan error, 1)
	go func() {
		done <- s.Start()
	}()

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("listener was not bound")
	}
	assert.True(t, s.Running())

	err := s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStarted)

	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Stop is idempotent and the server does not restart
	assert.NoError(t, s.Stop())
	err = s.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAlreadyStopped)
	assert.False(t, s.Running())
}

func TestServer_StopBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewServer(freePort(t), "/metrics", NewMetricsRegistry())
	require.NoError(t, s.Stop())

	done := make(chan error, 1)
	go func() {
		done <- s.Start()
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrAlreadyStopped)
		assert.True(t, errors.IsInvalid(err))
	case <-time.After(2 * time.Second):
		t.Fatal("Start served after Stop")
	}

	assert.False(t, s.Running())
	select {
	case <-s.Ready():
		t.Fatal("Ready closed for a server that never listened")
	default:
	}
}

func TestServer_RateLimit(t *testing.T) {
	s := NewServer(9999, "/metrics", NewMetricsRegistry())
	s.SetRateLimit(0.001, 1)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// Disabling the limit affects handlers built afterwards
	s.SetRateLimit(0, 0)
	unlimited := httptest.NewServer(s.Handler())
	defer unlimited.Close()
	for range 3 {
		resp, err := unlimited.Client().Get(unlimited.URL + "/health")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}

func TestServer_StartWithoutRegistry(t *testing.T) {
	s := NewServer(freePort(t), "/metrics", nil)
	err := s.Start()
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}
