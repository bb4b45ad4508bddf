package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/circbuf/config"
	"github.com/c360/circbuf/errors"
	"github.com/c360/circbuf/metric"
)

const defaultScenarioOutput = `Buffer size: 4
Buffer capacity: 5
Buffer values: 0 1 2 3
Buffer size: 0
Buffer capacity: 5
Buffer values: 2 2 2 2 2 2 2 2 2 2
`

func runDemo(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func TestRun_DefaultScenario(t *testing.T) {
	stdout, stderr, err := runDemo(t)
	require.NoError(t, err)

	assert.Equal(t, defaultScenarioOutput, stdout)
	assert.Contains(t, stderr, "Starting circbuf demo")
	assert.Contains(t, stderr, "Scenario complete")
}

func TestRun_ConfigFile(t *testing.T) {
	path := writeConfig(t, "demo.yaml", `
buffer:
  capacity: 3
  allocator: pool
scenario:
  push: [1, 2, 3, 4, 5]
  resize_to: 2
  fill: 9
logging:
  format: json
`)

	stdout, stderr, err := runDemo(t, "-config", path)
	require.NoError(t, err)

	assert.Equal(t, `Buffer size: 3
Buffer capacity: 3
Buffer values: 3 4 5
Buffer size: 0
Buffer capacity: 3
Buffer values: 9 9
`, stdout)
	assert.Contains(t, stderr, `"msg":"Scenario complete"`)
}

func TestRun_EmptyScenario(t *testing.T) {
	path := writeConfig(t, "empty.json", `{"buffer": {"capacity": 0}, "scenario": {"push": [], "resize_to": 0}}`)

	stdout, _, err := runDemo(t, "-c", path)
	require.NoError(t, err)
	assert.Equal(t, `Buffer size: 0
Buffer capacity: 0
Buffer values:
Buffer size: 0
Buffer capacity: 0
Buffer values:
`, stdout)
}

func TestRun_Version(t *testing.T) {
	stdout, _, err := runDemo(t, "-version")
	require.NoError(t, err)
	assert.Equal(t, "circbuf-demo version "+Version+"\n", stdout)
}

func TestRun_Help(t *testing.T) {
	stdout, _, err := runDemo(t, "-help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Usage: circbuf-demo")
	assert.Contains(t, stdout, "-metrics-port")
}

func TestRun_Validate(t *testing.T) {
	stdout, stderr, err := runDemo(t, "-validate")
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Configuration is valid")
}

func TestRun_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "bad.json", `{"buffer": {"capacity": -1}}`)

	stdout, _, err := runDemo(t, "-config", path)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestRun_MissingConfig(t *testing.T) {
	_, _, err := runDemo(t, "-config", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConfigNotFound)
}

func TestRun_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"log level", []string{"-log-level", "verbose"}},
		{"log format", []string{"-log-format", "xml"}},
		{"metrics port", []string{"-metrics-port", "70000"}},
		{"hold", []string{"-hold", "-1s"}},
		{"unknown flag", []string{"-bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runDemo(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid flags")
		})
	}
}

func TestRun_WithMetrics(t *testing.T) {
	port := freePort(t)

	stdout, stderr, err := runDemo(t, "-metrics-port", strconv.Itoa(port), "-hold", "10ms")
	require.NoError(t, err)
	assert.Equal(t, defaultScenarioOutput, stdout)
	assert.Contains(t, stderr, "Metrics server listening")
	assert.Contains(t, stderr, "Exported counters")
	assert.Contains(t, stderr, "Holding metrics endpoint")
}

func TestRun_MetricsPortInUse(t *testing.T) {
	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	stdout, _, err := runDemo(t, "-metrics-port", strconv.Itoa(port))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
	assert.Equal(t, exitFailure, exitCode(err))
	assert.Empty(t, stdout, "the scenario does not run without its metrics endpoint")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "validate configuration"), exitUsage},
		{"capacity", errors.ErrCapacityExceeded, exitUsage},
		{"transient", errors.WrapTransient(errors.ErrUnavailable, "Demo", "Run", "wait for metrics listener"), exitTransient},
		{"fatal", errors.WrapFatal(fmt.Errorf("bind"), "Server", "Start", "listen"), exitFailure},
		{"unclassified", fmt.Errorf("flag provided but not defined"), exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestInitializeConfiguration_FlagOverrides(t *testing.T) {
	cfg, err := initializeConfiguration(&CLIConfig{
		LogLevel:    "debug",
		LogFormat:   "json",
		MetricsPort: 9191,
	})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
}

func TestParseFlags_EnvFallback(t *testing.T) {
	t.Setenv("CIRCBUF_LOG_LEVEL", "warn")
	t.Setenv("CIRCBUF_HOLD", "3s")
	t.Setenv("CIRCBUF_METRICS_PORT", "not-a-port")

	cliCfg, _, err := parseFlags(nil, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "warn", cliCfg.LogLevel)
	assert.Equal(t, 3*time.Second, cliCfg.Hold)
	assert.Equal(t, 0, cliCfg.MetricsPort, "unparsable values fall back to the default")
}

func TestBuildBuffer_Options(t *testing.T) {
	cfg := config.Default()
	cfg.Buffer.MaxSize = 8
	cfg.Buffer.Allocator = config.AllocatorPool
	registry := metric.NewMetricsRegistry()

	rb, err := buildBuffer(cfg, registry, setupLogger("error", "text", &bytes.Buffer{}))
	require.NoError(t, err)

	assert.Equal(t, 8, rb.MaxSize())
	assert.True(t, registry.Registered(cfg.Buffer.MetricsPrefix, "ringbuf_pushes"))

	require.NoError(t, rb.Close())
	assert.False(t, registry.Registered(cfg.Buffer.MetricsPrefix, "ringbuf_pushes"))
}

func TestSetupLogger_RunID(t *testing.T) {
	var first, second bytes.Buffer
	setupLogger("info", "json", &first).Info("one")
	setupLogger("info", "json", &second).Info("two")

	var a, b struct {
		Service string `json:"service"`
		RunID   string `json:"run_id"`
	}
	require.NoError(t, json.Unmarshal(first.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Bytes(), &b))

	assert.Equal(t, appName, a.Service)
	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestSetupLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger("warn", "text", &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
