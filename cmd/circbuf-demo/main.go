// Package main implements circbuf-demo, a command that walks a ring buffer
// through a configurable push, clear and resize scenario and prints its
// state after each step.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/circbuf/config"
	"github.com/c360/circbuf/errors"
	"github.com/c360/circbuf/metric"
	"github.com/c360/circbuf/pkg/ringbuf"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "circbuf-demo"
)

// Exit codes follow sysexits(3) so scripts can tell a bad request from a
// condition worth retrying.
const (
	exitFailure   = 1
	exitUsage     = 64
	exitTransient = 75
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := exitCode(err)
		slog.Error("Application failed", "error", err, "exit_code", code)
		os.Exit(code)
	}
}

// exitCode maps an error class onto a process exit status
func exitCode(err error) int {
	class, ok := errors.Classify(err)
	if !ok {
		return exitFailure
	}
	switch class {
	case errors.ErrorInvalid:
		return exitUsage
	case errors.ErrorTransient:
		return exitTransient
	default:
		return exitFailure
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cliCfg, shouldExit, err := initializeCLI(args, stdout, stderr)
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format, stderr)
	logger.Info("Starting circbuf demo",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	if cliCfg.Validate {
		logger.Info("Configuration is valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cancelled when the scenario finishes so the metrics server shuts down
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	var (
		registry *metric.MetricsRegistry
		server   *metric.Server
	)
	if cfg.Metrics.Enabled {
		registry = metric.NewMetricsRegistry()
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		server.SetRateLimit(cfg.Metrics.RateLimit, cfg.Metrics.Burst)

		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			return server.Stop()
		})
	}

	g.Go(func() error {
		defer cancel()

		if server != nil {
			select {
			case <-server.Ready():
				logger.Info("Metrics server listening", "address", server.Address())
			case <-gctx.Done():
				return errors.WrapTransient(errors.ErrUnavailable, "Demo", "Run", "wait for metrics listener")
			}
		}

		return runBuffer(gctx, cfg, cliCfg.Hold, registry, server, stdout, logger)
	})

	return g.Wait()
}

// runBuffer builds the buffer, runs the scenario and optionally holds the
// metrics endpoint open for scraping.
func runBuffer(
	ctx context.Context,
	cfg *config.Config,
	hold time.Duration,
	registry *metric.MetricsRegistry,
	server *metric.Server,
	stdout io.Writer,
	logger *slog.Logger,
) error {
	rb, err := buildBuffer(cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rb.Close(); err != nil {
			logger.Warn("Failed to close ring buffer", "error", err)
		}
	}()

	if err := runScenario(rb, cfg, stdout); err != nil {
		return err
	}

	logger.Info("Scenario complete", "stats", rb.Stats().Summary())

	if server == nil {
		return nil
	}

	counters, err := metric.Scrape(ctx, server.Address(), cfg.Buffer.MetricsPrefix)
	if err != nil {
		logger.Warn("Failed to read back exported metrics", "error", err)
	} else {
		logger.Info("Exported counters", "counters", counters)
	}

	if hold > 0 {
		logger.Info("Holding metrics endpoint", "duration", hold)
		select {
		case <-ctx.Done():
		case <-time.After(hold):
		}
	}
	return nil
}

// initializeCLI parses flags and handles version and help requests
func initializeCLI(args []string, stdout, stderr io.Writer) (*CLIConfig, bool, error) {
	cliCfg, fs, err := parseFlags(args, stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		fs.SetOutput(stdout)
		printDetailedHelp(fs)
		return nil, true, nil
	}

	return cliCfg, false, nil
}

// initializeConfiguration layers the config file, environment and flags
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cliCfg.ConfigPath != "" {
		loader.AddLayer(cliCfg.ConfigPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cliCfg.LogLevel != "" {
		cfg.Logging.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Logging.Format = cliCfg.LogFormat
	}
	if cliCfg.MetricsPort > 0 {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = cliCfg.MetricsPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func buildBuffer(
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*ringbuf.RingBuffer[int], error) {
	opts := []ringbuf.Option[int]{
		ringbuf.WithLogger[int](logger.With("component", cfg.Buffer.MetricsPrefix)),
	}

	if cfg.Buffer.Allocator == config.AllocatorPool {
		opts = append(opts, ringbuf.WithAllocator[int](
			ringbuf.NewPoolAllocator[int](ringbuf.DefaultPoolBlocksPerSize)))
	}
	if cfg.Buffer.MaxSize > 0 {
		opts = append(opts, ringbuf.WithMaxSize[int](cfg.Buffer.MaxSize))
	}
	if registry != nil {
		opts = append(opts, ringbuf.WithMetrics[int](registry, cfg.Buffer.MetricsPrefix))
	}

	rb, err := ringbuf.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ring buffer: %w", err)
	}
	return rb, nil
}

// runScenario reserves, pushes, clears and resizes, printing state in between
func runScenario(rb *ringbuf.RingBuffer[int], cfg *config.Config, out io.Writer) error {
	if err := rb.Reserve(cfg.Buffer.Capacity); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}

	for _, v := range cfg.Scenario.Push {
		rb.PushBack(v)
	}

	printSize(out, rb)
	printValues(out, rb)

	rb.Clear()
	printSize(out, rb)

	if err := rb.ResizeWith(cfg.Scenario.ResizeTo, cfg.Scenario.Fill); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	printValues(out, rb)

	return nil
}

func printSize(out io.Writer, rb *ringbuf.RingBuffer[int]) {
	_, _ = fmt.Fprintf(out, "Buffer size: %d\n", rb.Size())
	_, _ = fmt.Fprintf(out, "Buffer capacity: %d\n", rb.Capacity())
}

func printValues(out io.Writer, rb *ringbuf.RingBuffer[int]) {
	var sb strings.Builder
	sb.WriteString("Buffer values:")
	for v := range rb.Values() {
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(v))
	}
	sb.WriteByte('\n')
	_, _ = io.WriteString(out, sb.String())
}
