package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	MetricsPort int
	Hold        time.Duration
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags(args []string, output io.Writer) (*CLIConfig, *flag.FlagSet, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("CIRCBUF_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: CIRCBUF_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("CIRCBUF_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: CIRCBUF_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("CIRCBUF_LOG_LEVEL", ""),
		"Log level: debug, info, warn, error; overrides the file (env: CIRCBUF_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("CIRCBUF_LOG_FORMAT", ""),
		"Log format: json, text; overrides the file (env: CIRCBUF_LOG_FORMAT)")

	fs.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("CIRCBUF_METRICS_PORT", 0),
		"Serve Prometheus metrics on this port, 0 keeps the file setting (env: CIRCBUF_METRICS_PORT)")

	fs.DurationVar(&cfg.Hold, "hold",
		getEnvDuration("CIRCBUF_HOLD", 0),
		"Keep the metrics endpoint up this long after the scenario (env: CIRCBUF_HOLD)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	return cfg, fs, nil
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.LogLevel != "" && !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if cfg.LogFormat != "" && !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	if cfg.Hold < 0 {
		return fmt.Errorf("invalid hold duration: %s", cfg.Hold)
	}

	return nil
}

func printDetailedHelp(fs *flag.FlagSet) {
	out := fs.Output()
	_, _ = fmt.Fprintf(out, `%s - ring buffer walkthrough

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(out, `
Examples:
  # Run the built-in scenario
  %s

  # Run a scenario from a file with debug logging
  %s --config=configs/demo.yaml --log-level=debug --log-format=text

  # Expose metrics for a minute after the scenario
  %s --metrics-port=9090 --hold=1m

  # Validate configuration only
  %s --config=configs/demo.yaml --validate
`, appName, appName, appName, appName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
