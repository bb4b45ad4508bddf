package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360/circbuf/errors"
)

// Allocator names accepted by BufferConfig.Allocator
const (
	AllocatorHeap = "heap"
	AllocatorPool = "pool"
)

// Config represents the complete demo configuration
type Config struct {
	Buffer   BufferConfig   `json:"buffer" yaml:"buffer"`
	Scenario ScenarioConfig `json:"scenario" yaml:"scenario"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
}

// BufferConfig describes the ring buffer under test
type BufferConfig struct {
	// Capacity reserved before the first push
	Capacity int `json:"capacity" yaml:"capacity"`
	// MaxSize caps every capacity request; 0 means unbounded
	MaxSize   int    `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	Allocator string `json:"allocator" yaml:"allocator"` // heap or pool
	// MetricsPrefix is the component label when metrics are enabled
	MetricsPrefix string `json:"metrics_prefix" yaml:"metrics_prefix"`
}

// ScenarioConfig describes the operations the demo performs
type ScenarioConfig struct {
	Push     []int `json:"push" yaml:"push"`
	ResizeTo int   `json:"resize_to" yaml:"resize_to"`
	Fill     int   `json:"fill" yaml:"fill"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Port    int    `json:"port" yaml:"port"`
	Path    string `json:"path" yaml:"path"`
	// RateLimit caps requests per second; 0 disables throttling
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Burst     int     `json:"burst,omitempty" yaml:"burst,omitempty"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// Default returns the configuration used when no file is given:
// reserve 5, push 0..3, clear, then resize to 10 filled with 2.
func Default() *Config {
	return &Config{
		Buffer: BufferConfig{
			Capacity:      5,
			Allocator:     AllocatorHeap,
			MetricsPrefix: "demo",
		},
		Scenario: ScenarioConfig{
			Push:     []int{0, 1, 2, 3},
			ResizeTo: 10,
			Fill:     2,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Buffer.Capacity < 0 {
		return invalid("buffer.capacity must be non-negative, got %d", c.Buffer.Capacity)
	}
	if c.Buffer.MaxSize < 0 {
		return invalid("buffer.max_size must be non-negative, got %d", c.Buffer.MaxSize)
	}
	if c.Buffer.MaxSize > 0 && c.Buffer.Capacity > c.Buffer.MaxSize {
		return invalid("buffer.capacity %d exceeds buffer.max_size %d", c.Buffer.Capacity, c.Buffer.MaxSize)
	}
	if c.Buffer.Allocator != AllocatorHeap && c.Buffer.Allocator != AllocatorPool {
		return invalid("buffer.allocator must be %q or %q, got %q", AllocatorHeap, AllocatorPool, c.Buffer.Allocator)
	}

	if c.Scenario.ResizeTo < 0 {
		return invalid("scenario.resize_to must be non-negative, got %d", c.Scenario.ResizeTo)
	}
	if c.Buffer.MaxSize > 0 && c.Scenario.ResizeTo > c.Buffer.MaxSize {
		return invalid("scenario.resize_to %d exceeds buffer.max_size %d", c.Scenario.ResizeTo, c.Buffer.MaxSize)
	}
	if len(c.Scenario.Push) > 0 && c.Buffer.Capacity == 0 {
		return invalid("scenario.push requires buffer.capacity > 0")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return invalid("metrics.port must be in 1-65535, got %d", c.Metrics.Port)
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return invalid("metrics.path must start with /, got %q", c.Metrics.Path)
		}
		if c.Buffer.MetricsPrefix == "" {
			return invalid("buffer.metrics_prefix is required when metrics are enabled")
		}
		if c.Metrics.RateLimit < 0 {
			return invalid("metrics.rate_limit must be non-negative, got %g", c.Metrics.RateLimit)
		}
		if c.Metrics.Burst < 0 {
			return invalid("metrics.burst must be non-negative, got %d", c.Metrics.Burst)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return invalid("logging.format must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

func invalid(format string, args ...any) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
		"Config", "Validate", "validate configuration")
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}

	data, err := json.Marshal(c)
	if err != nil {
		copied := *c
		return &copied
	}

	var clone Config
	if err := json.Unmarshal(data, &clone); err != nil {
		copied := *c
		return &copied
	}

	return &clone
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// SaveToFile writes the configuration as JSON or YAML, chosen by extension
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "encode configuration")
	}

	if err := safeWriteFile(path, data); err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "write configuration")
	}
	return nil
}

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader with validation enabled
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "CIRCBUF",
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier ones.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// SetEnvPrefix changes the prefix of environment overrides
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = prefix
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, every layer and environment overrides, then validates
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		rawConfig, err := l.loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("load %s", path))
		}
		if err := validateLayer(rawConfig); err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("check %s", path))
		}
		cfg, err = l.mergeFromMap(cfg, rawConfig)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Loader", "Load", fmt.Sprintf("merge %s", path))
		}
	}

	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "apply environment overrides")
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Load loads and validates a single configuration file
func Load(path string) (*Config, error) {
	return NewLoader().LoadFile(path)
}

// loadRaw reads a JSON or YAML layer as a generic map
func (l *Loader) loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawConfig map[string]any
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &rawConfig); err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
		}
		return rawConfig, nil
	}

	if err := validateJSONDepth(data); err != nil {
		return nil, fmt.Errorf("invalid JSON structure: %w", err)
	}
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrParsingFailed, err)
	}
	return rawConfig, nil
}

// mergeFromMap merges configuration from a raw map, only overriding fields present in the map
func (l *Loader) mergeFromMap(base *Config, override map[string]any) (*Config, error) {
	if override == nil {
		return base, nil
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return nil, err
	}

	mergedJSON, err := json.Marshal(deepMergeMaps(baseMap, override))
	if err != nil {
		return nil, err
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidData, err)
	}

	return &merged, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		if baseMap, ok := base[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// applyEnvOverrides applies PREFIX_* environment variables on top of the file layers
func (l *Loader) applyEnvOverrides(cfg *Config) error {
	intVars := []struct {
		suffix string
		target *int
	}{
		{"_BUFFER_CAPACITY", &cfg.Buffer.Capacity},
		{"_BUFFER_MAX_SIZE", &cfg.Buffer.MaxSize},
		{"_SCENARIO_RESIZE_TO", &cfg.Scenario.ResizeTo},
		{"_SCENARIO_FILL", &cfg.Scenario.Fill},
		{"_METRICS_PORT", &cfg.Metrics.Port},
		{"_METRICS_BURST", &cfg.Metrics.Burst},
	}
	for _, v := range intVars {
		val, err := l.lookupEnv(v.suffix)
		if err != nil {
			return err
		}
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s%s: %w", l.envPrefix, v.suffix, err)
		}
		*v.target = n
	}

	stringVars := []struct {
		suffix string
		target *string
	}{
		{"_BUFFER_ALLOCATOR", &cfg.Buffer.Allocator},
		{"_BUFFER_METRICS_PREFIX", &cfg.Buffer.MetricsPrefix},
		{"_METRICS_PATH", &cfg.Metrics.Path},
		{"_LOG_LEVEL", &cfg.Logging.Level},
		{"_LOG_FORMAT", &cfg.Logging.Format},
	}
	for _, v := range stringVars {
		val, err := l.lookupEnv(v.suffix)
		if err != nil {
			return err
		}
		if val != "" {
			*v.target = val
		}
	}

	if val, err := l.lookupEnv("_METRICS_ENABLED"); err != nil {
		return err
	} else if val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s_METRICS_ENABLED: %w", l.envPrefix, err)
		}
		cfg.Metrics.Enabled = enabled
	}

	if val, err := l.lookupEnv("_METRICS_RATE_LIMIT"); err != nil {
		return err
	} else if val != "" {
		limit, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%s_METRICS_RATE_LIMIT: %w", l.envPrefix, err)
		}
		cfg.Metrics.RateLimit = limit
	}

	if val, err := l.lookupEnv("_SCENARIO_PUSH"); err != nil {
		return err
	} else if val != "" {
		values, err := parseIntList(val)
		if err != nil {
			return fmt.Errorf("%s_SCENARIO_PUSH: %w", l.envPrefix, err)
		}
		cfg.Scenario.Push = values
	}

	return nil
}

func (l *Loader) lookupEnv(suffix string) (string, error) {
	key := l.envPrefix + suffix
	val := os.Getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return "", err
	}
	return val, nil
}

// parseIntList parses a comma-separated list such as "0,1,2,3"
func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		values = append(values, n)
	}
	return values, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}
