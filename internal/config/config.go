// Package config assembles specforge's runtime configuration in
// layers: built-in defaults, an optional specforge.yaml file,
// environment variables, then functional options, each overriding the
// last.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/specforged/specforge/internal/specerrors"
)

// QueueConfig holds the processor's capacities, intervals, and retry
// defaults.
type QueueConfig struct {
	TickInterval      time.Duration
	BatchCapacity     int
	Concurrency       int // P: bounded semaphore for concurrent handler dispatch
	HandlerTimeout    time.Duration
	ShutdownGrace     time.Duration
	MaxRetries        int
	BackoffBase       time.Duration
	BackoffCap        time.Duration
	BackoffJitter     float64
	IdempotencyWindow time.Duration
	SyncWriteInterval time.Duration
}

// CacheConfig holds the LRU result cache's sizing.
type CacheConfig struct {
	Capacity int
}

// SandboxConfig optionally overrides path-sandbox root resolution.
type SandboxConfig struct {
	RootOverride string
}

// TelemetryConfig controls the optional OpenTelemetry bridge.
type TelemetryConfig struct {
	Enabled bool
}

// ConflictConfig overrides conflict auto-resolution policy.
type ConflictConfig struct {
	DuplicateWindow time.Duration
}

// OptimizerConfig holds the background optimizer's thresholds.
type OptimizerConfig struct {
	Interval          time.Duration
	TerminalTTL       time.Duration
	QueueLengthCap    int
	QueueLengthTarget int
	MemoryCeilingMiB  int64
	CacheOccupancyMax float64
}

// Config is the fully assembled runtime configuration.
type Config struct {
	Queue       QueueConfig
	Cache       CacheConfig
	Sandbox     SandboxConfig
	Telemetry   TelemetryConfig
	Conflict    ConflictConfig
	Optimizer   OptimizerConfig
	RedisURL    string
	LogLevel    string
	LogFormat   string
	HTTPPort    string
}

// Option mutates a Config during assembly; errors abort Load.
type Option func(*Config) error

// Default returns the documented baseline configuration.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			TickInterval:      1 * time.Second,
			BatchCapacity:     50,
			Concurrency:       3,
			HandlerTimeout:    30 * time.Second,
			ShutdownGrace:     5 * time.Second,
			MaxRetries:        3,
			BackoffBase:       500 * time.Millisecond,
			BackoffCap:        30 * time.Second,
			BackoffJitter:     0.5,
			IdempotencyWindow: 60 * time.Second,
			SyncWriteInterval: 30 * time.Second,
		},
		Cache: CacheConfig{Capacity: 500},
		Conflict: ConflictConfig{
			DuplicateWindow: 5 * time.Minute,
		},
		Optimizer: OptimizerConfig{
			Interval:          1 * time.Hour,
			TerminalTTL:       24 * time.Hour,
			QueueLengthCap:    10000,
			QueueLengthTarget: 5000,
			MemoryCeilingMiB:  150,
			CacheOccupancyMax: 0.9,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load applies defaults, then environment variables, then opts, then
// validates the result.
func Load(opts ...Option) (*Config, error) {
	cfg := Default()

	if err := applyYAMLFile(cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, specerrors.Wrap("config.Load", specerrors.ErrValidation, err)
		}
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv reads the documented SPECFORGE_* environment variables,
// including the dual SPECFORGE_BASE_DIR/SPECFORGED_BASE_DIR names. If
// both are set and disagree, that ambiguity is a startup error rather
// than a silent preference — see DESIGN.md's Open Question resolution.
func applyEnv(cfg *Config) error {
	baseDir, baseDirAlt := os.Getenv("SPECFORGE_BASE_DIR"), os.Getenv("SPECFORGED_BASE_DIR")
	if baseDir != "" && baseDirAlt != "" && baseDir != baseDirAlt {
		return specerrors.New("config.applyEnv", specerrors.ErrValidation,
			"SPECFORGE_BASE_DIR and SPECFORGED_BASE_DIR are both set and disagree")
	}
	if baseDir == "" {
		baseDir = baseDirAlt
	}
	if baseDir != "" {
		cfg.Sandbox.RootOverride = baseDir
	}

	if v := os.Getenv("SPECFORGE_PROJECT_ROOT"); v != "" {
		cfg.Sandbox.RootOverride = v
	}
	if v := os.Getenv("SPECFORGE_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("SPECFORGE_OTEL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telemetry.Enabled = b
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.HTTPPort = v
	}
	return nil
}

// yamlConfig is the optional specforge.yaml config-file schema, a
// subset of Config covering the settings an operator is likely to
// want checked into version control rather than passed as env vars.
// It sits below env vars and explicit options in precedence.
type yamlConfig struct {
	Queue struct {
		TickIntervalSeconds int `yaml:"tick_interval_seconds"`
		BatchCapacity       int `yaml:"batch_capacity"`
		Concurrency         int `yaml:"concurrency"`
		MaxRetries          int `yaml:"max_retries"`
	} `yaml:"queue"`
	Cache struct {
		Capacity int `yaml:"capacity"`
	} `yaml:"cache"`
	RedisURL  string `yaml:"redis_url"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	HTTPPort  string `yaml:"http_port"`
	Telemetry struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"telemetry"`
}

// applyYAMLFile merges an optional config file into cfg. The path is
// SPECFORGE_CONFIG_FILE if set, else "specforge.yaml" in the working
// directory; a missing file is not an error, since most deployments
// configure purely through environment variables.
func applyYAMLFile(cfg *Config) error {
	path := os.Getenv("SPECFORGE_CONFIG_FILE")
	if path == "" {
		path = "specforge.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return specerrors.Wrap("config.applyYAMLFile", specerrors.ErrValidation, err)
	}

	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return specerrors.Wrap("config.applyYAMLFile", specerrors.ErrValidation, err)
	}

	if y.Queue.TickIntervalSeconds > 0 {
		cfg.Queue.TickInterval = time.Duration(y.Queue.TickIntervalSeconds) * time.Second
	}
	if y.Queue.BatchCapacity > 0 {
		cfg.Queue.BatchCapacity = y.Queue.BatchCapacity
	}
	if y.Queue.Concurrency > 0 {
		cfg.Queue.Concurrency = y.Queue.Concurrency
	}
	if y.Queue.MaxRetries > 0 {
		cfg.Queue.MaxRetries = y.Queue.MaxRetries
	}
	if y.Cache.Capacity > 0 {
		cfg.Cache.Capacity = y.Cache.Capacity
	}
	if y.RedisURL != "" {
		cfg.RedisURL = y.RedisURL
	}
	if y.LogLevel != "" {
		cfg.LogLevel = y.LogLevel
	}
	if y.LogFormat != "" {
		cfg.LogFormat = y.LogFormat
	}
	if y.HTTPPort != "" {
		cfg.HTTPPort = y.HTTPPort
	}
	if y.Telemetry.Enabled {
		cfg.Telemetry.Enabled = true
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Queue.Concurrency < 1 {
		return specerrors.New("config.validate", specerrors.ErrValidation, "queue concurrency must be >= 1")
	}
	if cfg.Queue.BatchCapacity < 1 {
		return specerrors.New("config.validate", specerrors.ErrValidation, "batch capacity must be >= 1")
	}
	if cfg.Cache.Capacity < 1 {
		return specerrors.New("config.validate", specerrors.ErrValidation, "cache capacity must be >= 1")
	}
	return nil
}

// WithConcurrency overrides the handler-dispatch semaphore size.
func WithConcurrency(p int) Option {
	return func(c *Config) error {
		c.Queue.Concurrency = p
		return nil
	}
}

// WithCacheCapacity overrides the LRU result cache size.
func WithCacheCapacity(n int) Option {
	return func(c *Config) error {
		c.Cache.Capacity = n
		return nil
	}
}

// WithSandboxRoot overrides the resolved project root explicitly.
func WithSandboxRoot(root string) Option {
	return func(c *Config) error {
		c.Sandbox.RootOverride = root
		return nil
	}
}

// WithLogLevel overrides the logger's minimum level.
func WithLogLevel(level string) Option {
	return func(c *Config) error {
		c.LogLevel = level
		return nil
	}
}
