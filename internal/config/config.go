package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr      = ":8080"
	defaultDBPath          = "dguard.db"
	defaultWorkers         = 4
	defaultTransformDelay  = 2 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	envConfigFile      = "DGUARD_CONFIG"
	envListenAddr      = "DGUARD_LISTEN_ADDR"
	envDBPath          = "DGUARD_DB_PATH"
	envLogLevel        = "DGUARD_LOG_LEVEL"
	envWorkers         = "DGUARD_WORKERS"
	envMaxQueue        = "DGUARD_MAX_QUEUE"
	envRateLimit       = "DGUARD_RATE_LIMIT"
	envRateBurst       = "DGUARD_RATE_BURST"
	envTransformDelay  = "DGUARD_TRANSFORM_DELAY"
	envShutdownTimeout = "DGUARD_SHUTDOWN_TIMEOUT"
)

// Config holds application configuration.
type Config struct {
	ListenAddr      string
	DBPath          string
	LogLevel        slog.Level
	Workers         int
	MaxQueue        int
	RateLimit       float64
	RateBurst       int
	TransformDelay  time.Duration
	ShutdownTimeout time.Duration
}

// fileConfig mirrors Config in the YAML file. Durations and the log level
// are strings so they read naturally ("2s", "debug").
type fileConfig struct {
	ListenAddr      string  `yaml:"listen_addr"`
	DBPath          string  `yaml:"db_path"`
	LogLevel        string  `yaml:"log_level"`
	Workers         int     `yaml:"workers"`
	MaxQueue        int     `yaml:"max_queue"`
	RateLimit       float64 `yaml:"rate_limit"`
	RateBurst       int     `yaml:"rate_burst"`
	TransformDelay  string  `yaml:"transform_delay"`
	ShutdownTimeout string  `yaml:"shutdown_timeout"`
}

// Load builds the configuration from defaults, then the YAML file named by
// DGUARD_CONFIG if set, then individual environment variables.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		DBPath:          defaultDBPath,
		LogLevel:        slog.LevelInfo,
		Workers:         defaultWorkers,
		TransformDelay:  defaultTransformDelay,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if path := os.Getenv(envConfigFile); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.ListenAddr != "" {
		c.ListenAddr = fc.ListenAddr
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.Workers != 0 {
		c.Workers = fc.Workers
	}
	if fc.MaxQueue != 0 {
		c.MaxQueue = fc.MaxQueue
	}
	if fc.RateLimit != 0 {
		c.RateLimit = fc.RateLimit
	}
	if fc.RateBurst != 0 {
		c.RateBurst = fc.RateBurst
	}
	if fc.TransformDelay != "" {
		d, err := time.ParseDuration(fc.TransformDelay)
		if err != nil {
			return fmt.Errorf("config file transform_delay: %w", err)
		}
		c.TransformDelay = d
	}
	if fc.ShutdownTimeout != "" {
		d, err := time.ParseDuration(fc.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("config file shutdown_timeout: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = parseLogLevel(v)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{envWorkers, &c.Workers},
		{envMaxQueue, &c.MaxQueue},
		{envRateBurst, &c.RateBurst},
	}
	for _, e := range ints {
		if v := os.Getenv(e.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = n
		}
	}

	if v := os.Getenv(envRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", envRateLimit, err)
		}
		c.RateLimit = f
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{envTransformDelay, &c.TransformDelay},
		{envShutdownTimeout, &c.ShutdownTimeout},
	}
	for _, e := range durations {
		if v := os.Getenv(e.key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.key, err)
			}
			*e.dst = d
		}
	}
	return nil
}

// Validate reports values that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	case c.MaxQueue < 0:
		return fmt.Errorf("max queue must not be negative, got %d", c.MaxQueue)
	case c.RateLimit < 0:
		return fmt.Errorf("rate limit must not be negative, got %g", c.RateLimit)
	case c.TransformDelay < 0:
		return fmt.Errorf("transform delay must not be negative, got %s", c.TransformDelay)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
