// Package config loads configuration for the mathflow server and CLI.
//
// Configuration comes from a single file named by the --config flag or the
// MATHFLOW_CONFIG environment variable. Files ending in .json or .jsonc are
// read as JSON with comments; anything else is YAML. Values in the file are
// applied over Default, so a file only needs the fields it changes. With no
// file at all, Default is used as is.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/njchilds90/mathflow"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "MATHFLOW_CONFIG"

// Config is the complete configuration.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Engine EngineConfig `yaml:"engine" json:"engine"`
	Cache  CacheConfig  `yaml:"cache" json:"cache"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	// Address is the listen address. ${VAR} and ${VAR:-default} are
	// expanded from the environment.
	// Default: :8000
	Address string `yaml:"address" json:"address"`

	// MaxBodyBytes caps request bodies.
	// Default: 1 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes"`

	ReadTimeout     Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig is a token bucket shared by all clients. A zero
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// EngineConfig bounds the work done per request.
type EngineConfig struct {
	MaxNodes       int      `yaml:"max_nodes" json:"max_nodes"`
	MaxDepth       int      `yaml:"max_depth" json:"max_depth"`
	StepBudget     int64    `yaml:"step_budget" json:"step_budget"`
	Timeout        Duration `yaml:"timeout" json:"timeout"`
	MaxExpandPower int      `yaml:"max_expand_power" json:"max_expand_power"`
	MaxSeriesOrder int      `yaml:"max_series_order" json:"max_series_order"`
	MaxTerms       int      `yaml:"max_terms" json:"max_terms"`

	// Parallelism bounds concurrent evaluations in batch mode.
	// Default: 4
	Parallelism int `yaml:"parallelism" json:"parallelism"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// Size is the number of responses kept. 0 disables the cache.
	Size int `yaml:"size" json:"size"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" json:"level"`
	// Format is json or text.
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := mathflow.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Address:         ":8000",
			MaxBodyBytes:    1 << 20,
			ReadTimeout:     Duration{15 * time.Second},
			WriteTimeout:    Duration{30 * time.Second},
			IdleTimeout:     Duration{60 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Engine: EngineConfig{
			MaxNodes:       opts.MaxNodes,
			MaxDepth:       opts.MaxDepth,
			StepBudget:     opts.StepBudget,
			Timeout:        Duration{opts.Timeout},
			MaxExpandPower: opts.MaxExpandPower,
			MaxSeriesOrder: opts.MaxSeriesOrder,
			MaxTerms:       opts.MaxTerms,
			Parallelism:    4,
		},
		Cache: CacheConfig{Size: opts.CacheSize},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the file at path, or at $MATHFLOW_CONFIG when path is empty.
// With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, cfg.Validate()
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path over Default and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		return dec.Decode(c)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) expandVariables() {
	c.Server.Address = expandVars(c.Server.Address)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} from the environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, fmt.Errorf("server.address is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive"))
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit.requests_per_second must not be negative"))
	}
	if c.Server.RateLimit.RequestsPerSecond > 0 && c.Server.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("server.rate_limit.burst must be at least 1 when limiting is enabled"))
	}

	for name, v := range map[string]int{
		"engine.max_nodes":        c.Engine.MaxNodes,
		"engine.max_depth":        c.Engine.MaxDepth,
		"engine.max_expand_power": c.Engine.MaxExpandPower,
		"engine.max_series_order": c.Engine.MaxSeriesOrder,
		"engine.max_terms":        c.Engine.MaxTerms,
		"engine.parallelism":      c.Engine.Parallelism,
	} {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text"))
	}

	return errors.Join(errs...)
}

// EngineOptions converts the engine and cache sections for mathflow.New.
func (c *Config) EngineOptions(logger *slog.Logger) mathflow.Options {
	return mathflow.Options{
		MaxNodes:       c.Engine.MaxNodes,
		MaxDepth:       c.Engine.MaxDepth,
		StepBudget:     c.Engine.StepBudget,
		Timeout:        c.Engine.Timeout.Duration,
		MaxExpandPower: c.Engine.MaxExpandPower,
		MaxSeriesOrder: c.Engine.MaxSeriesOrder,
		MaxTerms:       c.Engine.MaxTerms,
		CacheSize:      c.Cache.Size,
		Logger:         logger,
	}
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Duration is a time.Duration written as a string such as "10s".
type Duration struct{ time.Duration }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// NewLogger builds a JSON or text slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := l.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}
