// Package config loads settings for the carve and carved binaries.
//
// Values are resolved in order: defaults, YAML file, .env file, then
// SEAMCARVE_* environment variables. Command-line flags are applied by the
// binaries on top of the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/seamcarve"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SEAMCARVE_"

// Config holds all settings.
type Config struct {
	Backend       string        `yaml:"backend"`
	Algorithm     string        `yaml:"algorithm"`
	Workers       int           `yaml:"workers"`
	SlowIteration time.Duration `yaml:"slow_iteration"`
	ShaderDir     string        `yaml:"shader_dir"`
	Log           LogConfig     `yaml:"log"`
	Server        ServerConfig  `yaml:"server"`
}

// LogConfig controls the slog handler and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:       "cpu",
		Algorithm:     seamcarve.DynamicProgramming.String(),
		Workers:       runtime.GOMAXPROCS(0),
		SlowIteration: seamcarve.DefaultSlowIteration,
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			ReadTimeout:    30 * time.Second,
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// empty), the dotenv file at envFile (".env" when empty; a missing file is
// ignored) and the process environment. The result is validated.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from SEAMCARVE_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("BACKEND", &c.Backend)
	str("ALGORITHM", &c.Algorithm)
	str("SHADER_DIR", &c.ShaderDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("SERVER_ADDR", &c.Server.Addr)

	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS: %q", EnvPrefix, v)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_UPLOAD_BYTES: %q", EnvPrefix, v)
		}
		c.Server.MaxUploadBytes = n
	}
	for key, dst := range map[string]*time.Duration{
		"SLOW_ITERATION": &c.SlowIteration,
		"READ_TIMEOUT":   &c.Server.ReadTimeout,
	} {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("invalid %s%s: %q", EnvPrefix, key, v)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks names against the registered backends and the known
// algorithms, and numeric fields against their ranges.
func (c *Config) Validate() error {
	if _, err := seamcarve.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !slices.Contains(seamcarve.Backends(), c.Backend) {
		return fmt.Errorf("config: backend %q not in %v: %w", c.Backend, seamcarve.Backends(), seamcarve.ErrUnknownBackend)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0 (got %d)", c.Workers)
	}
	if c.SlowIteration < 0 {
		return fmt.Errorf("config: slow_iteration must be >= 0 (got %s)", c.SlowIteration)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log format must be text or json (got %q)", c.Log.Format)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max_upload_bytes must be > 0 (got %d)", c.Server.MaxUploadBytes)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("config: read_timeout must be > 0 (got %s)", c.Server.ReadTimeout)
	}
	return nil
}

// AlgorithmValue returns the parsed Algorithm. Call after Validate.
func (c *Config) AlgorithmValue() seamcarve.Algorithm {
	a, _ := seamcarve.ParseAlgorithm(c.Algorithm)
	return a
}
