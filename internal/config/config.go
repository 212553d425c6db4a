// Package config provides layered configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved configuration.
type Config struct {
	// API settings
	Environment Environment   `yaml:"environment"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Credential storage: auto, keyring, file, memory, redis
	Store    string `yaml:"store"`
	RedisURL string `yaml:"redis_url"`
	StateDir string `yaml:"state_dir"`

	// Job polling
	JobInterval    time.Duration `yaml:"job_interval"`
	JobMaxAttempts int           `yaml:"job_max_attempts"`

	// Circuit breaker shared across processes
	Resilience bool `yaml:"resilience"`

	// Output settings
	Format string `yaml:"format"`

	Stats   *bool `yaml:"stats,omitempty"`
	Verbose *int  `yaml:"verbose,omitempty"`

	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `yaml:"-"`
}

// Source indicates where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Store backends.
const (
	StoreAuto    = "auto"
	StoreKeyring = "keyring"
	StoreFile    = "file"
	StoreMemory  = "memory"
	StoreRedis   = "redis"
)

// Job polling defaults: 12 attempts 5s apart.
const (
	DefaultJobInterval    = 5 * time.Second
	DefaultJobMaxAttempts = 12
	DefaultHTTPTimeout    = 30 * time.Second
)

// FlagOverrides holds command-line flag values.
type FlagOverrides struct {
	Environment string
	BaseURL     string
	APIKey      string
	Store       string
	Format      string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Environment:    Sandbox,
		HTTPTimeout:    DefaultHTTPTimeout,
		Store:          StoreAuto,
		StateDir:       GlobalConfigDir(),
		JobInterval:    DefaultJobInterval,
		JobMaxAttempts: DefaultJobMaxAttempts,
		Format:         "auto",
		Sources:        make(map[string]string),
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: flags > env > global > defaults
func Load(overrides FlagOverrides) (*Config, error) {
	cfg := Default()

	loadFromFile(cfg, GlobalConfigPath(), SourceGlobal)
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := ApplyOverrides(cfg, overrides); err != nil {
		return nil, err
	}

	return cfg, nil
}

// fileConfig mirrors Config with every field optional so absent keys
// leave earlier layers untouched.
type fileConfig struct {
	Environment    *string `yaml:"environment"`
	BaseURL        *string `yaml:"base_url"`
	APIKey         *string `yaml:"api_key"`
	HTTPTimeout    *string `yaml:"http_timeout"`
	Store          *string `yaml:"store"`
	RedisURL       *string `yaml:"redis_url"`
	StateDir       *string `yaml:"state_dir"`
	JobInterval    *string `yaml:"job_interval"`
	JobMaxAttempts *int    `yaml:"job_max_attempts"`
	Resilience     *bool   `yaml:"resilience"`
	Format         *string `yaml:"format"`
	Stats          *bool   `yaml:"stats"`
	Verbose        *int    `yaml:"verbose"`
}

func loadFromFile(cfg *Config, path string, source Source) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: Path is from trusted config locations
	if err != nil {
		return // File doesn't exist, skip
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		fmt.Fprintf(os.Stderr, "warning: skipping malformed config at %s: %v\n", path, err)
		return
	}

	set := func(key string) { cfg.Sources[key] = string(source) }

	if fc.Environment != nil {
		env, err := ParseEnvironment(*fc.Environment)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: ignoring environment in %s: %v\n", path, err)
		} else {
			cfg.Environment = env
			set("environment")
		}
	}
	if fc.BaseURL != nil && *fc.BaseURL != "" {
		cfg.BaseURL = NormalizeBaseURL(*fc.BaseURL)
		set("base_url")
	}
	if fc.APIKey != nil && *fc.APIKey != "" {
		cfg.APIKey = *fc.APIKey
		set("api_key")
	}
	if fc.HTTPTimeout != nil {
		if d, err := time.ParseDuration(*fc.HTTPTimeout); err == nil && d > 0 {
			cfg.HTTPTimeout = d
			set("http_timeout")
		}
	}
	if fc.Store != nil && *fc.Store != "" {
		cfg.Store = *fc.Store
		set("store")
	}
	if fc.RedisURL != nil && *fc.RedisURL != "" {
		cfg.RedisURL = *fc.RedisURL
		set("redis_url")
	}
	if fc.StateDir != nil && *fc.StateDir != "" {
		cfg.StateDir = *fc.StateDir
		set("state_dir")
	}
	if fc.JobInterval != nil {
		if d, err := time.ParseDuration(*fc.JobInterval); err == nil && d > 0 {
			cfg.JobInterval = d
			set("job_interval")
		}
	}
	if fc.JobMaxAttempts != nil && *fc.JobMaxAttempts > 0 {
		cfg.JobMaxAttempts = *fc.JobMaxAttempts
		set("job_max_attempts")
	}
	if fc.Resilience != nil {
		cfg.Resilience = *fc.Resilience
		set("resilience")
	}
	if fc.Format != nil && *fc.Format != "" {
		cfg.Format = *fc.Format
		set("format")
	}
	if fc.Stats != nil {
		cfg.Stats = fc.Stats
		set("stats")
	}
	if fc.Verbose != nil && *fc.Verbose >= 0 && *fc.Verbose <= 2 {
		cfg.Verbose = fc.Verbose
		set("verbose")
	}
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv(cfg *Config) error {
	if v := os.Getenv("OKTO_ENV"); v != "" {
		env, err := ParseEnvironment(v)
		if err != nil {
			return fmt.Errorf("OKTO_ENV: %w", err)
		}
		cfg.Environment = env
		cfg.Sources["environment"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_BASE_URL"); v != "" {
		cfg.BaseURL = NormalizeBaseURL(v)
		cfg.Sources["base_url"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_API_KEY"); v != "" {
		cfg.APIKey = v
		cfg.Sources["api_key"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_STORE"); v != "" {
		cfg.Store = v
		cfg.Sources["store"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_NO_KEYRING"); v != "" && cfg.Store == StoreAuto {
		if b, ok := parseEnvBool(v); ok && b {
			cfg.Store = StoreFile
			cfg.Sources["store"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("OKTO_REDIS_URL"); v != "" {
		cfg.RedisURL = v
		cfg.Sources["redis_url"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_JOB_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("OKTO_JOB_INTERVAL: invalid duration %q", v)
		}
		cfg.JobInterval = d
		cfg.Sources["job_interval"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_JOB_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("OKTO_JOB_MAX_ATTEMPTS: must be a positive integer, got %q", v)
		}
		cfg.JobMaxAttempts = n
		cfg.Sources["job_max_attempts"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_RESILIENCE"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Resilience = b
			cfg.Sources["resilience"] = string(SourceEnv)
		}
	}
	if v := os.Getenv("OKTO_FORMAT"); v != "" {
		cfg.Format = v
		cfg.Sources["format"] = string(SourceEnv)
	}
	if v := os.Getenv("OKTO_STATS"); v != "" {
		if b, ok := parseEnvBool(v); ok {
			cfg.Stats = &b
			cfg.Sources["stats"] = string(SourceEnv)
		}
	}
	return nil
}

// parseEnvBool parses a boolean environment variable strictly.
// Returns (value, true) for recognized values, (false, false) for unrecognized.
func parseEnvBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// ApplyOverrides applies non-empty flag overrides to cfg.
func ApplyOverrides(cfg *Config, o FlagOverrides) error {
	if o.Environment != "" {
		env, err := ParseEnvironment(o.Environment)
		if err != nil {
			return err
		}
		cfg.Environment = env
		cfg.Sources["environment"] = string(SourceFlag)
	}
	if o.BaseURL != "" {
		cfg.BaseURL = NormalizeBaseURL(o.BaseURL)
		cfg.Sources["base_url"] = string(SourceFlag)
	}
	if o.APIKey != "" {
		cfg.APIKey = o.APIKey
		cfg.Sources["api_key"] = string(SourceFlag)
	}
	if o.Store != "" {
		cfg.Store = o.Store
		cfg.Sources["store"] = string(SourceFlag)
	}
	if o.Format != "" {
		cfg.Format = o.Format
		cfg.Sources["format"] = string(SourceFlag)
	}
	return nil
}

// ResolvedBaseURL returns the explicit base URL if set, otherwise the
// environment's gateway.
func (cfg *Config) ResolvedBaseURL() string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return cfg.Environment.BaseURL()
}

// Validate checks settings that would otherwise fail later in obscure ways.
func (cfg *Config) Validate() error {
	switch cfg.Store {
	case StoreAuto, StoreKeyring, StoreFile, StoreMemory:
	case StoreRedis:
		if cfg.RedisURL == "" {
			return fmt.Errorf("store %q requires redis_url", StoreRedis)
		}
	default:
		return fmt.Errorf("unknown store %q (want auto, keyring, file, memory or redis)", cfg.Store)
	}
	if cfg.JobMaxAttempts < 1 {
		return fmt.Errorf("job_max_attempts must be at least 1")
	}
	if cfg.JobInterval <= 0 {
		return fmt.Errorf("job_interval must be positive")
	}
	return nil
}

// GlobalConfigDir returns the global config directory path.
func GlobalConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "okto")
}

// GlobalConfigPath returns the path of the global config file.
func GlobalConfigPath() string {
	return filepath.Join(GlobalConfigDir(), "config.yaml")
}
