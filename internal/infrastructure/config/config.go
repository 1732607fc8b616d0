package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Fetch     FetchConfig     `toml:"fetch"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port      string `envconfig:"PORT" default:"8000" toml:"port"`
	Host      string `envconfig:"HOST" default:"0.0.0.0" toml:"host"`
	PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8000/" toml:"public_url"`
}

// StorageConfig selects where the tree document is persisted.
type StorageConfig struct {
	Path   string `envconfig:"STORAGE_PATH" default:"./filedeck.db" toml:"path"`
	Key    string `envconfig:"STORAGE_KEY" default:"fileSystem" toml:"key"`
	Driver string `envconfig:"STORAGE_DRIVER" default:"bolt" toml:"driver"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" toml:"enabled"`
}

// FetchConfig bounds outbound requests made by link import.
type FetchConfig struct {
	Timeout  Duration      `envconfig:"FETCH_TIMEOUT" default:"15s" toml:"timeout"`
	Retries  int           `envconfig:"FETCH_RETRIES" default:"2" toml:"retries"`
	MaxBytes int64         `envconfig:"FETCH_MAX_BYTES" default:"10485760" toml:"max_bytes"`
}

// Duration accepts "15s" style values from both TOML and the environment.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadFile reads a TOML file over the defaults, then applies environment
// variables that are explicitly set. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := overlayEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8000",
			Host:      "0.0.0.0",
			PublicURL: "http://localhost:8000/",
		},
		Storage: StorageConfig{
			Path:   "./filedeck.db",
			Key:    "fileSystem",
			Driver: "bolt",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Fetch: FetchConfig{
			Timeout:  Duration(15 * time.Second),
			Retries:  2,
			MaxBytes: 10 << 20,
		},
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// overlayEnv copies the fields whose variables are set in the environment.
// envconfig fills unset fields from defaults, which would clobber the file.
func overlayEnv(cfg *Config) error {
	env, err := Load()
	if err != nil {
		return err
	}

	set := func(key string, apply func()) {
		if _, ok := os.LookupEnv(key); ok {
			apply()
		}
	}
	set("PORT", func() { cfg.Server.Port = env.Server.Port })
	set("HOST", func() { cfg.Server.Host = env.Server.Host })
	set("PUBLIC_URL", func() { cfg.Server.PublicURL = env.Server.PublicURL })
	set("STORAGE_PATH", func() { cfg.Storage.Path = env.Storage.Path })
	set("STORAGE_KEY", func() { cfg.Storage.Key = env.Storage.Key })
	set("STORAGE_DRIVER", func() { cfg.Storage.Driver = env.Storage.Driver })
	set("LOG_LEVEL", func() { cfg.Logging.Level = env.Logging.Level })
	set("LOG_DEV", func() { cfg.Logging.Development = env.Logging.Development })
	set("RATE_LIMIT_RPS", func() { cfg.RateLimit.RequestsPerSecond = env.RateLimit.RequestsPerSecond })
	set("RATE_LIMIT_BURST", func() { cfg.RateLimit.Burst = env.RateLimit.Burst })
	set("RATE_LIMIT_ENABLED", func() { cfg.RateLimit.Enabled = env.RateLimit.Enabled })
	set("FETCH_TIMEOUT", func() { cfg.Fetch.Timeout = env.Fetch.Timeout })
	set("FETCH_RETRIES", func() { cfg.Fetch.Retries = env.Fetch.Retries })
	set("FETCH_MAX_BYTES", func() { cfg.Fetch.MaxBytes = env.Fetch.MaxBytes })
	return nil
}
