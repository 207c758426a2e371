package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines configuration for the objdl CLI.
type Config struct {
	SourceURL   string        `yaml:"source_url"`
	CacheDir    string        `yaml:"cache_dir"`
	Output      string        `yaml:"output"`
	Workers     int           `yaml:"workers"`
	ItemTimeout time.Duration `yaml:"item_timeout"`
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry-driver behavior.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	Delay      time.Duration `yaml:"delay"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		CacheDir:    defaultCacheDir(),
		Output:      "./downloads",
		Workers:     4,
		ItemTimeout: 10 * time.Minute,
		Retry: RetryConfig{
			MaxRetries: 3,
			Delay:      5 * time.Second,
		},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".objaverse"
	}
	return filepath.Join(home, ".objaverse")
}

// yamlConfig is used for YAML unmarshaling with string durations.
type yamlConfig struct {
	SourceURL   string          `yaml:"source_url"`
	CacheDir    string          `yaml:"cache_dir"`
	Output      string          `yaml:"output"`
	Workers     int             `yaml:"workers"`
	ItemTimeout string          `yaml:"item_timeout"`
	Retry       yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	Delay      string `yaml:"delay"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.SourceURL != "" {
		cfg.SourceURL = yc.SourceURL
	}
	if yc.CacheDir != "" {
		cfg.CacheDir = yc.CacheDir
	}
	if yc.Output != "" {
		cfg.Output = yc.Output
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.ItemTimeout != "" {
		d, err := time.ParseDuration(yc.ItemTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse item_timeout: %w", err)
		}
		cfg.ItemTimeout = d
	}
	if yc.Retry.MaxRetries != 0 {
		cfg.Retry.MaxRetries = yc.Retry.MaxRetries
	}
	if yc.Retry.Delay != "" {
		d, err := time.ParseDuration(yc.Retry.Delay)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.delay: %w", err)
		}
		cfg.Retry.Delay = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the OBJDL_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("OBJDL_SOURCE_URL"); v != "" {
		c.SourceURL = v
	}
	if v := os.Getenv("OBJDL_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("OBJDL_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("OBJDL_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse OBJDL_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("OBJDL_ITEM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse OBJDL_ITEM_TIMEOUT: %w", err)
		}
		c.ItemTimeout = d
	}
	if v := os.Getenv("OBJDL_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse OBJDL_MAX_RETRIES: %w", err)
		}
		c.Retry.MaxRetries = n
	}
	if v := os.Getenv("OBJDL_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse OBJDL_RETRY_DELAY: %w", err)
		}
		c.Retry.Delay = d
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.SourceURL == "" {
		return errors.New("config: source_url is required")
	}
	if c.Output == "" {
		return errors.New("config: output is required")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.ItemTimeout <= 0 {
		return errors.New("config: item_timeout must be positive")
	}
	if c.Retry.MaxRetries <= 0 {
		return errors.New("config: retry.max_retries must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.SourceURL != "" {
		c.SourceURL = override.SourceURL
	}
	if override.CacheDir != "" {
		c.CacheDir = override.CacheDir
	}
	if override.Output != "" {
		c.Output = override.Output
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.ItemTimeout != 0 {
		c.ItemTimeout = override.ItemTimeout
	}
	if override.Retry.MaxRetries != 0 {
		c.Retry.MaxRetries = override.Retry.MaxRetries
	}
	if override.Retry.Delay != 0 {
		c.Retry.Delay = override.Retry.Delay
	}
	return c
}
