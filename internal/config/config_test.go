package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Output != "./downloads" {
		t.Fatalf("output = %q", cfg.Output)
	}
	if cfg.Workers != 4 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
	if cfg.ItemTimeout != 10*time.Minute {
		t.Fatalf("item_timeout = %v", cfg.ItemTimeout)
	}
	if cfg.Retry.MaxRetries != 3 || cfg.Retry.Delay != 5*time.Second {
		t.Fatalf("retry defaults = %+v", cfg.Retry)
	}
	if cfg.CacheDir == "" {
		t.Fatalf("cache dir empty")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `source_url: https://corpus.example.com/v1
output: /data/downloads
workers: 8
item_timeout: 2m
retry:
  max_retries: 7
  delay: 30s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.SourceURL != "https://corpus.example.com/v1" {
		t.Fatalf("source_url = %q", cfg.SourceURL)
	}
	if cfg.Output != "/data/downloads" || cfg.Workers != 8 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.ItemTimeout != 2*time.Minute {
		t.Fatalf("item_timeout = %v", cfg.ItemTimeout)
	}
	if cfg.Retry.MaxRetries != 7 || cfg.Retry.Delay != 30*time.Second {
		t.Fatalf("retry = %+v", cfg.Retry)
	}
}

func TestLoadFromFilePartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("source_url: https://corpus.example.com\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Workers != 4 || cfg.Output != "./downloads" {
		t.Fatalf("defaults not preserved: %+v", cfg)
	}
}

func TestLoadFromFileBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("item_timeout: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatalf("expected duration parse error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("OBJDL_SOURCE_URL", "https://corpus.example.com/v2")
	t.Setenv("OBJDL_WORKERS", "16")
	t.Setenv("OBJDL_RETRY_DELAY", "1m")

	cfg := Default()
	if err := cfg.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.SourceURL != "https://corpus.example.com/v2" {
		t.Fatalf("source_url = %q", cfg.SourceURL)
	}
	if cfg.Workers != 16 {
		t.Fatalf("workers = %d", cfg.Workers)
	}
	if cfg.Retry.Delay != time.Minute {
		t.Fatalf("retry delay = %v", cfg.Retry.Delay)
	}
}

func TestLoadFromEnvBadWorkers(t *testing.T) {
	t.Setenv("OBJDL_WORKERS", "many")
	cfg := Default()
	if err := cfg.LoadFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.SourceURL = "https://corpus.example.com"
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing source url", func(c *Config) { c.SourceURL = "" }},
		{"missing output", func(c *Config) { c.Output = "" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative item timeout", func(c *Config) { c.ItemTimeout = -time.Second }},
		{"zero max retries", func(c *Config) { c.Retry.MaxRetries = 0 }},
	}
	for _, tc := range cases {
		cfg := valid
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestMergeIgnoresZeroValues(t *testing.T) {
	base := Default()
	base.SourceURL = "https://corpus.example.com"

	merged := base.Merge(Config{Workers: 12, Output: "/elsewhere"})
	if merged.Workers != 12 || merged.Output != "/elsewhere" {
		t.Fatalf("overrides not applied: %+v", merged)
	}
	if merged.SourceURL != base.SourceURL {
		t.Fatalf("zero override clobbered source_url: %q", merged.SourceURL)
	}
	if merged.Retry != base.Retry {
		t.Fatalf("zero override clobbered retry: %+v", merged.Retry)
	}
}
