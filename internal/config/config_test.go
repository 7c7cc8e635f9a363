package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.CacheTTLDays != 30 {
		t.Errorf("expected default TTL 30 days, got %d", cfg.CacheTTLDays)
	}
	if cfg.CacheFreshnessDays != 14 {
		t.Errorf("expected default freshness threshold 14 days, got %d", cfg.CacheFreshnessDays)
	}
	if cfg.Strategies.IdentityThreshold != 0.7 {
		t.Errorf("expected default identity threshold 0.7, got %f", cfg.Strategies.IdentityThreshold)
	}
	if !cfg.Strategies.StrictMode {
		t.Error("strict mode must be on by default")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("NIP_CACHE_TTL_DAYS", "60")
	t.Setenv("GUS_TIMEOUT", "5s")
	t.Setenv("STRICT_MODE", "false")
	t.Setenv("GUS_API_KEY", "abc123")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.CacheTTLDays != 60 {
		t.Errorf("expected TTL override 60, got %d", cfg.CacheTTLDays)
	}
	if cfg.Registry.Timeout != 5*time.Second {
		t.Errorf("expected timeout override 5s, got %v", cfg.Registry.Timeout)
	}
	if cfg.Strategies.StrictMode {
		t.Error("expected strict mode disabled via env")
	}
	if cfg.Registry.APIKey != "abc123" {
		t.Errorf("expected registry key from env, got %q", cfg.Registry.APIKey)
	}
}

func TestLoadConfig_FileOverlay(t *testing.T) {
	t.Setenv("NIP_CACHE_TTL_DAYS", "60")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"cache_ttl_days": 90, "strategies": {"enable_gus_search": true, "enable_snippet_search": true, "enable_scrapers": true, "enable_domain_discovery": true, "enable_name_search": false, "strict_mode": true, "require_identity_validation": true, "identity_threshold": 0.8, "max_concurrent": 5}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("NIP_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.CacheTTLDays != 90 {
		t.Errorf("file must override env, expected TTL 90, got %d", cfg.CacheTTLDays)
	}
	if cfg.Strategies.IdentityThreshold != 0.8 {
		t.Errorf("expected identity threshold 0.8 from file, got %f", cfg.Strategies.IdentityThreshold)
	}
	if cfg.Strategies.EnableNameSearch {
		t.Error("expected name search disabled via file")
	}
	if cfg.CachePath != "nip_cache.db" {
		t.Errorf("fields absent from the file must keep defaults, got %q", cfg.CachePath)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("NIP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero TTL", func(c *Config) { c.CacheTTLDays = 0 }},
		{"freshness beyond TTL", func(c *Config) { c.CacheFreshnessDays = 45 }},
		{"empty cache path", func(c *Config) { c.CachePath = "" }},
		{"identity threshold out of range", func(c *Config) { c.Strategies.IdentityThreshold = 1.5 }},
		{"non-positive concurrency", func(c *Config) { c.Strategies.MaxConcurrent = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
