package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Access.BaseDomain != "civic.band" {
		t.Errorf("base domain = %q", cfg.Access.BaseDomain)
	}
	if cfg.Access.MaxQueryLength != 500 {
		t.Errorf("max query length = %d", cfg.Access.MaxQueryLength)
	}
	if cfg.Access.MaxPageSize != 100 {
		t.Errorf("max page size = %d", cfg.Access.MaxPageSize)
	}
	if cfg.Access.RateLimit != 15 || cfg.Access.RateWindow != time.Minute {
		t.Errorf("rate limit = %d/%s", cfg.Access.RateLimit, cfg.Access.RateWindow)
	}
	if cfg.Observer.ValidTTL <= cfg.Observer.InvalidTTL {
		t.Error("valid verdicts must be cached longer than invalid ones")
	}
	if cfg.Debug {
		t.Error("debug must default to off")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("CIVIC_ACCESS__RATE_LIMIT", "30")
	os.Setenv("CIVIC_OBSERVER__SECRET", "real-secret-value")
	os.Setenv("CIVIC_DEBUG", "true")
	defer func() {
		os.Unsetenv("CIVIC_ACCESS__RATE_LIMIT")
		os.Unsetenv("CIVIC_OBSERVER__SECRET")
		os.Unsetenv("CIVIC_DEBUG")
	}()

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Access.RateLimit != 30 {
		t.Errorf("rate limit = %d, want 30", cfg.Access.RateLimit)
	}
	if cfg.Observer.Secret != "real-secret-value" {
		t.Errorf("secret = %q", cfg.Observer.Secret)
	}
	if !cfg.Debug {
		t.Error("debug should be enabled")
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 9090
access:
  base_domain: example.org
  rate_window: 30s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Access.BaseDomain != "example.org" {
		t.Errorf("base domain = %q", cfg.Access.BaseDomain)
	}
	if cfg.Access.RateWindow != 30*time.Second {
		t.Errorf("rate window = %s", cfg.Access.RateWindow)
	}
	// Unset keys still get defaults.
	if cfg.Access.MaxPageSize != 100 {
		t.Errorf("max page size = %d", cfg.Access.MaxPageSize)
	}
}

func TestSecretConfigured(t *testing.T) {
	cfg := &Config{}
	if cfg.SecretConfigured() {
		t.Error("empty secret must not count as configured")
	}
	cfg.Observer.Secret = PlaceholderSecret
	if cfg.SecretConfigured() {
		t.Error("placeholder secret must not count as configured")
	}
	cfg.Observer.Secret = "real-secret-value"
	if !cfg.SecretConfigured() {
		t.Error("real secret should count as configured")
	}
}
