package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// PlaceholderSecret is the shipped default for the service secret. A secret
// equal to this value never grants internal-service trust and is never sent
// upstream.
const PlaceholderSecret = "dev-secret-change-me"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Sites     SitesConfig     `koanf:"sites"`
	Access    AccessConfig    `koanf:"access"`
	Observer  ObserverConfig  `koanf:"observer"`
	Redis     RedisConfig     `koanf:"redis"`
	Backend   BackendConfig   `koanf:"backend"`
	Analytics AnalyticsConfig `koanf:"analytics"`
	Debug     bool            `koanf:"debug"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// SitesConfig locates the tenant directory database.
type SitesConfig struct {
	Path string `koanf:"path"`
}

// AccessConfig is the policy surface of the admission gate.
type AccessConfig struct {
	BaseDomain     string        `koanf:"base_domain"`
	HomeURL        string        `koanf:"home_url"`
	DocsURL        string        `koanf:"docs_url"`
	SignupURL      string        `koanf:"signup_url"`
	MaxQueryLength int           `koanf:"max_query_length"`
	MaxPageSize    int           `koanf:"max_page_size"`
	RateLimit      int           `koanf:"rate_limit"`
	RateWindow     time.Duration `koanf:"rate_window"`
}

// ObserverConfig configures the civic.observer identity service. Secret is
// shared: it authenticates our outbound validation calls and grants inbound
// internal-service trust.
type ObserverConfig struct {
	URL        string        `koanf:"url"`
	Secret     string        `koanf:"secret"`
	Timeout    time.Duration `koanf:"timeout"`
	ValidTTL   time.Duration `koanf:"valid_ttl"`
	InvalidTTL time.Duration `koanf:"invalid_ttl"`
}

type RedisConfig struct {
	Addr string `koanf:"addr"`
}

// BackendConfig locates the per-tenant data browser processes. AddrTemplate
// expands %s to the tenant key; RootURL is the marketing application that
// serves hosts without a tenant key.
type BackendConfig struct {
	AddrTemplate string `koanf:"addr_template"`
	RootURL      string `koanf:"root_url"`
}

type AnalyticsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	URL       string `koanf:"url"`
	WebsiteID string `koanf:"website_id"`
	APIKey    string `koanf:"api_key"`
}

// Load reads config.yaml (if present), then environment variables with the
// CIVIC_ prefix ("__" maps to a key separator, e.g. CIVIC_ACCESS__BASE_DOMAIN),
// then fills defaults for anything still unset.
func Load() (*Config, error) {
	return LoadFile("config.yaml")
}

func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("CIVIC_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CIVIC_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	defaults := map[string]interface{}{
		"server.port":             8000,
		"sites.path":              "sites.db",
		"access.base_domain":      "civic.band",
		"access.home_url":         "https://civic.band/",
		"access.docs_url":         "https://civic.observer/api-keys",
		"access.signup_url":       "https://civic.observer/api-keys",
		"access.max_query_length": 500,
		"access.max_page_size":    100,
		"access.rate_limit":       15,
		"access.rate_window":      "60s",
		"observer.url":            "https://civic.observer",
		"observer.secret":         PlaceholderSecret,
		"observer.timeout":        "5s",
		"observer.valid_ttl":      "1h",
		"observer.invalid_ttl":    "5m",
		"backend.addr_template":   "http://127.0.0.1:9000/%s",
		"backend.root_url":        "http://127.0.0.1:8001",
		"analytics.url":           "https://analytics.civic.band",
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SecretConfigured reports whether the service secret can ever grant trust.
// An unset or placeholder secret fails closed.
func (c *Config) SecretConfigured() bool {
	return c.Observer.Secret != "" && c.Observer.Secret != PlaceholderSecret
}
