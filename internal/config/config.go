package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration. Values come from
// ~/.clashgpt/config.toml with environment variables taking precedence
// for deployment-sensitive fields.
type Config struct {
	// Backend API configuration
	Backend BackendConfig `toml:"backend"`

	// Deck search configuration
	Search SearchConfig `toml:"search"`

	// Response cache configuration
	Cache CacheConfig `toml:"cache"`

	// Card catalog configuration
	Catalog CatalogConfig `toml:"catalog"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// BackendConfig contains backend endpoint settings.
type BackendConfig struct {
	BaseURL string `toml:"base_url" env:"CLASHGPT_BASE_URL"` // Backend base URL
	APIKey  string `toml:"-" env:"CLASHGPT_API_KEY"`         // Never stored in the config file
	Timeout string `toml:"timeout"`                          // Request timeout (e.g. "30s")
}

// SearchConfig contains deck search settings.
type SearchConfig struct {
	PageSize    int    `toml:"page_size"`     // Results per page (backend max: 200)
	Debounce    string `toml:"debounce"`      // Min interval between dispatches (e.g. "500ms")
	RateLimitMS int    `toml:"rate_limit_ms"` // Min ms between outgoing requests
}

// CacheConfig contains in-session response cache settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`  // Enable response caching
	TTL     string `toml:"ttl"`      // Entry TTL (e.g. "5m")
	MaxSize int    `toml:"max_size"` // Max cached pages (0 = unlimited)
}

// CatalogConfig contains card catalog settings.
type CatalogConfig struct {
	DevMode  bool   `toml:"dev_mode" env:"CLASHGPT_DEV_MODE"` // Load catalog from a local file
	FilePath string `toml:"file_path"`                        // Catalog fixture path (dev mode)
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		Search: SearchConfig{
			PageSize:    24,
			Debounce:    "500ms",
			RateLimitMS: 200,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "5m",
			MaxSize: 256,
		},
		Catalog: CatalogConfig{
			DevMode:  false,
			FilePath: "",
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".clashgpt")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the default location. A missing
// file yields the defaults; environment overrides are applied either
// way.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Defaults + env only.
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if _, err := time.ParseDuration(c.Backend.Timeout); err != nil {
		return fmt.Errorf("backend.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.Search.Debounce); err != nil {
		return fmt.Errorf("search.debounce: %w", err)
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > 200 {
		return fmt.Errorf("search.page_size must be in 1..200, got %d", c.Search.PageSize)
	}
	if c.Cache.Enabled {
		if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
	}
	if c.Catalog.DevMode && c.Catalog.FilePath == "" {
		return fmt.Errorf("catalog.file_path is required in dev mode")
	}
	return nil
}

// BackendTimeout returns the parsed request timeout.
func (c *Config) BackendTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SearchDebounce returns the parsed debounce interval.
func (c *Config) SearchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Search.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// CacheTTL returns the parsed cache TTL, or zero when caching is
// disabled.
func (c *Config) CacheTTL() time.Duration {
	if !c.Cache.Enabled {
		return 0
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0
	}
	return d
}
