package config

import (
	"errors"
	"fmt"
	"log/slog"
	"medprice-backend/internal/stores"
	"medprice-backend/lib/configutil"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort            = 8000
	defaultCacheTtlSeconds = 60
)

// Config is the configuration of the server and the cli, usually read from config.json5.
type Config struct {
	Port int `json:"port"`
	// CacheTtlSeconds is how long search results are reused, 0 disables the cache.
	CacheTtlSeconds *int `json:"cache_ttl_seconds"`
	// MaxConcurrency caps how many stores are queried at once, 0 means no cap.
	MaxConcurrency int            `json:"max_concurrency"`
	Stores         []stores.Store `json:"stores"`
}

// Load reads the configuration at `path` (and its .local override), falling back to
// the default stores when there is no file. The PORT environment variable takes
// precedence over the configured port.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no config found, using defaults", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if len(cfg.Stores) == 0 {
		cfg.Stores = stores.DefaultStores()
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if env := os.Getenv("PORT"); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", env, err)
		}
		cfg.Port = port
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.CacheTtlSeconds != nil && *c.CacheTtlSeconds < 0 {
		return fmt.Errorf("cache_ttl_seconds cannot be negative")
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative")
	}
	return nil
}

func (c Config) CacheTTL() time.Duration {
	if c.CacheTtlSeconds == nil {
		return time.Second * defaultCacheTtlSeconds
	}
	return time.Second * time.Duration(*c.CacheTtlSeconds)
}
