package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds all runtime settings for the chat service.
//
// Values are layered: built-in defaults, then environment variables with the
// LEASY_ prefix (LEASY_DATABASE_URL -> database.url). The bare DB_URL and
// REDIS_URL variables are honored as a fallback so existing .env files keep
// working.
type Config struct {
	Addr     string `koanf:"addr"`
	LogLevel string `koanf:"log.level"`

	DatabaseURL string `koanf:"database.url"`
	RedisURL    string `koanf:"redis.url"`

	// Liveness supervisor settings, in seconds.
	ProbeIntervalSeconds int `koanf:"probe.interval"`
	PongTimeoutSeconds   int `koanf:"probe.timeout"`

	// Client reconnect policy, in seconds. Attempts of zero means retry forever.
	ReconnectBaseSeconds int `koanf:"reconnect.base"`
	ReconnectCapSeconds  int `koanf:"reconnect.cap"`
	ReconnectMaxAttempts int `koanf:"reconnect.attempts"`

	IdentityCacheTTLSeconds int `koanf:"cache.identity_ttl"`
}

// Load builds the configuration from defaults and the environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	_ = k.Load(confmap.Provider(map[string]interface{}{
		"addr":               ":8080",
		"log.level":          "info",
		"probe.interval":     5,
		"probe.timeout":      1,
		"reconnect.base":     5,
		"reconnect.cap":      80,
		"reconnect.attempts": 0,
		"cache.identity_ttl": 300,
	}, "."), nil)

	if err := k.Load(env.Provider("LEASY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LEASY_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DB_URL"))
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	}

	return &cfg, nil
}

// Validate checks settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: database url is required (set LEASY_DATABASE_URL or DB_URL)")
	}
	if c.ProbeIntervalSeconds <= 0 || c.PongTimeoutSeconds <= 0 {
		return fmt.Errorf("config: probe interval and timeout must be positive")
	}
	return nil
}

func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalSeconds) * time.Second
}

func (c *Config) PongTimeout() time.Duration {
	return time.Duration(c.PongTimeoutSeconds) * time.Second
}

func (c *Config) ReconnectBase() time.Duration {
	return time.Duration(c.ReconnectBaseSeconds) * time.Second
}

func (c *Config) ReconnectCap() time.Duration {
	return time.Duration(c.ReconnectCapSeconds) * time.Second
}

func (c *Config) IdentityCacheTTL() time.Duration {
	return time.Duration(c.IdentityCacheTTLSeconds) * time.Second
}
