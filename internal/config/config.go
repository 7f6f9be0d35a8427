// Package config loads Pathways configuration from a YAML file and
// PATHWAYS_* environment variables, with defaults for every key.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config provides typed, nil-safe access to configuration values.
type Config struct {
	v *viper.Viper
}

// New wraps an existing viper instance. A nil viper yields a Config that
// returns zero values for every key.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads configuration from the given file path (optional) and the
// environment. Environment variables use the PATHWAYS_ prefix with
// underscores for nesting (PATHWAYS_SERVER_PORT → server.port).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("store.path", "pathways.db")
	v.SetDefault("listing.page_size", 20)
	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.model", "llama3.1")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("advisor.rate_limit_per_minute", 10)
	v.SetDefault("auth.token_ttl", "12h")

	v.SetEnvPrefix("PATHWAYS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	return &Config{v: v}, nil
}

// GetString returns the string value for key.
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns the integer value for key.
func (c *Config) GetInt(key string) int {
	if c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

// GetBool returns the boolean value for key.
func (c *Config) GetBool(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

// GetDuration returns the duration value for key.
func (c *Config) GetDuration(key string) time.Duration {
	if c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the configuration subtree rooted at key. Missing keys yield an
// empty Config rather than nil so callers can chain getters safely.
func (c *Config) Sub(key string) *Config {
	if c.v == nil {
		return New(nil)
	}
	return New(c.v.Sub(key))
}

// Unmarshal decodes the configuration into the given struct using
// mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}
