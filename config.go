package ynab

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds client settings loaded from a YAML file. It mirrors the
// functional options; Options converts it for New.
type Config struct {
	AccessToken string          `yaml:"access_token"`
	BaseURL     string          `yaml:"base_url"`
	DeltaSync   bool            `yaml:"delta_sync"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Cache       CacheConfig     `yaml:"cache"`
}

// RateLimitConfig holds rate limiter settings.
type RateLimitConfig struct {
	Enabled       *bool   `yaml:"enabled"` // nil means enabled
	MaxRequests   int     `yaml:"max_requests"`
	WindowSeconds int     `yaml:"window_sec"`
	SafetyMargin  float64 `yaml:"safety_margin"`
	FailFast      bool    `yaml:"fail_fast"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled    *bool `yaml:"enabled"` // nil means enabled
	TTLSeconds int   `yaml:"ttl_sec"`
	MaxSize    int   `yaml:"max_size"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig reads client configuration from a YAML file. Values of the
// form ${VAR} or ${VAR:-default} are substituted from the environment, so
// tokens stay out of checked-in files.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for correctness. Zero values are
// allowed wherever a default exists.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required")
	}
	if c.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("rate_limit.max_requests must not be negative, got %d", c.RateLimit.MaxRequests)
	}
	if c.RateLimit.SafetyMargin < 0 || c.RateLimit.SafetyMargin > 1 {
		return fmt.Errorf("rate_limit.safety_margin must be between 0 and 1, got %v", c.RateLimit.SafetyMargin)
	}
	if c.Cache.MaxSize < 0 {
		return fmt.Errorf("cache.max_size must not be negative, got %d", c.Cache.MaxSize)
	}
	return nil
}

// Options converts the file configuration into functional options for New.
func (c Config) Options() []Option {
	opts := []Option{WithAccessToken(c.AccessToken)}

	if c.BaseURL != "" {
		opts = append(opts, WithBaseURL(c.BaseURL))
	}
	if c.DeltaSync {
		opts = append(opts, WithDeltaSync())
	}

	if c.RateLimit.Enabled != nil && !*c.RateLimit.Enabled {
		opts = append(opts, WithoutRateLimiting())
	} else {
		max, window := DefaultMaxRequests, DefaultWindow
		if c.RateLimit.MaxRequests > 0 {
			max = c.RateLimit.MaxRequests
		}
		if c.RateLimit.WindowSeconds > 0 {
			window = time.Duration(c.RateLimit.WindowSeconds) * time.Second
		}
		opts = append(opts, WithRateLimit(max, window))
		if c.RateLimit.SafetyMargin > 0 {
			opts = append(opts, WithSafetyMargin(c.RateLimit.SafetyMargin))
		}
		if c.RateLimit.FailFast {
			opts = append(opts, WithFailFast())
		}
	}

	if c.Cache.Enabled != nil && !*c.Cache.Enabled {
		opts = append(opts, WithoutCaching())
	} else {
		ttl, size := DefaultCacheTTL, DefaultCacheSize
		if c.Cache.TTLSeconds > 0 {
			ttl = time.Duration(c.Cache.TTLSeconds) * time.Second
		}
		if c.Cache.MaxSize > 0 {
			size = c.Cache.MaxSize
		}
		opts = append(opts, WithCache(ttl, size))
	}

	return opts
}

// expandEnvVars substitutes ${VAR} and ${VAR:-default} in raw config data.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
