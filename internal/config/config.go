package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DataDir holds the sqlite database backing the durable cache tier and
	// the per-account configuration store.
	DataDir string `envconfig:"LINGOD_DATA_DIR" default:"data"`

	HTTPHost string `envconfig:"LINGOD_HTTP_HOST" default:"127.0.0.1"`
	HTTPPort int    `envconfig:"LINGOD_HTTP_PORT" default:"8787"`

	CacheTTLHours        int `envconfig:"LINGOD_CACHE_TTL_HOURS" default:"168"`
	CacheMemoryEntries   int `envconfig:"LINGOD_CACHE_MEMORY_ENTRIES" default:"1000"`
	CacheCleanupHours    int `envconfig:"LINGOD_CACHE_CLEANUP_HOURS" default:"24"`
	BurstCacheTTLSeconds int `envconfig:"LINGOD_BURST_TTL_SECONDS" default:"5"`

	MaxConcurrent int `envconfig:"LINGOD_MAX_CONCURRENT" default:"4"`
	MaxQueue      int `envconfig:"LINGOD_MAX_QUEUE" default:"256"`
	MaxTextLength int `envconfig:"LINGOD_MAX_TEXT_LENGTH" default:"5000"`
	MaxAttempts   int `envconfig:"LINGOD_MAX_ATTEMPTS" default:"3"`

	StatsRetentionDays int `envconfig:"LINGOD_STATS_RETENTION_DAYS" default:"30"`

	DefaultEngine string `envconfig:"LINGOD_DEFAULT_ENGINE" default:"google"`

	OpenAIEndpoint string `envconfig:"LINGOD_OPENAI_ENDPOINT" default:""`
	OpenAIAPIKey   string `envconfig:"LINGOD_OPENAI_API_KEY" default:""`
	OpenAIModel    string `envconfig:"LINGOD_OPENAI_MODEL" default:""`

	MyMemoryEmail string `envconfig:"LINGOD_MYMEMORY_EMAIL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("LINGOD_DATA_DIR is required")
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("LINGOD_HTTP_PORT must be a valid port")
	}
	if c.CacheTTLHours < 1 {
		return fmt.Errorf("LINGOD_CACHE_TTL_HOURS must be >= 1")
	}
	if c.CacheMemoryEntries < 1 {
		return fmt.Errorf("LINGOD_CACHE_MEMORY_ENTRIES must be >= 1")
	}
	if c.BurstCacheTTLSeconds < 0 {
		return fmt.Errorf("LINGOD_BURST_TTL_SECONDS must be >= 0")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("LINGOD_MAX_CONCURRENT must be >= 1")
	}
	if c.MaxQueue < 1 {
		return fmt.Errorf("LINGOD_MAX_QUEUE must be >= 1")
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("LINGOD_MAX_TEXT_LENGTH must be >= 1")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("LINGOD_MAX_ATTEMPTS must be >= 1")
	}
	if c.StatsRetentionDays < 1 {
		return fmt.Errorf("LINGOD_STATS_RETENTION_DAYS must be >= 1")
	}
	if strings.TrimSpace(c.DefaultEngine) == "" {
		return fmt.Errorf("LINGOD_DEFAULT_ENGINE is required")
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

func (c *Config) CacheCleanupInterval() time.Duration {
	if c.CacheCleanupHours < 1 {
		return 24 * time.Hour
	}
	return time.Duration(c.CacheCleanupHours) * time.Hour
}

func (c *Config) BurstCacheTTL() time.Duration {
	return time.Duration(c.BurstCacheTTLSeconds) * time.Second
}

func (c *Config) StatsRetention() time.Duration {
	return time.Duration(c.StatsRetentionDays) * 24 * time.Hour
}
