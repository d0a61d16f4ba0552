package config

import (
	"time"

	redisclient "github.com/vietddude/cinemap/internal/infra/redis"
	"github.com/vietddude/cinemap/internal/infra/retry"
	"github.com/vietddude/cinemap/internal/infra/storage/postgres"
	"github.com/vietddude/cinemap/internal/infra/transport"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Logging   LoggingConfig      `yaml:"logging"`
	Upstreams UpstreamsConfig    `yaml:"upstreams"`
	Backoff   BackoffConfig      `yaml:"backoff"`
	Resolver  ResolverConfig     `yaml:"resolver"`
	Cache     CacheConfig        `yaml:"cache"`
	Redis     redisclient.Config `yaml:"redis"`
	Database  postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// UpstreamsConfig groups the three upstream services.
type UpstreamsConfig struct {
	OMDb      UpstreamConfig `yaml:"omdb"`
	Nominatim UpstreamConfig `yaml:"nominatim"`
	Wikipedia UpstreamConfig `yaml:"wikipedia"`
}

// UpstreamConfig holds settings for one upstream HTTP service.
type UpstreamConfig struct {
	URL         string         `yaml:"url"`
	Timeout     time.Duration  `yaml:"timeout"`
	RetryBudget int            `yaml:"retry_budget"`
	RetryDelay  *time.Duration `yaml:"retry_delay"` // unset = 1s, explicit 0 = computed delay
	APIKey      string         `yaml:"api_key"`
	UserAgent   string         `yaml:"user_agent"`
	DailyQuota  int            `yaml:"daily_quota"`  // 0 = unlimited
	MinInterval time.Duration  `yaml:"min_interval"` // spacing between requests
}

// RetryPolicy returns the transport retry policy for this upstream.
func (u UpstreamConfig) RetryPolicy() transport.Policy {
	p := transport.Policy{Budget: u.RetryBudget}
	if u.RetryDelay != nil {
		p.Delay = *u.RetryDelay
	}
	return p
}

// Quota returns the transport quota for this upstream.
func (u UpstreamConfig) Quota() transport.QuotaConfig {
	return transport.QuotaConfig{DailyLimit: u.DailyQuota, MinInterval: u.MinInterval}
}

// BackoffConfig configures the outer backoff executor.
type BackoffConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// Policy converts the config to a retry policy.
func (b BackoffConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  b.MaxAttempts,
		InitialDelay: b.InitialDelay,
		MaxDelay:     b.MaxDelay,
	}
}

// ResolverConfig holds resolver pacing and fan-out settings.
type ResolverConfig struct {
	StageDelay      time.Duration `yaml:"stage_delay"`
	EnrichmentDelay time.Duration `yaml:"enrichment_delay"`
	Concurrency     int           `yaml:"concurrency"` // 0 = unbounded
	Fallback        string        `yaml:"fallback_location"`
}

// CacheConfig controls record caching. Redis and Postgres are used when
// configured; otherwise an in-memory cache backs the resolvers.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}
