package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultOMDbURL      = "https://www.omdbapi.com"
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1"
	DefaultUserAgent    = "MovieLocationsExplorer/1.0"
)

// ErrMissingAPIKey is returned by RequireAPIKey when no OMDb key is configured.
var ErrMissingAPIKey = errors.New("upstreams.omdb.api_key is required")

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML content, expands environment variables, applies
// defaults and validates the result.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *AppConfig {
	var cfg AppConfig
	ApplyDefaults(&cfg)
	return &cfg
}

// ApplyDefaults fills unset fields.
func ApplyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	upstreamDefaults(&cfg.Upstreams.OMDb, DefaultOMDbURL)
	upstreamDefaults(&cfg.Upstreams.Nominatim, DefaultNominatimURL)
	upstreamDefaults(&cfg.Upstreams.Wikipedia, DefaultWikipediaURL)
	if cfg.Upstreams.Nominatim.UserAgent == "" {
		cfg.Upstreams.Nominatim.UserAgent = DefaultUserAgent
	}

	if cfg.Backoff.MaxAttempts == 0 {
		cfg.Backoff.MaxAttempts = 3
	}
	if cfg.Backoff.InitialDelay == 0 {
		cfg.Backoff.InitialDelay = time.Second
	}

	if cfg.Resolver.StageDelay == 0 {
		cfg.Resolver.StageDelay = time.Second
	}
	if cfg.Resolver.EnrichmentDelay == 0 {
		cfg.Resolver.EnrichmentDelay = time.Second
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
}

func upstreamDefaults(u *UpstreamConfig, url string) {
	if u.URL == "" {
		u.URL = url
	}
	if u.Timeout == 0 {
		u.Timeout = 10 * time.Second
	}
	if u.RetryBudget == 0 {
		u.RetryBudget = 3
	}
	if u.RetryDelay == nil {
		d := time.Second
		u.RetryDelay = &d
	}
	if u.UserAgent == "" {
		u.UserAgent = DefaultUserAgent
	}
}

// Validate checks the configuration for values that cannot work.
func (c *AppConfig) Validate() error {
	upstreams := map[string]UpstreamConfig{
		"omdb":      c.Upstreams.OMDb,
		"nominatim": c.Upstreams.Nominatim,
		"wikipedia": c.Upstreams.Wikipedia,
	}
	for name, u := range upstreams {
		if _, err := url.ParseRequestURI(u.URL); err != nil {
			return fmt.Errorf("upstreams.%s.url: %w", name, err)
		}
		if u.RetryBudget < 0 {
			return fmt.Errorf("upstreams.%s.retry_budget must not be negative", name)
		}
		if u.DailyQuota < 0 {
			return fmt.Errorf("upstreams.%s.daily_quota must not be negative", name)
		}
	}
	if c.Backoff.MaxAttempts < 1 {
		return fmt.Errorf("backoff.max_attempts must be at least 1")
	}
	if c.Resolver.Concurrency < 0 {
		return fmt.Errorf("resolver.concurrency must not be negative")
	}
	return nil
}

// RequireAPIKey reports whether the movie database can be queried.
func (c *AppConfig) RequireAPIKey() error {
	if c.Upstreams.OMDb.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
