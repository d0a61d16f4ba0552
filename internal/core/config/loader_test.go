package config

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	// Setup env var
	os.Setenv("TEST_OMDB_KEY", "abc123")
	defer os.Unsetenv("TEST_OMDB_KEY")

	// Create temp config file
	configContent := `
upstreams:
  omdb:
    api_key: ${TEST_OMDB_KEY}
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	// Load config
	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Upstreams.OMDb.APIKey != "abc123" {
		t.Errorf("Expected api key abc123, got %s", cfg.Upstreams.OMDb.APIKey)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		t.Errorf("Expected api key to be accepted, got %v", err)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Upstreams.Nominatim.URL != DefaultNominatimURL {
		t.Errorf("Unexpected nominatim url %s", cfg.Upstreams.Nominatim.URL)
	}
	if cfg.Upstreams.Nominatim.UserAgent != DefaultUserAgent {
		t.Errorf("Unexpected user agent %s", cfg.Upstreams.Nominatim.UserAgent)
	}
	if cfg.Upstreams.Wikipedia.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", cfg.Upstreams.Wikipedia.Timeout)
	}
	p := cfg.Upstreams.OMDb.RetryPolicy()
	if p.Budget != 3 || p.Delay != time.Second {
		t.Errorf("Unexpected retry policy %+v", p)
	}
	if cfg.Backoff.Policy().MaxAttempts != 3 || cfg.Backoff.InitialDelay != time.Second {
		t.Errorf("Unexpected backoff %+v", cfg.Backoff)
	}
	if cfg.Resolver.StageDelay != time.Second || cfg.Resolver.EnrichmentDelay != time.Second {
		t.Errorf("Unexpected resolver delays %+v", cfg.Resolver)
	}
	if cfg.Cache.Enabled || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("Unexpected cache config %+v", cfg.Cache)
	}
	if !errors.Is(cfg.RequireAPIKey(), ErrMissingAPIKey) {
		t.Error("Expected missing api key")
	}
}

func TestParse_Overrides(t *testing.T) {
	content := `
server:
  port: 9090
upstreams:
  nominatim:
    url: http://localhost:8088
    timeout: 3s
    retry_budget: 1
    retry_delay: 0s
    user_agent: test/1.0
    daily_quota: 500
    min_interval: 1s
backoff:
  max_attempts: 5
  initial_delay: 250ms
resolver:
  concurrency: 4
cache:
  enabled: true
  ttl: 1h
`
	cfg, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	n := cfg.Upstreams.Nominatim
	if n.URL != "http://localhost:8088" || n.Timeout != 3*time.Second || n.UserAgent != "test/1.0" {
		t.Errorf("Unexpected nominatim config %+v", n)
	}
	if q := n.Quota(); q.DailyLimit != 500 || q.MinInterval != time.Second {
		t.Errorf("Unexpected quota %+v", q)
	}
	if p := n.RetryPolicy(); p.Budget != 1 || p.Delay != 0 {
		t.Errorf("Expected computed delay with budget 1, got %+v", p)
	}
	if cfg.Backoff.MaxAttempts != 5 || cfg.Backoff.InitialDelay != 250*time.Millisecond {
		t.Errorf("Unexpected backoff %+v", cfg.Backoff)
	}
	if cfg.Resolver.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Resolver.Concurrency)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != time.Hour {
		t.Errorf("Unexpected cache config %+v", cfg.Cache)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad url", "upstreams:\n  omdb:\n    url: not a url\n"},
		{"negative budget", "upstreams:\n  wikipedia:\n    retry_budget: -1\n"},
		{"negative concurrency", "resolver:\n  concurrency: -2\n"},
		{"malformed yaml", "server: [port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.content)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
