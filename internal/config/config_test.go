package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Scraper.RequestTimeout)
	assert.Equal(t, 3, cfg.Scraper.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Scraper.RetryBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.DelayMin)
	assert.Equal(t, 1500*time.Millisecond, cfg.Scraper.DelayMax)
	assert.Equal(t, 20, cfg.Scraper.MaxResults)
	assert.Equal(t, 5, cfg.Scraper.MaxRedirects)
	assert.Equal(t, DefaultUserAgents(), cfg.Scraper.UserAgents)
	assert.Equal(t, 1.0, cfg.Scraper.RatePerSecond)
	assert.Equal(t, 2, cfg.Scraper.RateBurst)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, int64(10000), cfg.Redis.MaxLen)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SCRAPER_MAX_RETRIES", "1")
	t.Setenv("SCRAPER_RETRY_BACKOFF", "250ms")
	t.Setenv("SCRAPER_USER_AGENTS", "agent-a, agent-b,")
	t.Setenv("SCRAPER_RATE_LIMIT", "0.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 1, cfg.Scraper.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.RetryBackoff)
	assert.Equal(t, 30*time.Second, cfg.Scraper.RetryBackoffMax)
	assert.Equal(t, []string{"agent-a", "agent-b"}, cfg.Scraper.UserAgents)
	assert.Equal(t, 0.5, cfg.Scraper.RatePerSecond)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestInvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("SCRAPER_MAX_RESULTS", "lots")
	t.Setenv("SCRAPER_REQUEST_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Scraper.MaxResults)
	assert.Equal(t, 15*time.Second, cfg.Scraper.RequestTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative retries", func(c *Config) { c.Scraper.MaxRetries = -1 }, "SCRAPER_MAX_RETRIES"},
		{"too many retries", func(c *Config) { c.Scraper.MaxRetries = MaxRetriesLimit + 1 }, "SCRAPER_MAX_RETRIES"},
		{"zero backoff", func(c *Config) { c.Scraper.RetryBackoff = 0 }, "SCRAPER_RETRY_BACKOFF"},
		{"backoff above max", func(c *Config) { c.Scraper.RetryBackoff = time.Minute }, "SCRAPER_RETRY_BACKOFF_MAX"},
		{"zero redirects", func(c *Config) { c.Scraper.MaxRedirects = 0 }, "SCRAPER_MAX_REDIRECTS"},
		{"zero timeout", func(c *Config) { c.Scraper.RequestTimeout = 0 }, "SCRAPER_REQUEST_TIMEOUT"},
		{"inverted delay", func(c *Config) { c.Scraper.DelayMin = 2 * time.Second }, "SCRAPER_DELAY_MIN"},
		{"zero results", func(c *Config) { c.Scraper.MaxResults = 0 }, "SCRAPER_MAX_RESULTS"},
		{"no agents", func(c *Config) { c.Scraper.UserAgents = nil }, "SCRAPER_USER_AGENTS"},
		{"negative rate", func(c *Config) { c.Scraper.RatePerSecond = -1 }, "SCRAPER_RATE_LIMIT"},
		{"no port", func(c *Config) { c.Server.Port = "" }, "SERVER_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
