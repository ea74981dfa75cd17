package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MaxRetriesLimit bounds SCRAPER_MAX_RETRIES.
const MaxRetriesLimit = 10

type Config struct {
	Server  ServerConfig
	Scraper ScraperConfig
	Redis   RedisConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration

	// RetryBackoffMax caps the exponential backoff between attempts.
	RetryBackoffMax time.Duration
	DelayMin        time.Duration
	DelayMax        time.Duration
	MaxResults      int
	MaxBodyBytes    int64
	MaxRedirects    int
	RatePerSecond   float64
	RateBurst       int
	UserAgents      []string
}

// RedisConfig configures the scrape event stream. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	MaxLen   int64
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8000"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Scraper: ScraperConfig{
			RequestTimeout:  getDurationOrDefault("SCRAPER_REQUEST_TIMEOUT", 15*time.Second),
			MaxRetries:      getIntOrDefault("SCRAPER_MAX_RETRIES", 3),
			RetryBackoff:    getDurationOrDefault("SCRAPER_RETRY_BACKOFF", 2*time.Second),
			RetryBackoffMax: getDurationOrDefault("SCRAPER_RETRY_BACKOFF_MAX", 30*time.Second),
			DelayMin:        getDurationOrDefault("SCRAPER_DELAY_MIN", 500*time.Millisecond),
			DelayMax:        getDurationOrDefault("SCRAPER_DELAY_MAX", 1500*time.Millisecond),
			MaxResults:      getIntOrDefault("SCRAPER_MAX_RESULTS", 20),
			MaxBodyBytes:    int64(getIntOrDefault("SCRAPER_MAX_BODY_BYTES", 5*1024*1024)),
			MaxRedirects:    getIntOrDefault("SCRAPER_MAX_REDIRECTS", 5),
			RatePerSecond:   getFloatOrDefault("SCRAPER_RATE_LIMIT", 1),
			RateBurst:       getIntOrDefault("SCRAPER_RATE_BURST", 2),
			UserAgents:      getStringSliceOrDefault("SCRAPER_USER_AGENTS", DefaultUserAgents()),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:search_scrapes"),
			MaxLen:   int64(getIntOrDefault("REDIS_STREAM_MAXLEN", 10000)),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Scraper.RequestTimeout <= 0 {
		return fmt.Errorf("SCRAPER_REQUEST_TIMEOUT must be positive")
	}

	if c.Scraper.MaxRetries < 0 || c.Scraper.MaxRetries > MaxRetriesLimit {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be between 0 and %d", MaxRetriesLimit)
	}

	if c.Scraper.RetryBackoff <= 0 {
		return fmt.Errorf("SCRAPER_RETRY_BACKOFF must be positive")
	}

	if c.Scraper.RetryBackoffMax < c.Scraper.RetryBackoff {
		return fmt.Errorf("SCRAPER_RETRY_BACKOFF (%s) cannot exceed SCRAPER_RETRY_BACKOFF_MAX (%s)",
			c.Scraper.RetryBackoff, c.Scraper.RetryBackoffMax)
	}

	if c.Scraper.DelayMin < 0 || c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN must be between 0 and SCRAPER_DELAY_MAX")
	}

	if c.Scraper.MaxResults < 1 {
		return fmt.Errorf("SCRAPER_MAX_RESULTS must be at least 1")
	}

	if c.Scraper.MaxBodyBytes < 1 {
		return fmt.Errorf("SCRAPER_MAX_BODY_BYTES must be at least 1")
	}

	if c.Scraper.MaxRedirects < 1 {
		return fmt.Errorf("SCRAPER_MAX_REDIRECTS must be at least 1")
	}

	if c.Scraper.RatePerSecond < 0 {
		return fmt.Errorf("SCRAPER_RATE_LIMIT cannot be negative")
	}

	if len(c.Scraper.UserAgents) == 0 {
		return fmt.Errorf("SCRAPER_USER_AGENTS cannot be empty")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// DefaultUserAgents is the rotation pool used when SCRAPER_USER_AGENTS is unset.
func DefaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
	}
}
