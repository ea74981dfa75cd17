package scraper

import (
	"context"
	"time"

	"github.com/maltedev/amazon-search-scraper/internal/config"
	"github.com/maltedev/amazon-search-scraper/internal/models"
)

// Scraper is the search engine as seen by the API and the CLI.
type Scraper interface {
	Scrape(ctx context.Context, keyword, domainKey string) ([]models.ProductRecord, error)
}

var _ Scraper = (*Service)(nil)

// Notifier receives a summary after every scrape.
type Notifier interface {
	PublishScrapeCompleted(ctx context.Context, summary ScrapeSummary) error
}

// Options tunes the engine. Zero durations and limits are unset and fall back
// to the defaults below; config.Validate rejects zero where it would mean
// something else. MaxRetries is taken as given. A zero RatePerSecond disables
// the per-storefront limiter.
type Options struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	RequestTimeout  time.Duration
	MaxRedirects    int
	MaxBodyBytes    int64
	MaxResults      int
	DelayMin        time.Duration
	DelayMax        time.Duration
	RatePerSecond   float64
	RateBurst       int
	UserAgents      []string
}

const (
	DefaultMaxRetries      = 3
	DefaultRetryBackoff    = 2 * time.Second
	DefaultRetryBackoffMax = 30 * time.Second
	DefaultRequestTimeout  = 15 * time.Second
	DefaultMaxRedirects    = 5
	DefaultMaxBodyBytes    = 5 << 20
	DefaultMaxResults      = 20
)

func DefaultOptions() Options {
	return Options{
		MaxRetries:      DefaultMaxRetries,
		RetryBackoff:    DefaultRetryBackoff,
		RetryBackoffMax: DefaultRetryBackoffMax,
		RequestTimeout:  DefaultRequestTimeout,
		MaxRedirects:    DefaultMaxRedirects,
		MaxBodyBytes:    DefaultMaxBodyBytes,
		MaxResults:      DefaultMaxResults,
		DelayMin:        500 * time.Millisecond,
		DelayMax:        1500 * time.Millisecond,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.RetryBackoffMax <= 0 {
		o.RetryBackoffMax = DefaultRetryBackoffMax
	}
	if o.RetryBackoffMax < o.RetryBackoff {
		o.RetryBackoffMax = o.RetryBackoff
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	return o
}

// OptionsFromConfig maps the environment-driven scraper settings onto Options.
func OptionsFromConfig(c config.ScraperConfig) Options {
	return Options{
		MaxRetries:      c.MaxRetries,
		RetryBackoff:    c.RetryBackoff,
		RetryBackoffMax: c.RetryBackoffMax,
		RequestTimeout:  c.RequestTimeout,
		MaxRedirects:    c.MaxRedirects,
		MaxBodyBytes:    c.MaxBodyBytes,
		MaxResults:      c.MaxResults,
		DelayMin:        c.DelayMin,
		DelayMax:        c.DelayMax,
		RatePerSecond:   c.RatePerSecond,
		RateBurst:       c.RateBurst,
		UserAgents:      c.UserAgents,
	}
}
