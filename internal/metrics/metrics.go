// Package metrics holds the Prometheus collectors for the search engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors on a dedicated registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry        *prometheus.Registry
	AttemptsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    prometheus.Counter
	ErrorsTotal     *prometheus.CounterVec
	ScrapesTotal    *prometheus.CounterVec
	ProductsTotal   *prometheus.CounterVec
	SkippedBlocks   prometheus.Counter
	SponsoredBlocks prometheus.Counter
	CaptchaPages    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	attempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_fetch_attempts_total",
			Help: "Fetch attempts by storefront and outcome.",
		},
		[]string{"domain", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "Latency of individual fetch attempts.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"domain"},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Retries scheduled after transient failures.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Failed fetch attempts by error type.",
		},
		[]string{"error_type"},
	)
	scrapes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_scrapes_total",
			Help: "Completed scrape calls by storefront and status.",
		},
		[]string{"domain", "status"},
	)
	products := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_products_total",
			Help: "Product records returned to callers.",
		},
		[]string{"domain"},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_skipped_blocks_total",
			Help: "Result blocks skipped because extraction failed.",
		},
	)
	sponsored := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_sponsored_blocks_total",
			Help: "Sponsored result blocks excluded from output.",
		},
	)
	captcha := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_captcha_pages_total",
			Help: "Search pages that came back as a CAPTCHA challenge.",
		},
		[]string{"domain"},
	)

	registry.MustRegister(attempts, duration, retries, errorsTotal, scrapes, products, skipped, sponsored, captcha)

	return &Metrics{
		Registry:        registry,
		AttemptsTotal:   attempts,
		RequestDuration: duration,
		RetriesTotal:    retries,
		ErrorsTotal:     errorsTotal,
		ScrapesTotal:    scrapes,
		ProductsTotal:   products,
		SkippedBlocks:   skipped,
		SponsoredBlocks: sponsored,
		CaptchaPages:    captcha,
	}
}

func (m *Metrics) IncAttempt(domain, outcome string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) ObserveDuration(domain string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(domain).Observe(d.Seconds())
}

func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveScrape records one finished Scrape call.
func (m *Metrics) ObserveScrape(domain, status string, products int) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(domain, status).Inc()
	m.ProductsTotal.WithLabelValues(domain).Add(float64(products))
}

// ObserveExtraction records per-page extraction counters.
func (m *Metrics) ObserveExtraction(domain string, skipped, sponsored int, captcha bool) {
	if m == nil {
		return
	}
	m.SkippedBlocks.Add(float64(skipped))
	m.SponsoredBlocks.Add(float64(sponsored))
	if captcha {
		m.CaptchaPages.WithLabelValues(domain).Inc()
	}
}
