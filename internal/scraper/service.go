package scraper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/metrics"
	"github.com/maltedev/amazon-search-scraper/internal/models"
	"github.com/maltedev/amazon-search-scraper/internal/parser"
	"github.com/maltedev/amazon-search-scraper/internal/ratelimit"
)

// ScrapeSummary is what the Notifier learns about a finished scrape.
type ScrapeSummary struct {
	ScrapeID  string
	Keyword   string
	Domain    string
	Products  int
	Sponsored int
	Skipped   int
	Captcha   bool
	Status    string
	Error     string
	Duration  time.Duration
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Service runs the resolve, build, fetch, extract and assemble steps for a
// single keyword. It is safe for concurrent use.
type Service struct {
	registry   *domain.Registry
	builder    *RequestBuilder
	fetcher    *Fetcher
	parser     parser.Parser
	notifier   Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	maxResults int
}

type ServiceDeps struct {
	Registry *domain.Registry
	Builder  *RequestBuilder
	Fetcher  *Fetcher
	Parser   parser.Parser
	Notifier Notifier
	Metrics  *metrics.Metrics
}

func NewService(deps ServiceDeps, maxResults int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Service{
		registry:   deps.Registry,
		builder:    deps.Builder,
		fetcher:    deps.Fetcher,
		parser:     deps.Parser,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     logger.With("component", "scraper"),
		maxResults: maxResults,
	}
}

// Scrape returns at most maxResults products for keyword on the storefront
// named by domainKey. An unknown storefront fails with *domain.ValidationError
// before any request is sent; an unrecoverable fetch fails with
// *PermanentFetchError. A page without results is not an error.
func (s *Service) Scrape(ctx context.Context, keyword, domainKey string) ([]models.ProductRecord, error) {
	cfg, err := s.registry.Resolve(domainKey)
	if err != nil {
		return nil, err
	}

	req, err := s.builder.Build(keyword, cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := ScrapeSummary{
		ScrapeID: uuid.New().String(),
		Keyword:  keyword,
		Domain:   cfg.Key,
	}
	logger := s.logger.With("scrape_id", summary.ScrapeID, "domain", cfg.Key, "keyword", keyword)
	logger.Info("scrape started", "url", req.URL, "delay", req.Delay)

	markup, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		summary.Status = StatusFailed
		summary.Error = err.Error()
		summary.Duration = time.Since(start)
		s.finish(ctx, logger, summary)

		var permanent *PermanentFetchError
		if !errors.As(err, &permanent) {
			err = &PermanentFetchError{Err: err}
		}
		return nil, err
	}

	extraction := s.parser.Extract(markup, cfg)
	s.metrics.ObserveExtraction(cfg.Key, extraction.Skipped, extraction.Sponsored, extraction.Captcha)
	products := Assemble(extraction.Records, s.maxResults)

	summary.Status = StatusSuccess
	summary.Products = len(products)
	summary.Sponsored = extraction.Sponsored
	summary.Skipped = extraction.Skipped
	summary.Captcha = extraction.Captcha
	summary.Duration = time.Since(start)
	s.finish(ctx, logger, summary)

	return products, nil
}

func (s *Service) finish(ctx context.Context, logger *slog.Logger, summary ScrapeSummary) {
	s.metrics.ObserveScrape(summary.Domain, summary.Status, summary.Products)

	if summary.Status == StatusFailed {
		logger.Error("scrape failed", "error", summary.Error, "duration", summary.Duration)
	} else {
		logger.Info("scrape completed",
			"products", summary.Products,
			"sponsored", summary.Sponsored,
			"skipped", summary.Skipped,
			"captcha", summary.Captcha,
			"duration", summary.Duration,
		)
	}

	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishScrapeCompleted(context.WithoutCancel(ctx), summary); err != nil {
		logger.Warn("failed to publish scrape event", "error", err)
	}
}

// Registry exposes the storefront table the service resolves against.
func (s *Service) Registry() *domain.Registry {
	return s.registry
}

// New wires a Service from Options with the default storefront table.
func New(opts Options, m *metrics.Metrics, notifier Notifier, logger *slog.Logger, fopts ...FetcherOption) *Service {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	jitter := ratelimit.NewJitter(opts.DelayMin, opts.DelayMax)
	limiter := ratelimit.NewHostLimiter(opts.RatePerSecond, opts.RateBurst)

	fetcherOpts := append([]FetcherOption{WithMetrics(m), WithLimiter(limiter)}, fopts...)

	return NewService(ServiceDeps{
		Registry: domain.DefaultRegistry(),
		Builder:  NewRequestBuilder(opts.UserAgents, jitter),
		Fetcher:  NewFetcher(opts, logger, fetcherOpts...),
		Parser:   parser.NewSearchParser(logger),
		Notifier: notifier,
		Metrics:  m,
	}, opts.MaxResults, logger)
}
