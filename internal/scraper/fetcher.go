package scraper

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/maltedev/amazon-search-scraper/internal/metrics"
	"github.com/maltedev/amazon-search-scraper/internal/ratelimit"
)

type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient_failure"
	OutcomePermanent Outcome = "permanent_failure"
)

// FetchAttempt describes one request inside a Fetch call. Number is 0-based.
type FetchAttempt struct {
	Number      int
	DelayBefore time.Duration
	Outcome     Outcome
	StatusCode  int
	Duration    time.Duration
	Err         error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type FetcherOption func(*Fetcher)

// WithTransport swaps the HTTP transport while keeping the client's timeout
// and redirect policy.
func WithTransport(rt http.RoundTripper) FetcherOption {
	return func(f *Fetcher) { f.client.Transport = rt }
}

func WithSleeper(s Sleeper) FetcherOption {
	return func(f *Fetcher) { f.sleep = s }
}

// WithAttemptHook registers a callback invoked after every attempt.
func WithAttemptHook(hook func(FetchAttempt)) FetcherOption {
	return func(f *Fetcher) { f.onAttempt = hook }
}

func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) { f.metrics = m }
}

func WithLimiter(l *ratelimit.HostLimiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// Fetcher downloads search pages with a bounded retry budget. It holds no
// per-call state and can be shared between goroutines.
type Fetcher struct {
	client       *http.Client
	limiter      *ratelimit.HostLimiter
	sleep        Sleeper
	onAttempt    func(FetchAttempt)
	metrics      *metrics.Metrics
	logger       *slog.Logger
	maxRetries   int
	baseBackoff  time.Duration
	maxBackoff   time.Duration
	maxBodyBytes int64
}

func NewFetcher(opts Options, logger *slog.Logger, fopts ...FetcherOption) *Fetcher {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.RequestTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.MaxIdleConns = 100
	transport.IdleConnTimeout = 90 * time.Second
	transport.TLSHandshakeTimeout = 10 * time.Second
	// HTTP/1.1 only: peer resets then surface as ECONNRESET and stay retryable.
	transport.ForceAttemptHTTP2 = false
	transport.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}

	maxRedirects := opts.MaxRedirects
	f := &Fetcher{
		client: &http.Client{
			Timeout:   opts.RequestTimeout,
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) > maxRedirects {
					return fmt.Errorf("%w: limit is %d", ErrTooManyRedirects, maxRedirects)
				}
				return nil
			},
		},
		sleep:        ratelimit.Sleep,
		logger:       logger.With("component", "fetcher"),
		maxRetries:   opts.MaxRetries,
		baseBackoff:  opts.RetryBackoff,
		maxBackoff:   opts.RetryBackoffMax,
		maxBodyBytes: opts.MaxBodyBytes,
	}

	for _, o := range fopts {
		o(f)
	}
	return f
}

// Fetch waits out the request's pre-request delay, then performs up to
// MaxRetries+1 attempts. Transient failures are retried with exponential
// backoff; anything else, or an exhausted budget, ends in a
// *PermanentFetchError.
func (f *Fetcher) Fetch(ctx context.Context, req *Request) (string, error) {
	if req.Delay > 0 {
		if err := f.sleep(ctx, req.Delay); err != nil {
			return "", &PermanentFetchError{Err: fmt.Errorf("pre-request delay: %w", err)}
		}
	} else if err := ctx.Err(); err != nil {
		return "", &PermanentFetchError{Err: err}
	}

	var last *TransientFetchError
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		var delay time.Duration
		if attempt > 0 {
			delay = f.backoff(attempt)
			f.metrics.IncRetries()
			if err := f.sleep(ctx, delay); err != nil {
				return "", &PermanentFetchError{Attempts: attempt, Err: fmt.Errorf("backoff interrupted: %w", err)}
			}
		}

		if err := f.limiter.Wait(ctx, req.URL); err != nil {
			return "", &PermanentFetchError{Attempts: attempt, Err: err}
		}

		start := time.Now()
		body, status, err := f.do(ctx, req)
		result := classify(ctx, status, err)

		record := FetchAttempt{
			Number:      attempt,
			DelayBefore: delay,
			StatusCode:  status,
			Duration:    time.Since(start),
			Err:         result,
		}

		switch e := result.(type) {
		case nil:
			record.Outcome = OutcomeSuccess
			f.observe(req, record)
			return body, nil
		case *TransientFetchError:
			record.Outcome = OutcomeTransient
			f.observe(req, record)
			last = e
		case *PermanentFetchError:
			e.Attempts = attempt + 1
			record.Outcome = OutcomePermanent
			f.observe(req, record)
			return "", e
		}
	}

	return "", &PermanentFetchError{
		Attempts:   f.maxRetries + 1,
		StatusCode: last.StatusCode,
		Err:        fmt.Errorf("%w: %w", ErrRetriesExhausted, last),
	}
}

// backoff returns the wait before attempt n (n >= 1): base, 2*base, 4*base...
// capped at maxBackoff. Doubling stops at the cap so large n cannot overflow.
func (f *Fetcher) backoff(n int) time.Duration {
	d := f.baseBackoff
	for i := 1; i < n; i++ {
		if d >= f.maxBackoff/2 {
			return f.maxBackoff
		}
		d *= 2
	}
	return min(d, f.maxBackoff)
}

func (f *Fetcher) do(ctx context.Context, req *Request) (string, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	if req.Headers != nil {
		httpReq.Header = req.Headers.Clone()
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", resp.StatusCode, nil
	}

	body, err := readBody(resp, f.maxBodyBytes)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

// readBody decodes the body according to Content-Encoding. The transport does
// not decompress for us because Accept-Encoding is set explicitly.
func readBody(resp *http.Response, limit int64) (string, error) {
	var r io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("open gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return "", fmt.Errorf("open deflate body: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}

func (f *Fetcher) observe(req *Request, a FetchAttempt) {
	f.metrics.IncAttempt(req.Domain, string(a.Outcome))
	f.metrics.ObserveDuration(req.Domain, a.Duration)
	if a.Err != nil {
		f.metrics.IncError(errorTypeLabel(a.Err))
	}

	attrs := []any{
		"domain", req.Domain,
		"attempt", a.Number,
		"outcome", a.Outcome,
		"status", a.StatusCode,
		"delay", a.DelayBefore,
		"duration", a.Duration,
	}
	switch a.Outcome {
	case OutcomeSuccess:
		f.logger.Debug("fetch attempt", attrs...)
	case OutcomeTransient:
		f.logger.Warn("fetch attempt", append(attrs, "error", a.Err)...)
	default:
		f.logger.Error("fetch attempt", append(attrs, "error", a.Err)...)
	}

	if f.onAttempt != nil {
		f.onAttempt(a)
	}
}
