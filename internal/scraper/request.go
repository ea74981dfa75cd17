package scraper

import (
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/ratelimit"
)

// Request is one prepared search-page fetch.
type Request struct {
	URL     string
	Headers http.Header
	Delay   time.Duration
	Domain  string
}

// RequestBuilder turns a keyword and storefront into a Request. The agent
// pool is copied on construction and never mutated.
type RequestBuilder struct {
	userAgents []string
	jitter     *ratelimit.Jitter
	intn       func(n int) int
}

func NewRequestBuilder(userAgents []string, jitter *ratelimit.Jitter) *RequestBuilder {
	pool := make([]string, 0, len(userAgents))
	for _, ua := range userAgents {
		if ua = strings.TrimSpace(ua); ua != "" {
			pool = append(pool, ua)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, defaultUserAgent)
	}
	if jitter == nil {
		jitter = ratelimit.NewJitter(0, 0)
	}
	return &RequestBuilder{
		userAgents: pool,
		jitter:     jitter,
		intn:       rand.Intn,
	}
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func (b *RequestBuilder) Build(keyword string, cfg domain.DomainConfig) (*Request, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}

	return &Request{
		URL:     cfg.SearchURL(url.QueryEscape(keyword)),
		Headers: b.headers(cfg),
		Delay:   b.jitter.Delay(),
		Domain:  cfg.Key,
	}, nil
}

func (b *RequestBuilder) headers(cfg domain.DomainConfig) http.Header {
	h := make(http.Header)
	h.Set("User-Agent", b.userAgents[b.intn(len(b.userAgents))])
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", cfg.LocaleHeader)
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Connection", "keep-alive")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-CH-UA", `"Chromium";v="124", "Google Chrome";v="124", "Not-A.Brand";v="99"`)
	h.Set("Sec-CH-UA-Mobile", "?0")
	h.Set("Sec-CH-UA-Platform", `"Windows"`)
	h.Set("Cache-Control", "max-age=0")
	return h
}
