package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/models"
	"github.com/maltedev/amazon-search-scraper/internal/scraper"
)

const (
	defaultDomain = "us"
	serviceName   = "amazon-search-scraper"
)

type Handlers struct {
	scraper  scraper.Scraper
	registry *domain.Registry
	logger   *slog.Logger
}

func NewHandlers(s scraper.Scraper, registry *domain.Registry, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		scraper:  s,
		registry: registry,
		logger:   logger.With("component", "api"),
	}
}

// SearchRequest is the POST body of the search endpoint
type SearchRequest struct {
	Keyword string `json:"keyword"`
	Domain  string `json:"domain"`
}

// SearchResponse is returned by the search endpoint, also on failure
type SearchResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	Keyword  string                 `json:"keyword,omitempty"`
	Domain   string                 `json:"domain,omitempty"`
	Total    int                    `json:"total"`
	Products []models.ProductRecord `json:"products"`
}

// DomainsResponse lists the supported storefronts
type DomainsResponse struct {
	Success bool                  `json:"success"`
	Domains []domain.DomainConfig `json:"domains"`
}

func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"service": serviceName, "status": "running"})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) ListDomains(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, DomainsResponse{
		Success: true,
		Domains: h.registry.All(),
	})
}

// SearchQuery handles GET /search?keyword=...&domain=... ("query" is accepted
// in place of "keyword").
func (h *Handlers) SearchQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := q.Get("keyword")
	if keyword == "" {
		keyword = q.Get("query")
	}
	h.search(w, r, SearchRequest{
		Keyword: keyword,
		Domain:  q.Get("domain"),
	})
}

// SearchBody handles POST /search with a JSON body
func (h *Handlers) SearchBody(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.search(w, r, req)
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request, req SearchRequest) {
	req.Keyword = strings.TrimSpace(req.Keyword)
	req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	if req.Domain == "" {
		req.Domain = defaultDomain
	}

	if req.Keyword == "" {
		h.respondError(w, http.StatusBadRequest, scraper.ErrEmptyKeyword.Error())
		return
	}

	products, err := h.scraper.Scrape(r.Context(), req.Keyword, req.Domain)
	if err != nil {
		status, message := h.classify(err)
		h.logger.Error("search failed",
			"keyword", req.Keyword,
			"domain", req.Domain,
			"status", status,
			"error", err,
		)
		h.respondError(w, status, message)
		return
	}

	h.respondJSON(w, http.StatusOK, SearchResponse{
		Success:  true,
		Keyword:  req.Keyword,
		Domain:   req.Domain,
		Total:    len(products),
		Products: products,
	})
}

// classify picks the HTTP status and the client-facing message. Fetch
// failures are reported without internal detail.
func (h *Handlers) classify(err error) (int, string) {
	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Error()
	}

	if errors.Is(err, scraper.ErrEmptyKeyword) {
		return http.StatusBadRequest, err.Error()
	}

	var permanent *scraper.PermanentFetchError
	if errors.As(err, &permanent) {
		return http.StatusBadGateway, "failed to retrieve results"
	}

	return http.StatusInternalServerError, "internal error"
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, SearchResponse{
		Success:  false,
		Message:  message,
		Products: []models.ProductRecord{},
	})
}
