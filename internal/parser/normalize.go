package parser

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/models"
)

// fallbackTitleLength bounds the title prefix used in a synthesized search URL.
const fallbackTitleLength = 100

var (
	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*out\s+of\s+5(?:\s+stars?)?`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*von\s+5`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*sur\s+5`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*su\s+5`),
		regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*de\s+5`),
		regexp.MustCompile(`5つ星のうち\s*(\d+(?:[.,]\d+)?)`),
	}

	reviewCountPattern = regexp.MustCompile(`\d{1,3}(?:[,.]\d{3})+|\d+`)
)

// ParseRating extracts the score from text like "4.5 out of 5 stars".
// Anything else, including scores outside 0-5, yields models.Unavailable.
func ParseRating(text string) string {
	for _, pattern := range ratingPatterns {
		match := pattern.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}

		rating := strings.Replace(match[1], ",", ".", 1)
		value, err := strconv.ParseFloat(rating, 64)
		if err != nil || value < 0 || value > 5 {
			continue
		}
		return rating
	}
	return models.Unavailable
}

// ParseReviewCount returns the first digit group in text, keeping its
// thousands separators ("1,234 ratings" -> "1,234").
func ParseReviewCount(text string) string {
	if match := reviewCountPattern.FindString(text); match != "" {
		return match
	}
	return models.Unavailable
}

// NormalizeURL resolves an href found in a result block against the storefront.
func NormalizeURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		scheme := "https"
		if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" {
			scheme = u.Scheme
		}
		return scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return baseURL + href
	default:
		return baseURL + "/" + href
	}
}

// FallbackURL builds a storefront search link from the title when a block
// carries no product link.
func FallbackURL(cfg domain.DomainConfig, title string) string {
	return cfg.SearchURL(url.QueryEscape(models.Truncate(title, fallbackTitleLength)))
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
