package parser

import (
	"strings"
	"testing"

	"github.com/maltedev/amazon-search-scraper/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseRating(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"4.5 out of 5 stars", "4.5"},
		{"4 out of 5 stars", "4"},
		{"4,3 von 5 Sternen", "4.3"},
		{"4,1 sur 5 étoiles", "4.1"},
		{"4,7 su 5 stelle", "4.7"},
		{"4,2 de 5 estrellas", "4.2"},
		{"5つ星のうち4.4", "4.4"},
		{"Not rated", models.Unavailable},
		{"7.5 out of 5 stars", models.Unavailable},
		{"", models.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRating(tt.input))
		})
	}
}

func TestParseReviewCount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1,234", "1,234"},
		{"(2.345)", "2.345"},
		{"87 ratings", "87"},
		{"12,345,678 global ratings", "12,345,678"},
		{"no reviews", models.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReviewCount(tt.input))
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	base := "https://www.amazon.de"

	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{"absolute https", "https://www.amazon.de/dp/B01", "https://www.amazon.de/dp/B01"},
		{"absolute http", "http://example.com/x", "http://example.com/x"},
		{"root relative", "/dp/B01?ref=sr_1", "https://www.amazon.de/dp/B01?ref=sr_1"},
		{"protocol relative", "//www.amazon.de/dp/B01", "https://www.amazon.de/dp/B01"},
		{"bare path", "dp/B01", "https://www.amazon.de/dp/B01"},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeURL(base, tt.href))
		})
	}
}

func TestFallbackURLTruncatesTitle(t *testing.T) {
	title := strings.Repeat("a", 150)

	got := FallbackURL(usStore, title)

	assert.Equal(t, "https://www.amazon.com/s?k="+strings.Repeat("a", fallbackTitleLength), got)
}
