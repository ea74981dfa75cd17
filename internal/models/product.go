package models

import "strings"

// Unavailable is the sentinel for a field that could not be extracted.
const Unavailable = "unavailable"

// MaxTitleLength is the rune limit applied to extracted titles.
const MaxTitleLength = 200

// ProductRecord is one search result. Only Title is mandatory; every other
// field degrades to Unavailable on its own.
type ProductRecord struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Rating      string `json:"rating"`
	ReviewCount string `json:"review_count"`
	ImageURL    string `json:"image_url"`
	ProductURL  string `json:"product_url"`
}

func NewProductRecord(title string) ProductRecord {
	return ProductRecord{
		Title:       TruncateTitle(title),
		Price:       Unavailable,
		Rating:      Unavailable,
		ReviewCount: Unavailable,
		ImageURL:    Unavailable,
	}
}

func (p *ProductRecord) HasTitle() bool {
	return strings.TrimSpace(p.Title) != ""
}

// CSVHeader matches the column order of CSVRow.
func CSVHeader() []string {
	return []string{"title", "price", "rating", "review_count", "image_url", "product_url"}
}

func (p *ProductRecord) CSVRow() []string {
	return []string{p.Title, p.Price, p.Rating, p.ReviewCount, p.ImageURL, p.ProductURL}
}

// TruncateTitle trims whitespace and cuts s to MaxTitleLength runes.
func TruncateTitle(s string) string {
	return Truncate(strings.TrimSpace(s), MaxTitleLength)
}

func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
