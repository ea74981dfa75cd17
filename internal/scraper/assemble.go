package scraper

import (
	"github.com/maltedev/amazon-search-scraper/internal/models"
)

// Assemble keeps document order, drops records without a title and returns
// at most limit records. The result is never nil.
func Assemble(records []models.ProductRecord, limit int) []models.ProductRecord {
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	out := make([]models.ProductRecord, 0, min(len(records), limit))
	for _, r := range records {
		if len(out) == limit {
			break
		}
		if !r.HasTitle() {
			continue
		}
		out = append(out, r)
	}
	return out
}
