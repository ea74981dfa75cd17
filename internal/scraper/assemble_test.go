package scraper

import (
	"fmt"
	"testing"

	"github.com/maltedev/amazon-search-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int) []models.ProductRecord {
	out := make([]models.ProductRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.NewProductRecord(fmt.Sprintf("Product %02d", i)))
	}
	return out
}

func TestAssembleCapsResults(t *testing.T) {
	got := Assemble(records(50), 20)

	require.Len(t, got, 20)
	for i, r := range got {
		assert.Equal(t, fmt.Sprintf("Product %02d", i), r.Title)
	}
}

func TestAssembleDropsBlankTitles(t *testing.T) {
	in := records(3)
	in[1].Title = "   "

	got := Assemble(in, 20)

	require.Len(t, got, 2)
	assert.Equal(t, "Product 00", got[0].Title)
	assert.Equal(t, "Product 02", got[1].Title)
}

func TestAssembleNeverReturnsNil(t *testing.T) {
	got := Assemble(nil, 20)

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAssembleDefaultLimit(t *testing.T) {
	assert.Len(t, Assemble(records(30), 0), DefaultMaxResults)
}
