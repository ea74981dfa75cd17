package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usStore = domain.DomainConfig{Key: "us", BaseURL: "https://www.amazon.com", LocaleHeader: "en-US,en;q=0.9"}

func quietParser() *SearchParser {
	return NewSearchParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func resultBlock(asin, inner string) string {
	return fmt.Sprintf(`<div data-component-type="s-search-result" data-asin="%s">%s</div>`, asin, inner)
}

func page(blocks ...string) string {
	return `<html><body><div class="s-main-slot">` + strings.Join(blocks, "") + `</div></body></html>`
}

const fullBlock = `
	<h2><a class="a-link-normal" href="/Wireless-Mouse/dp/B0001"><span>Wireless Mouse</span></a></h2>
	<span class="a-price"><span class="a-offscreen">$19.99</span><span aria-hidden="true">$19<sup>99</sup></span></span>
	<span class="a-icon-alt">4.5 out of 5 stars</span>
	<a href="/product-reviews/B0001#customerReviews"><span class="a-size-base s-underline-text">1,234</span></a>
	<img class="s-image" src="https://m.media-amazon.com/images/I/mouse.jpg">`

func TestExtractFullBlock(t *testing.T) {
	result := quietParser().Extract(page(resultBlock("B0001", fullBlock)), usStore)

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, "Wireless Mouse", rec.Title)
	assert.Equal(t, "$19.99", rec.Price)
	assert.Equal(t, "4.5", rec.Rating)
	assert.Equal(t, "1,234", rec.ReviewCount)
	assert.Equal(t, "https://m.media-amazon.com/images/I/mouse.jpg", rec.ImageURL)
	assert.Equal(t, "https://www.amazon.com/Wireless-Mouse/dp/B0001", rec.ProductURL)
	assert.Equal(t, 1, result.Blocks)
	assert.Equal(t, containerSelectors[0], result.Container)
	assert.False(t, result.Captcha)
}

func TestExtractSkipsSponsoredBlocks(t *testing.T) {
	tests := []struct {
		name  string
		block string
	}{
		{
			name:  "AdHolder class",
			block: `<div class="AdHolder" data-component-type="s-search-result" data-asin="B0S1"><h2><a href="/dp/B0S1"><span>Ad</span></a></h2></div>`,
		},
		{
			name:  "sponsored component marker",
			block: resultBlock("B0S2", `<div data-component-type="sp-sponsored-result"></div><h2><a href="/dp/B0S2"><span>Ad</span></a></h2>`),
		},
		{
			name:  "sponsored label text",
			block: resultBlock("B0S3", `<span class="a-color-secondary">Sponsored</span><h2><a href="/dp/B0S3"><span>Ad</span></a></h2>`),
		},
		{
			name:  "localized sponsored label",
			block: resultBlock("B0S4", `<span class="a-color-secondary">Gesponsert</span><h2><a href="/dp/B0S4"><span>Anzeige</span></a></h2>`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markup := page(tt.block, resultBlock("B0001", fullBlock))
			result := quietParser().Extract(markup, usStore)

			require.Len(t, result.Records, 1)
			assert.Equal(t, "Wireless Mouse", result.Records[0].Title)
			assert.Equal(t, 1, result.Sponsored)
		})
	}
}

func TestExtractTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("x", 500)
	block := resultBlock("B0002", `<h2><a href="/dp/B0002"><span>`+long+`</span></a></h2>`)

	result := quietParser().Extract(page(block), usStore)

	require.Len(t, result.Records, 1)
	assert.Len(t, result.Records[0].Title, models.MaxTitleLength)
}

func TestExtractDefaultsMissingFields(t *testing.T) {
	block := resultBlock("B0003", `<h2><a href="/dp/B0003"><span>Plain Notebook</span></a></h2><span class="a-icon-alt">Not rated</span>`)

	result := quietParser().Extract(page(block), usStore)

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, models.Unavailable, rec.Price)
	assert.Equal(t, models.Unavailable, rec.Rating)
	assert.Equal(t, models.Unavailable, rec.ReviewCount)
	assert.Equal(t, models.Unavailable, rec.ImageURL)
}

func TestExtractEmptyPage(t *testing.T) {
	for _, markup := range []string{"", "<html><body><p>No results</p></body></html>"} {
		result := quietParser().Extract(markup, usStore)
		assert.NotNil(t, result.Records)
		assert.Empty(t, result.Records)
		assert.Zero(t, result.Blocks)
	}
}

func TestExtractDetectsCaptcha(t *testing.T) {
	markup := `<html><body><form action="/errors/validateCaptcha"><p>Enter the characters you see below</p></form></body></html>`

	result := quietParser().Extract(markup, usStore)

	assert.True(t, result.Captcha)
	assert.Empty(t, result.Records)
}

func TestExtractFallbackURLWithoutLink(t *testing.T) {
	block := resultBlock("B0004", `<h2><span>Ceramic Mug &amp; Saucer</span></h2>`)

	result := quietParser().Extract(page(block), usStore)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Ceramic Mug & Saucer", result.Records[0].Title)
	assert.Equal(t, "https://www.amazon.com/s?k=Ceramic+Mug+%26+Saucer", result.Records[0].ProductURL)
}

func TestExtractDropsBlocksWithoutTitle(t *testing.T) {
	block := resultBlock("B0005", `<span class="a-price"><span class="a-offscreen">$5.00</span></span>`)

	result := quietParser().Extract(page(block, resultBlock("B0001", fullBlock)), usStore)

	require.Len(t, result.Records, 1)
	assert.Equal(t, 1, result.Dropped)
}

func TestExtractSkipsPanickingBlock(t *testing.T) {
	p := quietParser()
	calls := 0
	p.prices = []Finder{func(block *goquery.Selection) *goquery.Selection {
		calls++
		if calls == 1 {
			panic("broken markup")
		}
		return nil
	}}

	markup := page(
		resultBlock("B0006", `<h2><a href="/dp/B0006"><span>First</span></a></h2>`),
		resultBlock("B0007", `<h2><a href="/dp/B0007"><span>Second</span></a></h2>`),
	)
	result := p.Extract(markup, usStore)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Second", result.Records[0].Title)
	assert.Equal(t, 1, result.Skipped)
}

func TestExtractFallsBackToDataSrc(t *testing.T) {
	block := resultBlock("B0008", `<h2><a href="/dp/B0008"><span>Lamp</span></a></h2>
		<img class="s-image" src="data:image/gif;base64,R0lGOD" data-src="https://m.media-amazon.com/images/I/lamp.jpg">`)

	result := quietParser().Extract(page(block), usStore)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "https://m.media-amazon.com/images/I/lamp.jpg", result.Records[0].ImageURL)
}

func TestExtractUsesSecondaryContainer(t *testing.T) {
	markup := page(`<div class="s-result-item" data-asin="B0009"><h2><a href="https://www.amazon.com/dp/B0009"><span>Desk Fan</span></a></h2></div>`)

	result := quietParser().Extract(markup, usStore)

	require.Len(t, result.Records, 1)
	assert.Equal(t, containerSelectors[1], result.Container)
	assert.Equal(t, "https://www.amazon.com/dp/B0009", result.Records[0].ProductURL)
}

func TestExtractPreservesDocumentOrder(t *testing.T) {
	var blocks []string
	for i := 0; i < 5; i++ {
		blocks = append(blocks, resultBlock(fmt.Sprintf("B1%03d", i), fmt.Sprintf(`<h2><a href="/dp/B1%03d"><span>Item %d</span></a></h2>`, i, i)))
	}

	result := quietParser().Extract(page(blocks...), usStore)

	require.Len(t, result.Records, 5)
	for i, rec := range result.Records {
		assert.Equal(t, fmt.Sprintf("Item %d", i), rec.Title)
	}
}

func TestExtractionErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &ExtractionError{Index: 3, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "result block 3")
}
