package parser

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/maltedev/amazon-search-scraper/internal/domain"
	"github.com/maltedev/amazon-search-scraper/internal/models"
)

// titleNotFound marks a block whose title could not be extracted.
const titleNotFound = "not found"

// ExtractionError describes a result block that was skipped.
type ExtractionError struct {
	Index int
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("result block %d: %v", e.Index, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Extraction is the outcome of parsing one search page.
type Extraction struct {
	Records   []models.ProductRecord
	Container string
	Blocks    int
	Sponsored int
	Dropped   int
	Skipped   int
	Captcha   bool
}

// SearchParser turns search-result markup into product records. Every field
// is located through an ordered list of strategies; the first hit wins.
type SearchParser struct {
	logger *slog.Logger

	containers []string
	sponsored  []SponsoredCheck
	links      []Finder
	titles     []Finder
	prices     []Finder
	ratings    []TextSource
	reviews    []TextSource
	images     []Finder
}

func NewSearchParser(logger *slog.Logger) *SearchParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchParser{
		logger:     logger.With("component", "search_parser"),
		containers: containerSelectors,
		sponsored:  sponsoredChecks,
		links:      linkFinders,
		titles:     titleFinders,
		prices:     priceFinders,
		ratings:    ratingSources,
		reviews:    reviewSources,
		images:     imageFinders,
	}
}

// Extract never fails for the document as a whole. Unparseable markup and
// pages without result blocks yield an empty Extraction.
func (p *SearchParser) Extract(markup string, cfg domain.DomainConfig) Extraction {
	result := Extraction{Records: []models.ProductRecord{}}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		p.logger.Warn("failed to parse search page", "domain", cfg.Key, "error", err)
		return result
	}

	blocks, container := p.findBlocks(doc)
	if blocks == nil {
		result.Captcha = isCaptchaPage(markup)
		if result.Captcha {
			p.logger.Warn("captcha page detected", "domain", cfg.Key)
		}
		return result
	}
	result.Container = container
	result.Blocks = blocks.Length()

	blocks.Each(func(i int, block *goquery.Selection) {
		if p.isSponsored(block) {
			result.Sponsored++
			return
		}

		record, ok, err := p.extractBlock(i, block, cfg)
		if err != nil {
			result.Skipped++
			p.logger.Warn("skipping result block", "domain", cfg.Key, "index", i, "error", err)
			return
		}
		if !ok {
			result.Dropped++
			return
		}
		result.Records = append(result.Records, record)
	})

	p.logger.Debug("extracted search page",
		"domain", cfg.Key,
		"container", container,
		"blocks", result.Blocks,
		"records", len(result.Records),
		"sponsored", result.Sponsored,
		"dropped", result.Dropped,
		"skipped", result.Skipped,
	)

	return result
}

func (p *SearchParser) findBlocks(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range p.containers {
		if blocks := doc.Find(selector); blocks.Length() > 0 {
			return blocks, selector
		}
	}
	return nil, ""
}

func (p *SearchParser) isSponsored(block *goquery.Selection) bool {
	for _, check := range p.sponsored {
		if check(block) {
			return true
		}
	}
	return false
}

// extractBlock recovers from panics so that one malformed block cannot abort
// the page.
func (p *SearchParser) extractBlock(index int, block *goquery.Selection, cfg domain.DomainConfig) (record models.ProductRecord, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExtractionError{Index: index, Err: fmt.Errorf("panic: %v", r)}
			ok = false
		}
	}()

	title, link := p.extractTitleAndLink(block)
	if title == titleNotFound {
		return models.ProductRecord{}, false, nil
	}

	record = models.NewProductRecord(title)
	if !record.HasTitle() {
		return models.ProductRecord{}, false, nil
	}

	if link != "" {
		record.ProductURL = NormalizeURL(cfg.BaseURL, link)
	} else {
		record.ProductURL = FallbackURL(cfg, record.Title)
	}

	record.Price = p.extractPrice(block)
	record.Rating = p.extractRating(block)
	record.ReviewCount = p.extractReviewCount(block)
	record.ImageURL = p.extractImage(block)

	return record, true, nil
}

func (p *SearchParser) extractTitleAndLink(block *goquery.Selection) (string, string) {
	title := ""
	href := ""

	if link := firstMatch(block, p.links); link != nil {
		href, _ = link.Attr("href")
		href = strings.TrimSpace(href)
		link.Find("span").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			title = cleanText(s.Text())
			return title == ""
		})
	}

	if title == "" {
		if s := firstMatch(block, p.titles); s != nil {
			title = cleanText(s.Text())
		}
	}

	if title == "" {
		return titleNotFound, href
	}
	return title, href
}

func (p *SearchParser) extractPrice(block *goquery.Selection) string {
	if s := firstMatch(block, p.prices); s != nil {
		return cleanText(s.Text())
	}
	return models.Unavailable
}

func (p *SearchParser) extractRating(block *goquery.Selection) string {
	for _, source := range p.ratings {
		for _, candidate := range source(block) {
			if rating := ParseRating(candidate); rating != models.Unavailable {
				return rating
			}
		}
	}
	return models.Unavailable
}

func (p *SearchParser) extractReviewCount(block *goquery.Selection) string {
	for _, source := range p.reviews {
		for _, candidate := range source(block) {
			if count := ParseReviewCount(candidate); count != models.Unavailable {
				return count
			}
		}
	}
	return models.Unavailable
}

func (p *SearchParser) extractImage(block *goquery.Selection) string {
	img := firstMatch(block, p.images)
	if img == nil {
		return models.Unavailable
	}

	for _, attr := range []string{"src", "data-src"} {
		v, _ := img.Attr(attr)
		v = strings.TrimSpace(v)
		if v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return models.Unavailable
}

func isCaptchaPage(markup string) bool {
	for _, marker := range captchaMarkers {
		if strings.Contains(markup, marker) {
			return true
		}
	}
	return false
}
