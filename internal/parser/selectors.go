package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Finder looks up one element inside a result block. It returns nil on a miss.
type Finder func(block *goquery.Selection) *goquery.Selection

// TextSource lists candidate strings inside a block, in priority order.
type TextSource func(block *goquery.Selection) []string

// SponsoredCheck reports whether a block is a paid placement.
type SponsoredCheck func(block *goquery.Selection) bool

var containerSelectors = []string{
	`div[data-component-type="s-search-result"]`,
	`div.s-result-item[data-asin]:not([data-asin=""])`,
	`div[data-asin]:not([data-asin=""])`,
	`li.s-result-item`,
}

var linkFinders = []Finder{
	firstLink(`h2 a`),
	firstLink(`a:has(h2)`),
	firstLink(`[data-cy="title-recipe"] a`),
	firstLink(`a[href*="/dp/"], a[href*="/gp/"]`),
	firstLink(`a.a-link-normal`),
}

var titleFinders = []Finder{
	firstWithText(`h2 a span`),
	firstWithText(`h2 span`),
	firstWithText(`h2`),
	firstWithText(`[data-cy="title-recipe"] span`),
	firstWithText(`span.a-size-medium.a-color-base.a-text-normal`),
	firstWithText(`span.a-size-base-plus.a-color-base.a-text-normal`),
}

var priceFinders = []Finder{
	firstWithText(`span.a-price:not(.a-text-price) span.a-offscreen`),
	firstWithText(`span.a-price span.a-offscreen`),
	firstWithText(`span.a-price > span[aria-hidden="true"]`),
	firstWithText(`span.a-color-price`),
	firstWithText(`span.a-price-whole`),
}

var ratingSources = []TextSource{
	texts(`span.a-icon-alt`),
	attrs(`[aria-label]`, "aria-label"),
	attrs(`img[alt]`, "alt"),
	texts(`i[class*="a-star"]`),
}

var reviewSources = []TextSource{
	texts(`a[href*="customerReviews"] span.s-underline-text`),
	attrs(`a[href*="customerReviews"][aria-label]`, "aria-label"),
	texts(`a[href*="customerReviews"] span`),
	texts(`span.a-size-base.s-underline-text`),
	attrs(`span[aria-label$="ratings"], span[aria-label$="rating"]`, "aria-label"),
}

var imageFinders = []Finder{
	first(`img.s-image`),
	first(`img`),
}

var sponsoredLabels = map[string]struct{}{
	"sponsored":     {},
	"gesponsert":    {},
	"sponsorisé":    {},
	"sponsorizzato": {},
	"patrocinado":   {},
	"スポンサー":         {},
}

var sponsoredChecks = []SponsoredCheck{
	func(b *goquery.Selection) bool { return b.HasClass("AdHolder") },
	func(b *goquery.Selection) bool {
		v, _ := b.Attr("data-component-type")
		return v == "sp-sponsored-result"
	},
	func(b *goquery.Selection) bool {
		return b.Find(`[data-component-type="sp-sponsored-result"], .puis-sponsored-label-text, .s-sponsored-label-text, .s-sponsored-label-info-icon`).Length() > 0
	},
	func(b *goquery.Selection) bool {
		found := false
		b.Find(`span.a-color-secondary, span.s-label-popover-default, span.puis-label-popover-default`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			_, found = sponsoredLabels[strings.ToLower(cleanText(s.Text()))]
			return !found
		})
		return found
	},
}

var captchaMarkers = []string{
	"validateCaptcha",
	"Enter the characters you see below",
	"Type the characters you see in this image",
	"Klicke auf die Schaltfläche unten",
	"api-services-support@amazon.com",
}

func first(selector string) Finder {
	return func(block *goquery.Selection) *goquery.Selection {
		s := block.Find(selector).First()
		if s.Length() == 0 {
			return nil
		}
		return s
	}
}

func firstWithText(selector string) Finder {
	return func(block *goquery.Selection) *goquery.Selection {
		var hit *goquery.Selection
		block.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if cleanText(s.Text()) != "" {
				hit = s
				return false
			}
			return true
		})
		return hit
	}
}

// firstLink skips anchors whose href is missing or blank.
func firstLink(selector string) Finder {
	return func(block *goquery.Selection) *goquery.Selection {
		var hit *goquery.Selection
		block.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
				hit = s
				return false
			}
			return true
		})
		return hit
	}
}

func texts(selector string) TextSource {
	return func(block *goquery.Selection) []string {
		var out []string
		block.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if t := cleanText(s.Text()); t != "" {
				out = append(out, t)
			}
		})
		return out
	}
}

func attrs(selector, attr string) TextSource {
	return func(block *goquery.Selection) []string {
		var out []string
		block.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if v, ok := s.Attr(attr); ok {
				if v = cleanText(v); v != "" {
					out = append(out, v)
				}
			}
		})
		return out
	}
}

func firstMatch(block *goquery.Selection, finders []Finder) *goquery.Selection {
	for _, find := range finders {
		if s := find(block); s != nil {
			return s
		}
	}
	return nil
}
