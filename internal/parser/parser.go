package parser

import (
	"github.com/maltedev/amazon-search-scraper/internal/domain"
)

type Parser interface {
	Extract(markup string, cfg domain.DomainConfig) Extraction
}

var _ Parser = (*SearchParser)(nil)
