// Package domain holds the table of supported Amazon storefronts.
package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// DomainConfig describes one regional storefront.
type DomainConfig struct {
	Key          string `json:"key"`
	BaseURL      string `json:"base_url"`
	LocaleHeader string `json:"locale"`
}

// SearchURL returns the storefront search endpoint for an already escaped query.
func (d DomainConfig) SearchURL(escapedQuery string) string {
	return d.BaseURL + "/s?k=" + escapedQuery
}

// ValidationError reports an unsupported storefront key.
type ValidationError struct {
	Key       string
	Supported []string
}

func (e *ValidationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("domain is required; supported: %s", strings.Join(e.Supported, ", "))
	}
	return fmt.Sprintf("unsupported domain %q; supported: %s", e.Key, strings.Join(e.Supported, ", "))
}

// Registry is immutable after construction and safe for concurrent use.
type Registry struct {
	configs map[string]DomainConfig
	keys    []string
}

func NewRegistry(configs ...DomainConfig) (*Registry, error) {
	r := &Registry{
		configs: make(map[string]DomainConfig, len(configs)),
		keys:    make([]string, 0, len(configs)),
	}

	for _, c := range configs {
		key := normalizeKey(c.Key)
		if key == "" {
			return nil, fmt.Errorf("domain key is required")
		}
		if _, exists := r.configs[key]; exists {
			return nil, fmt.Errorf("duplicate domain key %q", key)
		}

		parsed, err := url.Parse(c.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url for %q: %w", key, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("base url for %q must be absolute", key)
		}

		c.Key = key
		c.BaseURL = strings.TrimRight(c.BaseURL, "/")
		r.configs[key] = c
		r.keys = append(r.keys, key)
	}

	sort.Strings(r.keys)
	return r, nil
}

// Resolve looks up a storefront. Keys are matched case-insensitively.
func (r *Registry) Resolve(key string) (DomainConfig, error) {
	normalized := normalizeKey(key)
	if cfg, ok := r.configs[normalized]; ok && normalized != "" {
		return cfg, nil
	}
	return DomainConfig{}, &ValidationError{Key: strings.TrimSpace(key), Supported: r.Keys()}
}

// Keys returns the supported keys in sorted order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// All returns every storefront ordered by key.
func (r *Registry) All() []DomainConfig {
	out := make([]DomainConfig, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.configs[k])
	}
	return out
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

var storefronts = []DomainConfig{
	{Key: "us", BaseURL: "https://www.amazon.com", LocaleHeader: "en-US,en;q=0.9"},
	{Key: "uk", BaseURL: "https://www.amazon.co.uk", LocaleHeader: "en-GB,en;q=0.9"},
	{Key: "de", BaseURL: "https://www.amazon.de", LocaleHeader: "de-DE,de;q=0.9,en;q=0.8"},
	{Key: "fr", BaseURL: "https://www.amazon.fr", LocaleHeader: "fr-FR,fr;q=0.9,en;q=0.8"},
	{Key: "ca", BaseURL: "https://www.amazon.ca", LocaleHeader: "en-CA,en;q=0.9,fr-CA;q=0.8"},
	{Key: "au", BaseURL: "https://www.amazon.com.au", LocaleHeader: "en-AU,en;q=0.9"},
	{Key: "jp", BaseURL: "https://www.amazon.co.jp", LocaleHeader: "ja-JP,ja;q=0.9,en;q=0.8"},
	{Key: "in", BaseURL: "https://www.amazon.in", LocaleHeader: "en-IN,en;q=0.9,hi;q=0.8"},
	{Key: "br", BaseURL: "https://www.amazon.com.br", LocaleHeader: "pt-BR,pt;q=0.9,en;q=0.8"},
	{Key: "mx", BaseURL: "https://www.amazon.com.mx", LocaleHeader: "es-MX,es;q=0.9,en;q=0.8"},
	{Key: "it", BaseURL: "https://www.amazon.it", LocaleHeader: "it-IT,it;q=0.9,en;q=0.8"},
	{Key: "es", BaseURL: "https://www.amazon.es", LocaleHeader: "es-ES,es;q=0.9,en;q=0.8"},
}

// Storefronts returns a copy of the built-in storefront table.
func Storefronts() []DomainConfig {
	out := make([]DomainConfig, len(storefronts))
	copy(out, storefronts)
	return out
}

// DefaultRegistry builds a registry from the built-in storefront table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(storefronts...)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in storefront table: %v", err))
	}
	return r
}
