package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Default per-source limits.
const (
	DefaultRateLimitRPS  = 1.0
	DefaultRetryAttempts = 3
)

// Source represents a configured knowledge source.
// Sources are a static table loaded at startup.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Name is the human-readable name for this source.
	Name string

	// BaseURL is the origin that Paths are resolved against.
	BaseURL string

	// Paths are the pages to ingest, relative to BaseURL or absolute.
	Paths []string

	// Language is the language of the source content.
	Language string

	// Selectors narrow extraction to the relevant parts of each page.
	Selectors Selectors

	// RateLimitRPS is the request ceiling against this origin.
	RateLimitRPS float64

	// RetryAttempts is the total number of attempts per URL.
	RetryAttempts int
}

// Selectors are CSS selectors used by the extractor.
type Selectors struct {
	// Title selects the element holding the page title.
	Title string

	// Content selects the elements holding the main text.
	Content string

	// Exclude lists elements removed before extraction.
	Exclude []string
}

// DisplayName returns the name, falling back to the ID.
func (s *Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// EffectiveRateLimit returns the configured RPS or the default.
func (s *Source) EffectiveRateLimit() float64 {
	if s.RateLimitRPS <= 0 {
		return DefaultRateLimitRPS
	}
	return s.RateLimitRPS
}

// EffectiveRetryAttempts returns the configured attempt count or the default.
func (s *Source) EffectiveRetryAttempts() int {
	if s.RetryAttempts <= 0 {
		return DefaultRetryAttempts
	}
	return s.RetryAttempts
}

// URLs resolves every path against BaseURL.
// Absolute paths are returned unchanged.
func (s *Source) URLs() ([]string, error) {
	var base *url.URL
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: base url %q: %v", ErrInvalidInput, s.BaseURL, err)
		}
		base = u
	}

	urls := make([]string, 0, len(s.Paths))
	for _, p := range s.Paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref, err := url.Parse(p)
		if err != nil {
			return nil, fmt.Errorf("%w: path %q: %v", ErrInvalidInput, p, err)
		}
		if ref.IsAbs() {
			urls = append(urls, ref.String())
			continue
		}
		if base == nil {
			return nil, fmt.Errorf("%w: relative path %q without base url", ErrInvalidInput, p)
		}
		urls = append(urls, base.ResolveReference(ref).String())
	}
	return urls, nil
}

// Validate checks the source has what ingestion needs.
func (s *Source) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}
	if len(s.Paths) == 0 {
		return fmt.Errorf("%w: source %s has no paths", ErrInvalidInput, s.ID)
	}
	if _, err := s.URLs(); err != nil {
		return fmt.Errorf("source %s: %w", s.ID, err)
	}
	return nil
}
