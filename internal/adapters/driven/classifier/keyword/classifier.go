// Package keyword classifies documents by keyword tables.
package keyword

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

const (
	// MinContentHits is the number of keyword hits a category needs
	// to win the content vote.
	MinContentHits = 2

	// LeadLength is how much of the text is inspected for the document type.
	LeadLength = 400

	maxTags = 10
)

// Classifier assigns categories and document types from keyword tables.
// Matching is case-insensitive and anchored at word starts.
type Classifier struct{}

var _ driven.Classifier = (*Classifier)(nil)

// New creates a keyword classifier.
func New() *Classifier {
	return &Classifier{}
}

// Category returns the first category whose URL keywords match the page path,
// else the category with the most content hits (at least MinContentHits),
// else CategoryOther. Ties go to the earlier category.
func (c *Classifier) Category(text, pageURL string) domain.Category {
	path := normalise(urlPath(pageURL))
	for _, cat := range domain.AllCategories() {
		for _, kw := range categoryURLKeywords[cat] {
			if countWordPrefix(path, kw) > 0 {
				return cat
			}
		}
	}

	body := normalise(text)
	best, bestHits := domain.CategoryOther, 0
	for _, cat := range domain.AllCategories() {
		hits := 0
		for _, kw := range categoryContentKeywords[cat] {
			hits += countWordPrefix(body, kw)
		}
		if hits > bestHits {
			best, bestHits = cat, hits
		}
	}
	if bestHits < MinContentHits {
		return domain.CategoryOther
	}
	return best
}

// DocumentType checks the URL, then the leading part of the text.
// Defaults to DocumentTypeArticle.
func (c *Classifier) DocumentType(text, pageURL string) domain.DocumentType {
	path := normalise(urlPath(pageURL))
	if t, ok := matchDocumentType(path); ok {
		return t
	}

	lead := []rune(text)
	if len(lead) > LeadLength {
		lead = lead[:LeadLength]
	}
	if t, ok := matchDocumentType(normalise(string(lead))); ok {
		return t
	}
	return domain.DocumentTypeArticle
}

// Tags returns the content keywords present in the text, in table order.
func (c *Classifier) Tags(text string) []string {
	body := normalise(text)
	seen := make(map[string]bool)
	var tags []string
	for _, cat := range domain.AllCategories() {
		for _, kw := range categoryContentKeywords[cat] {
			if seen[kw] || countWordPrefix(body, kw) == 0 {
				continue
			}
			seen[kw] = true
			tags = append(tags, kw)
			if len(tags) == maxTags {
				return tags
			}
		}
	}
	return tags
}

// RelevantFor returns the business types mentioned in the text.
func (c *Classifier) RelevantFor(text string) []string {
	body := normalise(text)
	var out []string
	for _, bt := range businessTypes {
		for _, kw := range bt.keywords {
			if countWordPrefix(body, kw) > 0 {
				out = append(out, bt.label)
				break
			}
		}
	}
	return out
}

func matchDocumentType(normalised string) (domain.DocumentType, bool) {
	for _, t := range documentTypeOrder {
		for _, kw := range documentTypeKeywords[t] {
			if countWordPrefix(normalised, kw) > 0 {
				return t, true
			}
		}
	}
	return "", false
}

func urlPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	return u.Path
}

// normalise lowercases s, turns every non-alphanumeric rune into a space
// and pads the result so word starts can be found with " "+keyword.
func normalise(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// countWordPrefix counts occurrences of keyword at word starts in a normalised string.
func countWordPrefix(normalised, keyword string) int {
	return strings.Count(normalised, " "+strings.TrimSpace(normalise(keyword)))
}
