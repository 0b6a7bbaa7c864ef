package driven

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// Extractor turns a fetched page into plain text with classification metadata.
// Text below the minimum length is rejected with *domain.ExtractionError.
type Extractor interface {
	Extract(raw []byte, pageURL string, source domain.Source) (*Extraction, error)
}

// Extraction is the output of an Extractor.
type Extraction struct {
	// Title is the page title.
	Title string

	// Text is the extracted content, paragraphs separated by blank lines.
	Text string

	// Category is the classified subject area.
	Category domain.Category

	// DocumentType is the classified kind of publication.
	DocumentType domain.DocumentType

	// Tags are the classification keywords found in the text.
	Tags []string

	// Year is the year the document refers to.
	Year int

	// LawReference is the official gazette citation, if found.
	LawReference string

	// RelevantFor lists the business types the text concerns.
	RelevantFor []string

	// Language is the source language.
	Language string
}
