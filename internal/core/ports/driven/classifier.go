package driven

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// Classifier assigns classification metadata to extracted text.
// The keyword classifier is the default; a model-based one can replace it.
type Classifier interface {
	// Category returns the primary subject area of the text.
	Category(text, pageURL string) domain.Category

	// DocumentType returns the kind of publication.
	DocumentType(text, pageURL string) domain.DocumentType

	// Tags returns the classification keywords present in the text.
	Tags(text string) []string

	// RelevantFor returns the business types the text concerns.
	RelevantFor(text string) []string
}
