package domain

import (
	"fmt"
	"time"
)

// Document represents an ingested source page with classification metadata.
// It is the canonical representation after extraction.
type Document struct {
	// ID is the stable identifier for the document.
	// It is derived from the source and URL and never changes on re-ingestion.
	ID string

	// SourceID links to the Source that produced this document.
	SourceID string

	// Title is the human-readable title.
	Title string

	// SourceURL is the page the document was fetched from.
	SourceURL string

	// Content is the extracted plain text before chunking.
	Content string

	// Metadata holds classification and validity information.
	Metadata DocumentMetadata

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// DocumentMetadata describes what a document is about and when it applies.
type DocumentMetadata struct {
	// Category is the primary subject area.
	Category Category

	// Language is the ISO 639-1 language code of the content.
	Language string

	// Tags are the classification keywords found in the content.
	Tags []string

	// DocumentType is the kind of publication (law, form, faq, ...).
	DocumentType DocumentType

	// Year is the year the document refers to.
	Year int

	// ValidFrom is when the regulation starts to apply, if known.
	ValidFrom *time.Time

	// ValidUntil is when the regulation stops applying, if known.
	ValidUntil *time.Time

	// LawReference is the official gazette citation, if one was found.
	LawReference string

	// RelevantFor lists the business types the document concerns.
	RelevantFor []string
}

// Chunk represents a retrievable unit within a document.
// Documents are split into chunks so retrieval can return focused context.
type Chunk struct {
	// ID is deterministic: {documentId}_chunk_{position}.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Content is the text span of this chunk.
	Content string

	// Position is the 0-based order within the document.
	Position int

	// TokenCount is the estimated token length of Content.
	TokenCount int

	// Oversized is set when a single indivisible unit exceeded the token budget.
	Oversized bool

	// Embedding is the vector representation.
	// A chunk without an embedding is never returned by similarity search.
	Embedding []float32

	// Metadata contains optional descriptive fields.
	Metadata ChunkMetadata
}

// ChunkMetadata holds optional descriptive fields for a chunk.
type ChunkMetadata struct {
	Title       string
	Subtitle    string
	Section     string
	Keywords    []string
	RelevantFor []string
}

// ChunkID builds the deterministic identifier for a chunk.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, position)
}

// HasEmbedding reports whether the chunk can take part in similarity search.
func (c *Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}

// WithoutEmbedding returns a copy of the chunk with the vector removed.
// Used when chunks are returned to callers.
func (c Chunk) WithoutEmbedding() Chunk {
	c.Embedding = nil
	return c
}
