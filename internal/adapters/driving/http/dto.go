package http

import (
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type queryRequest struct {
	Question    string              `json:"question"`
	Language    string              `json:"language"`
	UserContext *domain.UserContext `json:"userContext,omitempty"`
	Categories  []string            `json:"categories,omitempty"`
	MaxResults  int                 `json:"maxResults,omitempty"`
}

// QueryResponse is the wire form of a QueryResult.
type QueryResponse struct {
	Answer     string                  `json:"answer"`
	Sources    []domain.SourceCitation `json:"sources"`
	Confidence float64                 `json:"confidence"`
	Chunks     []ChunkResponse         `json:"chunks"`
	Provider   string                  `json:"provider,omitempty"`
}

// ChunkResponse is a chunk without its embedding.
type ChunkResponse struct {
	ID         string   `json:"id"`
	DocumentID string   `json:"documentId"`
	Position   int      `json:"position"`
	Content    string   `json:"content"`
	TokenCount int      `json:"tokenCount"`
	Oversized  bool     `json:"oversized,omitempty"`
	Title      string   `json:"title,omitempty"`
	Section    string   `json:"section,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// DocumentResponse is the wire form of a Document.
type DocumentResponse struct {
	ID           string              `json:"id"`
	SourceID     string              `json:"sourceId"`
	Title        string              `json:"title"`
	URL          string              `json:"url"`
	Category     domain.Category     `json:"category"`
	DocumentType domain.DocumentType `json:"documentType"`
	Language     string              `json:"language"`
	Year         int                 `json:"year,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	LawReference string              `json:"lawReference,omitempty"`
	RelevantFor  []string            `json:"relevantFor,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
}

// SourceResponse describes a configured source.
type SourceResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BaseURL  string `json:"baseUrl"`
	Language string `json:"language,omitempty"`
	Pages    int    `json:"pages"`
}

// StatusResponse is the ingestion status of a source.
type StatusResponse struct {
	SourceID           string `json:"sourceId"`
	Running            bool   `json:"running"`
	DocumentsProcessed int    `json:"documentsProcessed"`
	ErrorCount         int    `json:"errorCount"`
}

// NewQueryResponse converts a QueryResult. Sources and chunks are never null.
func NewQueryResponse(r *domain.QueryResult) QueryResponse {
	resp := QueryResponse{
		Answer:     r.Answer,
		Sources:    r.Sources,
		Confidence: r.Confidence,
		Chunks:     NewChunkResponses(r.Chunks),
		Provider:   r.Provider,
	}
	if resp.Sources == nil {
		resp.Sources = []domain.SourceCitation{}
	}
	return resp
}

// NewChunkResponses converts chunks, dropping embeddings.
func NewChunkResponses(chunks []domain.Chunk) []ChunkResponse {
	out := make([]ChunkResponse, 0, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		out = append(out, ChunkResponse{
			ID:         c.ID,
			DocumentID: c.DocumentID,
			Position:   c.Position,
			Content:    c.Content,
			TokenCount: c.TokenCount,
			Oversized:  c.Oversized,
			Title:      c.Metadata.Title,
			Section:    c.Metadata.Section,
			Keywords:   c.Metadata.Keywords,
		})
	}
	return out
}

// NewDocumentResponse converts a Document. Content is left out.
func NewDocumentResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:           d.ID,
		SourceID:     d.SourceID,
		Title:        d.Title,
		URL:          d.SourceURL,
		Category:     d.Metadata.Category,
		DocumentType: d.Metadata.DocumentType,
		Language:     d.Metadata.Language,
		Year:         d.Metadata.Year,
		Tags:         d.Metadata.Tags,
		LawReference: d.Metadata.LawReference,
		RelevantFor:  d.Metadata.RelevantFor,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func newSourceResponse(s *domain.Source) SourceResponse {
	return SourceResponse{
		ID:       s.ID,
		Name:     s.DisplayName(),
		BaseURL:  s.BaseURL,
		Language: s.Language,
		Pages:    len(s.Paths),
	}
}
