package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string              `json:"question" jsonschema:"the tax or regulatory question"`
	Language    string              `json:"language,omitempty" jsonschema:"answer language: sr or en (default sr)"`
	Categories  []string            `json:"categories,omitempty" jsonschema:"restrict to categories such as vat, flat-tax, income-tax"`
	MaxResults  int                 `json:"max_results,omitempty" jsonschema:"number of context chunks to retrieve"`
	UserContext *domain.UserContext `json:"user_context,omitempty" jsonschema:"facts about the asking business"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string           `json:"answer"`
	Sources    []CitationOutput `json:"sources"`
	Confidence float64          `json:"confidence"`
	State      string           `json:"state"`
	Provider   string           `json:"provider,omitempty"`
}

// CitationOutput is a cited source document.
type CitationOutput struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Source   string `json:"source"`
	Category string `json:"category"`
	Excerpt  string `json:"excerpt"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question   string   `json:"question" jsonschema:"text to find similar passages for"`
	Categories []string `json:"categories,omitempty" jsonschema:"restrict to these categories"`
	TopK       int      `json:"top_k,omitempty" jsonschema:"maximum number of passages (default from config)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []PassageOutput `json:"results"`
	Count   int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Category   string  `json:"category"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about Serbian taxes and regulations, citing official sources",
	}, s.handleAsk)

	if s.ports.Retrieval != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "retrieve",
			Description: "Find the most relevant passages from official tax documents",
		}, s.handleRetrieve)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	categories, err := domain.ParseCategories(input.Categories)
	if err != nil {
		return nil, AskOutput{}, err
	}

	result, err := s.ports.Answer.Answer(ctx, domain.Query{
		Question:    input.Question,
		Language:    input.Language,
		Categories:  categories,
		MaxResults:  input.MaxResults,
		UserContext: input.UserContext,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     result.Answer,
		Sources:    make([]CitationOutput, len(result.Sources)),
		Confidence: result.Confidence,
		State:      string(result.State),
		Provider:   result.Provider,
	}
	for i, c := range result.Sources {
		output.Sources[i] = CitationOutput{
			Title:    c.Title,
			URL:      c.URL,
			Source:   c.Source,
			Category: string(c.Category),
			Excerpt:  c.Excerpt,
		}
	}
	return nil, output, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, RetrieveOutput{}, ErrMissingRetrievalService
	}
	categories, err := domain.ParseCategories(input.Categories)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	hits, err := s.ports.Retrieval.Retrieve(ctx, input.Question, categories, input.TopK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]PassageOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		h := &hits[i]
		output.Results[i] = PassageOutput{
			DocumentID: h.Document.ID,
			ChunkID:    h.Chunk.ID,
			Title:      h.Document.Title,
			URL:        h.Document.SourceURL,
			Category:   string(h.Document.Metadata.Category),
			Score:      h.Score,
			Content:    h.Chunk.Content,
		}
	}
	return nil, output, nil
}
