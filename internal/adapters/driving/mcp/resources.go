package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

const (
	uriScheme = "sercha-kb://"

	mimeJSON = "application/json"
	mimeText = "text/plain"
)

type sourceResource struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BaseURL  string `json:"base_url"`
	Language string `json:"language,omitempty"`
	Pages    int    `json:"pages"`
}

type documentResource struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category"`
	Year     int    `json:"year,omitempty"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sources",
		Name:        "sources",
		Description: "Official websites configured as knowledge base sources",
		MIMEType:    mimeJSON,
	}, s.handleSourcesResource)

	templates := []struct {
		tmpl    *mcp.ResourceTemplate
		handler mcp.ResourceHandler
	}{
		{&mcp.ResourceTemplate{
			URITemplate: uriScheme + "sources/{sourceId}/documents",
			Name:        "source-documents",
			Description: "Documents ingested from a specific source",
			MIMEType:    mimeJSON,
		}, s.handleDocumentsResource},
		{&mcp.ResourceTemplate{
			URITemplate: uriScheme + "documents/{documentId}",
			Name:        "document-content",
			Description: "Extracted text of a specific document",
			MIMEType:    mimeText,
		}, s.handleDocumentContentResource},
	}
	for _, t := range templates {
		s.server.AddResourceTemplate(t.tmpl, t.handler)
	}
}

// handleSourcesResource lists the configured sources. Without a source
// service it reports an empty list rather than an error.
func (s *Server) handleSourcesResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out := []sourceResource{}
	if s.ports.Source != nil {
		sources, err := s.ports.Source.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing sources: %w", err)
		}
		for i := range sources {
			src := &sources[i]
			out = append(out, sourceResource{
				ID:       src.ID,
				Name:     src.DisplayName(),
				BaseURL:  src.BaseURL,
				Language: src.Language,
				Pages:    len(src.Paths),
			})
		}
	}
	return jsonResource(req.Params.URI, out)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	sourceID := extractSourceID(uri)
	if s.ports.Document == nil || sourceID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	docs, err := s.ports.Document.ListBySource(ctx, sourceID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, mcp.ResourceNotFoundError(uri)
	case err != nil:
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	out := make([]documentResource, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		out = append(out, documentResource{
			ID:       d.ID,
			Title:    d.Title,
			URL:      d.SourceURL,
			Category: string(d.Metadata.Category),
			Year:     d.Metadata.Year,
		})
	}
	return jsonResource(uri, out)
}

// handleDocumentContentResource returns title, URL and text of one document.
// Documents stored without content are rebuilt from their chunks.
func (s *Server) handleDocumentContentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	docID := extractDocumentID(uri)
	if s.ports.Document == nil || docID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	doc, err := s.ports.Document.Get(ctx, docID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, mcp.ResourceNotFoundError(uri)
	case err != nil:
		return nil, fmt.Errorf("getting document: %w", err)
	}

	body := doc.Content
	if body == "" {
		chunks, err := s.ports.Document.Chunks(ctx, docID)
		if err != nil {
			return nil, fmt.Errorf("getting document chunks: %w", err)
		}
		texts := make([]string, 0, len(chunks))
		for i := range chunks {
			texts = append(texts, chunks[i].Content)
		}
		body = strings.Join(texts, "\n\n")
	}

	var b strings.Builder
	b.WriteString(doc.Title)
	b.WriteByte('\n')
	b.WriteString(doc.SourceURL)
	b.WriteString("\n\n")
	b.WriteString(body)
	return textResource(uri, mimeText, b.String()), nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return textResource(uri, mimeJSON, string(data)), nil
}

func textResource(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}

// between returns the part of uri between prefix and suffix,
// or "" when either is missing.
func between(uri, prefix, suffix string) string {
	rest, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, suffix)
	if !ok {
		return ""
	}
	return id
}

// extractSourceID parses sercha-kb://sources/{sourceId}/documents.
func extractSourceID(uri string) string {
	return between(uri, uriScheme+"sources/", "/documents")
}

// extractDocumentID parses sercha-kb://documents/{documentId}.
func extractDocumentID(uri string) string {
	return between(uri, uriScheme+"documents/", "")
}
