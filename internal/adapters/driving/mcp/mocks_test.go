package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	result *domain.QueryResult
	err    error
	got    domain.Query
}

func (m *mockAnswerService) Answer(_ context.Context, q domain.Query) (*domain.QueryResult, error) {
	m.got = q
	return m.result, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits    []domain.ScoredChunk
	err     error
	gotTopK int
}

func (m *mockRetrievalService) Retrieve(
	_ context.Context,
	_ string,
	_ []domain.Category,
	topK int,
) ([]domain.ScoredChunk, error) {
	m.gotTopK = topK
	return m.hits, m.err
}

// mockSourceService is a mock implementation of driving.SourceService.
type mockSourceService struct {
	sources []domain.Source
	source  *domain.Source
	err     error
}

func (m *mockSourceService) Get(_ context.Context, _ string) (*domain.Source, error) {
	return m.source, m.err
}

func (m *mockSourceService) List(_ context.Context) ([]domain.Source, error) {
	return m.sources, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	chunks    []domain.Chunk
	err       error
}

func (m *mockDocumentService) ListBySource(_ context.Context, _ string) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) ListByCategory(_ context.Context, _ domain.Category) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, m.err
}

var (
	_ driving.AnswerService    = (*mockAnswerService)(nil)
	_ driving.RetrievalService = (*mockRetrievalService)(nil)
	_ driving.SourceService    = (*mockSourceService)(nil)
	_ driving.DocumentService  = (*mockDocumentService)(nil)
)
