// Package postgres provides a DocumentStore backed by PostgreSQL with pgvector.
//
// Embeddings live in an untyped vector column and are compared with the
// cosine distance operator; search is exact with no ANN index.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.DocumentStore = (*Store)(nil)

// Store is a pgvector-backed document store.
type Store struct {
	pool *pgxpool.Pool
}

// New migrates the schema and opens a connection pool.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	if err := Migrate(dsn); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

const documentColumns = `d.id, d.source_id, d.source_url, d.title, d.content, d.metadata, d.created_at, d.updated_at`

const chunkColumns = `c.id, c.document_id, c.content, c.position, c.token_count, c.oversized, c.embedding::text, c.metadata`

// PutDocument stores or updates a document. created_at is never overwritten.
func (s *Store) PutDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return &domain.StoreError{Op: "put document", Err: domain.ErrInvalidInput}
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return &domain.StoreError{Op: "put document", Err: err}
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO kb_documents (id, source_id, source_url, title, content, category, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			source_url = EXCLUDED.source_url,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.SourceID, doc.SourceURL, doc.Title, doc.Content,
		string(doc.Metadata.Category), metadata, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return &domain.StoreError{Op: "put document", Err: err}
	}
	return nil
}

// PutChunk stores or updates a single chunk.
func (s *Store) PutChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.PutChunks(ctx, []domain.Chunk{chunk})
}

// PutChunks stores or updates chunks in one transaction.
func (s *Store) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range chunks {
			metadata, err := json.Marshal(c.Metadata)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO kb_chunks (id, document_id, content, position, token_count, oversized, embedding, metadata)
				VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8)
				ON CONFLICT (id) DO UPDATE SET
					document_id = EXCLUDED.document_id,
					content = EXCLUDED.content,
					position = EXCLUDED.position,
					token_count = EXCLUDED.token_count,
					oversized = EXCLUDED.oversized,
					embedding = EXCLUDED.embedding,
					metadata = EXCLUDED.metadata
			`, c.ID, c.DocumentID, c.Content, c.Position, c.TokenCount, c.Oversized,
				encodeVectorLiteral(c.Embedding), metadata)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return &domain.StoreError{Op: "put chunks", Err: err}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM kb_documents d WHERE d.id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "get document", Err: err}
	}
	return doc, nil
}

// ListBySource returns a source's documents ordered by URL.
func (s *Store) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	return s.listDocuments(ctx, "list by source", `d.source_id = $1`, sourceID)
}

// ListByCategory returns a category's documents ordered by URL.
func (s *Store) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Document, error) {
	return s.listDocuments(ctx, "list by category", `d.category = $1`, string(category))
}

func (s *Store) listDocuments(ctx context.Context, op, where string, arg any) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+documentColumns+` FROM kb_documents d WHERE `+where+` ORDER BY d.source_url, d.id`, arg)
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: op, Err: err}
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	return docs, nil
}

// ListChunks returns a document's chunks ordered by position.
func (s *Store) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+chunkColumns+` FROM kb_chunks c WHERE c.document_id = $1 ORDER BY c.position`, documentID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list chunks", Err: err}
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "list chunks", Err: err}
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "list chunks", Err: err}
	}
	return chunks, nil
}

// SearchSimilar ranks chunks by cosine similarity, computed as 1 - (embedding <=> query).
func (s *Store) SearchSimilar(
	ctx context.Context,
	vector []float32,
	q domain.SimilarityQuery,
) ([]domain.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, &domain.StoreError{Op: "search", Err: domain.ErrInvalidInput}
	}
	q = q.Normalize()

	query, args := similarityQuery(vector, q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "search", Err: err}
	}
	defer rows.Close()

	var hits []domain.ScoredChunk
	for rows.Next() {
		hit, err := scanScoredChunk(rows)
		if err != nil {
			return nil, &domain.StoreError{Op: "search", Err: err}
		}
		hits = append(hits, *hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "search", Err: err}
	}
	// Re-rank so float ties order identically across adapters.
	return domain.RankScored(hits, q), nil
}

// similarityQuery builds the search statement for a normalized query.
// The distance operator rejects mismatched dimensions, so candidates are
// filtered by vector_dims in a materialized CTE the planner cannot merge
// into the scoring query.
func similarityQuery(vector []float32, q domain.SimilarityQuery) (string, []any) {
	args := []any{encodeVectorLiteral(vector), len(vector)}
	query := `
		WITH candidates AS MATERIALIZED (
			SELECT id, embedding FROM kb_chunks
			WHERE embedding IS NOT NULL AND vector_dims(embedding) = $2
		)
		SELECT ` + chunkColumns + `, ` + documentColumns + `, 1 - (m.embedding <=> $1::vector) AS score
		FROM candidates m
		JOIN kb_chunks c ON c.id = m.id
		JOIN kb_documents d ON d.id = c.document_id
		WHERE TRUE`
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, c := range q.Categories {
			cats[i] = string(c)
		}
		args = append(args, cats)
		query += fmt.Sprintf(` AND d.category = ANY($%d)`, len(args))
	}
	args = append(args, q.MinScore, q.TopK)
	query += fmt.Sprintf(`
		AND 1 - (m.embedding <=> $1::vector) >= $%d
		ORDER BY m.embedding <=> $1::vector, c.id
		LIMIT $%d`, len(args)-1, len(args))
	return query, args
}

// PruneChunks removes a document's chunks at positions >= keep.
func (s *Store) PruneChunks(ctx context.Context, documentID string, keep int) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kb_chunks WHERE document_id = $1 AND position >= $2`, documentID, keep)
	if err != nil {
		return &domain.StoreError{Op: "prune chunks", Err: err}
	}
	return nil
}

// DeleteSource removes a source's documents; chunks cascade.
func (s *Store) DeleteSource(ctx context.Context, sourceID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM kb_documents WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, &domain.StoreError{Op: "delete source", Err: err}
	}
	return int(tag.RowsAffected()), nil
}

// Stats returns document and chunk counts.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var stats domain.StoreStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM kb_documents),
			(SELECT COUNT(*) FROM kb_chunks),
			(SELECT COUNT(*) FROM kb_chunks WHERE embedding IS NOT NULL)
	`).Scan(&stats.Documents, &stats.Chunks, &stats.EmbeddedChunks)
	if err != nil {
		return domain.StoreStats{}, &domain.StoreError{Op: "stats", Err: err}
	}
	return stats, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var metadata []byte
	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.SourceURL, &doc.Title, &doc.Content,
		&metadata, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal document metadata: %w", err)
	}
	return &doc, nil
}

func scanChunk(row pgx.Row) (*domain.Chunk, error) {
	var c domain.Chunk
	var embedding *string
	var metadata []byte
	if err := row.Scan(&c.ID, &c.DocumentID, &c.Content, &c.Position, &c.TokenCount,
		&c.Oversized, &embedding, &metadata); err != nil {
		return nil, err
	}
	return &c, finishChunk(&c, embedding, metadata)
}

func scanScoredChunk(row pgx.Row) (*domain.ScoredChunk, error) {
	var hit domain.ScoredChunk
	var embedding *string
	var chunkMeta, docMeta []byte
	if err := row.Scan(
		&hit.Chunk.ID, &hit.Chunk.DocumentID, &hit.Chunk.Content, &hit.Chunk.Position,
		&hit.Chunk.TokenCount, &hit.Chunk.Oversized, &embedding, &chunkMeta,
		&hit.Document.ID, &hit.Document.SourceID, &hit.Document.SourceURL, &hit.Document.Title,
		&hit.Document.Content, &docMeta, &hit.Document.CreatedAt, &hit.Document.UpdatedAt,
		&hit.Score,
	); err != nil {
		return nil, err
	}
	if err := finishChunk(&hit.Chunk, embedding, chunkMeta); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docMeta, &hit.Document.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal document metadata: %w", err)
	}
	return &hit, nil
}

func finishChunk(c *domain.Chunk, embedding *string, metadata []byte) error {
	if embedding != nil {
		vec, err := decodeVectorLiteral(*embedding)
		if err != nil {
			return err
		}
		c.Embedding = vec
	}
	if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
		return fmt.Errorf("unmarshal chunk metadata: %w", err)
	}
	return nil
}

// encodeVectorLiteral renders a pgvector text literal, or nil for no embedding.
func encodeVectorLiteral(vec []float32) any {
	if len(vec) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func decodeVectorLiteral(lit string) ([]float32, error) {
	lit = strings.TrimSpace(lit)
	lit = strings.TrimSuffix(strings.TrimPrefix(lit, "["), "]")
	if lit == "" {
		return nil, nil
	}
	parts := strings.Split(lit, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("parse vector value %q: %w", part, err)
		}
		vec = append(vec, float32(f))
	}
	return vec, nil
}
