package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// documentStore keeps documents and chunks. Metadata is stored as JSON;
// category is duplicated into its own column so it can be filtered and indexed.
type documentStore struct {
	db *sql.DB
}

var _ driven.DocumentStore = (*documentStore)(nil)

const (
	docCols   = `d.id, d.source_id, d.source_url, d.title, d.content, d.metadata, d.created_at, d.updated_at`
	chunkCols = `c.id, c.document_id, c.content, c.position, c.token_count, c.oversized, c.embedding, c.metadata`

	// created_at is left out of the update so re-ingestion keeps it.
	upsertDocument = `INSERT INTO documents
			(id, source_id, source_url, title, content, category, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			source_url = excluded.source_url,
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`

	upsertChunk = `INSERT INTO chunks
			(id, document_id, content, position, token_count, oversized, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			position = excluded.position,
			token_count = excluded.token_count,
			oversized = excluded.oversized,
			embedding = excluded.embedding,
			metadata = excluded.metadata`
)

func (s *documentStore) PutDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return &domain.StoreError{Op: "put document", Err: domain.ErrInvalidInput}
	}
	meta, err := json.Marshal(doc.Metadata)
	if err != nil {
		return &domain.StoreError{Op: "put document", Err: err}
	}
	_, err = s.db.ExecContext(ctx, upsertDocument,
		doc.ID, doc.SourceID, doc.SourceURL, doc.Title, doc.Content,
		string(doc.Metadata.Category), string(meta), doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return &domain.StoreError{Op: "put document", Err: err}
	}
	return nil
}

func (s *documentStore) PutChunk(ctx context.Context, chunk domain.Chunk) error {
	return s.PutChunks(ctx, []domain.Chunk{chunk})
}

// PutChunks writes all chunks or none. A chunk whose document does not
// exist fails the foreign key and rolls the batch back.
func (s *documentStore) PutChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertChunk)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range chunks {
			c := &chunks[i]
			meta, err := json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", c.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Content, c.Position,
				c.TokenCount, c.Oversized, encodeVector(c.Embedding), string(meta)); err != nil {
				return fmt.Errorf("chunk %s: %w", c.ID, err)
			}
		}
		return nil
	}); err != nil {
		return &domain.StoreError{Op: "put chunks", Err: err}
	}
	return nil
}

func (s *documentStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, `SELECT `+docCols+` FROM documents d WHERE d.id = ?`, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, &domain.StoreError{Op: "get document", Err: err}
	}
	return &doc, nil
}

func (s *documentStore) ListBySource(ctx context.Context, sourceID string) ([]domain.Document, error) {
	return s.documents(ctx, "list by source", `d.source_id = ?`, sourceID)
}

func (s *documentStore) ListByCategory(ctx context.Context, category domain.Category) ([]domain.Document, error) {
	return s.documents(ctx, "list by category", `d.category = ?`, string(category))
}

// documents lists matching documents ordered by URL.
func (s *documentStore) documents(ctx context.Context, op, where string, arg any) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+docCols+` FROM documents d WHERE `+where+` ORDER BY d.source_url, d.id`, arg)
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	docs, err := collect(rows, scanDocument)
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	return docs, nil
}

// ListChunks returns chunks in position order.
func (s *documentStore) ListChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+chunkCols+` FROM chunks c WHERE c.document_id = ? ORDER BY c.position`, documentID)
	if err != nil {
		return nil, &domain.StoreError{Op: "list chunks", Err: err}
	}
	chunks, err := collect(rows, scanChunk)
	if err != nil {
		return nil, &domain.StoreError{Op: "list chunks", Err: err}
	}
	return chunks, nil
}

// SearchSimilar scores embedded chunks in Go. Only vectors with the query's
// dimensionality are loaded: the blob holds four bytes per dimension.
func (s *documentStore) SearchSimilar(ctx context.Context, vector []float32, q domain.SimilarityQuery) ([]domain.ScoredChunk, error) {
	if len(vector) == 0 {
		return nil, &domain.StoreError{Op: "search", Err: domain.ErrInvalidInput}
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + chunkCols + `, ` + docCols + `
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL AND length(c.embedding) = ?`)
	args := []any{len(vector) * 4}
	if n := len(q.Categories); n > 0 {
		b.WriteString(` AND d.category IN (?` + strings.Repeat(`, ?`, n-1) + `)`)
		for _, c := range q.Categories {
			args = append(args, string(c))
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, &domain.StoreError{Op: "search", Err: err}
	}
	hits, err := collect(rows, scanHit)
	if err != nil {
		return nil, &domain.StoreError{Op: "search", Err: err}
	}

	kept := hits[:0]
	for _, h := range hits {
		if q.Accepts(vector, h.Chunk.Embedding) {
			h.Score = domain.CosineSimilarity(vector, h.Chunk.Embedding)
			kept = append(kept, h)
		}
	}
	return domain.RankScored(kept, q), nil
}

// PruneChunks drops chunks at position keep and beyond.
func (s *documentStore) PruneChunks(ctx context.Context, documentID string, keep int) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE document_id = ? AND position >= ?`, documentID, keep); err != nil {
		return &domain.StoreError{Op: "prune chunks", Err: err}
	}
	return nil
}

// DeleteSource removes a source's documents; their chunks go by cascade.
func (s *documentStore) DeleteSource(ctx context.Context, sourceID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE source_id = ?`, sourceID)
	if err != nil {
		return 0, &domain.StoreError{Op: "delete source", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.StoreError{Op: "delete source", Err: err}
	}
	return int(n), nil
}

func (s *documentStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	var st domain.StoreStats
	if err := s.db.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks),
			(SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL)`,
	).Scan(&st.Documents, &st.Chunks, &st.EmbeddedChunks); err != nil {
		return domain.StoreStats{}, &domain.StoreError{Op: "stats", Err: err}
	}
	return st, nil
}

// Close does nothing; Store.Close releases the connection.
func (s *documentStore) Close() error { return nil }

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// jsonColumn decodes a JSON text column into v. Empty text leaves v untouched.
type jsonColumn struct{ v any }

func (j jsonColumn) Scan(src any) error {
	var raw []byte
	switch t := src.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		return fmt.Errorf("json column: cannot scan %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, j.v)
}

func documentDest(d *domain.Document) []any {
	return []any{&d.ID, &d.SourceID, &d.SourceURL, &d.Title, &d.Content,
		jsonColumn{&d.Metadata}, &d.CreatedAt, &d.UpdatedAt}
}

func chunkDest(c *domain.Chunk, blob *[]byte) []any {
	return []any{&c.ID, &c.DocumentID, &c.Content, &c.Position,
		&c.TokenCount, &c.Oversized, blob, jsonColumn{&c.Metadata}}
}

func scanDocument(row scanner) (domain.Document, error) {
	var d domain.Document
	err := row.Scan(documentDest(&d)...)
	return d, err
}

func scanChunk(row scanner) (domain.Chunk, error) {
	var (
		c    domain.Chunk
		blob []byte
	)
	if err := row.Scan(chunkDest(&c, &blob)...); err != nil {
		return c, err
	}
	c.Embedding = decodeVector(blob)
	return c, nil
}

func scanHit(row scanner) (domain.ScoredChunk, error) {
	var (
		h    domain.ScoredChunk
		blob []byte
	)
	if err := row.Scan(append(chunkDest(&h.Chunk, &blob), documentDest(&h.Document)...)...); err != nil {
		return h, err
	}
	h.Chunk.Embedding = decodeVector(blob)
	return h, nil
}

// encodeVector packs v as little-endian float32s. An empty vector is NULL.
func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, 0, 4*len(v))
	for _, f := range v {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
