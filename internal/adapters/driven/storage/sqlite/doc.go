// Package sqlite is the default on-disk store.
//
// One knowledge.db file under the data directory holds documents, chunks
// with their embeddings, and the scheduler tables. The driver is
// modernc.org/sqlite so the binary builds without cgo. Schema changes are
// numbered scripts in migrations/ applied at open.
//
// Embeddings are little-endian float32 blobs. SearchSimilar scores the
// candidate chunks in Go with cosine similarity; a tax knowledge base stays
// small enough for a linear scan. The database runs in WAL mode so questions
// can be answered while ingestion writes.
package sqlite
