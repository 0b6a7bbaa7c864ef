// Package domain holds the knowledge base vocabulary.
//
// A Source is an official website with the pages to fetch from it.
// Ingestion turns each page into a Document with tax metadata (category,
// document type, year, law reference) and splits it into Chunks that carry
// embeddings. A Query asks a question and a QueryResult answers it with
// citations back to those chunks.
//
// The package also owns the small pure helpers every layer needs: token
// estimation, cosine similarity, deterministic document and chunk IDs, and
// the error sentinels callers match with errors.Is.
//
// domain imports the standard library only.
package domain
