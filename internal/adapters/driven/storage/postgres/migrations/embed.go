// Package migrations carries the Postgres schema scripts, including the
// pgvector extension and the chunk vector index.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
