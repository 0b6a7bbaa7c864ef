package driven

import "context"

// EmbeddingService turns text into vectors for similarity search.
// Chunks are embedded at ingestion and questions at answer time, so both
// sides must come from the same model and dimensionality. Vectors from
// different models never compare.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns exactly one vector per input, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, for example 768 or 1536.
	Dimensions() int
	ModelName() string

	// Ping makes the cheapest request the provider allows.
	Ping(ctx context.Context) error
	Close() error
}
