package driven

import (
	"context"
)

// EmbeddingService turns text into vectors. Chunks at indexing time and
// questions at query time must go through the same implementation so both
// sides live in one metric space.
type EmbeddingService interface {
	// Embed generates embeddings for a batch of chunk texts
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a question.
	// May use different model/parameters optimized for queries
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Dimensions returns the embedding dimension size
	Dimensions() int

	// Model returns the model name being used
	Model() string

	// HealthCheck verifies the embedding backend is reachable
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the embedding service
	Close() error
}
