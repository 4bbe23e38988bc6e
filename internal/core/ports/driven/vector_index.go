package driven

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// IndexEntry is one chunk prepared for insertion into the similarity index.
type IndexEntry struct {
	// ID is the external index id (chunk_<chunkID> by convention).
	ID string

	// Content is the chunk text stored alongside the vector.
	Content string

	// Embedding is the precomputed vector for the content.
	Embedding []float32

	// Metadata is the provenance recovered verbatim at query time.
	Metadata domain.ChunkMetadata
}

// QueryMatch is one raw similarity result before normalization into a
// domain.Context.
type QueryMatch struct {
	ID       string
	Content  string
	Metadata domain.ChunkMetadata

	// Distance is the index's cosine distance; nil when the index does not
	// supply one.
	Distance *float64
}

// QueryFilter restricts a similarity query by metadata equality.
type QueryFilter struct {
	ProjectID  string
	DocumentID string
}

// VectorIndex handles vector similarity search (Chroma).
// The index owns query-time embedding: Query takes text and embeds it with
// the same model used at insertion, keeping both sides in one metric space.
type VectorIndex interface {
	// Add inserts entries into the index.
	Add(ctx context.Context, entries []IndexEntry) error

	// Query returns up to k matches for the text, most similar first.
	// Returns an empty slice, not an error, when nothing matches.
	Query(ctx context.Context, text string, k int, filter *QueryFilter) ([]QueryMatch, error)

	// Delete removes entries by id.
	Delete(ctx context.Context, ids []string) error

	// DeleteByDocument removes all entries for a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// DeleteByProject removes all entries for a project.
	DeleteByProject(ctx context.Context, projectID string) error

	// Count returns the number of entries in the index.
	Count(ctx context.Context) (int, error)

	// HealthCheck verifies the index is available.
	HealthCheck(ctx context.Context) error
}
