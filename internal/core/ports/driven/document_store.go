package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByProject retrieves all documents for a project with pagination
	GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)

	// ListByStatus retrieves documents in a given status, oldest first
	ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]*domain.Document, error)

	// ListStale retrieves documents stuck in a status since before the cutoff
	ListStale(ctx context.Context, status domain.DocumentStatus, cutoff time.Time, limit int) ([]*domain.Document, error)

	// Delete deletes a document
	Delete(ctx context.Context, id string) error

	// DeleteByProject deletes all documents for a project
	DeleteByProject(ctx context.Context, projectID string) error

	// Count returns total document count
	Count(ctx context.Context) (int, error)

	// CountByProject returns document count for a project
	CountByProject(ctx context.Context, projectID string) (int, error)

	// CountByStatus returns document count for a status
	CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error)
}

// ChunkStore handles chunk persistence (PostgreSQL)
type ChunkStore interface {
	// SaveBatch saves a document's chunks in a single transaction
	SaveBatch(ctx context.Context, chunks []*domain.Chunk) error

	// GetByDocument retrieves all chunks for a document in chunk-index order
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error)

	// Delete deletes a chunk
	Delete(ctx context.Context, id string) error

	// DeleteByDocument deletes all chunks for a document
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns total chunk count
	Count(ctx context.Context) (int, error)

	// CountByDocument returns chunk count for a document
	CountByDocument(ctx context.Context, documentID string) (int, error)
}
