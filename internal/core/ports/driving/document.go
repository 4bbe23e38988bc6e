package driving

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// CreateDocumentRequest registers a document for indexing
type CreateDocumentRequest struct {
	ProjectID   string `json:"project_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Text        string `json:"text"`
}

// DocumentService manages the document lifecycle
type DocumentService interface {
	// Create registers a document and dispatches an indexing job.
	// Dispatch is best-effort: an enqueue failure is logged, never returned.
	Create(ctx context.Context, req CreateDocumentRequest) (*domain.Document, error)

	// Get retrieves a document by ID
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithChunks retrieves a document with its chunks
	GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error)

	// GetByProject retrieves all documents for a project
	GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)

	// Delete removes a document, its chunks, and its index entries
	Delete(ctx context.Context, id string) error

	// Reindex re-dispatches indexing for a failed or uploaded document.
	// Returns domain.ErrAlreadyProcessing while a run is active.
	Reindex(ctx context.Context, id string) error

	// Stats summarizes the indexed corpus
	Stats(ctx context.Context) (*domain.CollectionStats, error)
}

// ProjectService manages projects
type ProjectService interface {
	// Create creates a project
	Create(ctx context.Context, name, description string) (*domain.Project, error)

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*domain.Project, error)

	// List retrieves all projects
	List(ctx context.Context, limit, offset int) ([]*domain.Project, error)

	// Delete removes a project and cascades to its documents, chunks,
	// sessions, and index entries
	Delete(ctx context.Context, id string) error
}

// ExportService renders a project's corpus for downstream consumers
type ExportService interface {
	// Export renders the project in the requested format
	Export(ctx context.Context, projectID string, format domain.ExportFormat) (string, error)
}
