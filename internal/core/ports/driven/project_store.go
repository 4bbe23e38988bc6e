package driven

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// ProjectStore handles project persistence (PostgreSQL)
type ProjectStore interface {
	// Save creates or updates a project
	Save(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*domain.Project, error)

	// List retrieves all projects, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Project, error)

	// Delete deletes a project
	Delete(ctx context.Context, id string) error

	// Count returns the total project count
	Count(ctx context.Context) (int, error)
}
