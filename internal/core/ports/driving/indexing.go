package driving

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// IndexingOrchestrator runs the parse -> chunk -> embed -> index pipeline
type IndexingOrchestrator interface {
	// IndexDocument processes one document end to end, tracking status on
	// the document row. Errors propagate for the worker's retry policy.
	IndexDocument(ctx context.Context, documentID string) (*domain.TaskResult, error)

	// RemoveDocument removes a document's chunks and index entries.
	RemoveDocument(ctx context.Context, documentID string) error
}

// MaintenanceService rescues stranded work: documents whose indexing
// dispatch was lost and tasks abandoned by dead workers.
type MaintenanceService interface {
	// Sweep runs one maintenance pass and reports what it rescued
	Sweep(ctx context.Context) (*domain.SweepResult, error)
}

// Scheduler manages periodic maintenance scheduling
type Scheduler interface {
	// Start begins the scheduler loop
	Start(ctx context.Context) error

	// Stop stops the scheduler
	Stop(ctx context.Context) error

	// RunOnce evaluates due scheduled tasks a single time
	RunOnce(ctx context.Context) error
}
