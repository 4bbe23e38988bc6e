package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure sweeper implements MaintenanceService
var _ driving.MaintenanceService = (*sweeper)(nil)

const (
	// staleUploadAge is how long a document may sit in uploaded before the
	// sweep assumes its dispatch was lost and re-enqueues it.
	staleUploadAge = 10 * time.Minute

	// staleUploadBatch caps re-dispatches per sweep; the next sweep picks
	// up the rest.
	staleUploadBatch = 100

	// abandonedAfterSeconds is the processing age beyond which an in-flight
	// task is considered orphaned by a dead worker.
	abandonedAfterSeconds = 600

	// purgeAfterSeconds is the retention for completed and failed tasks.
	purgeAfterSeconds = 7 * 24 * 3600
)

// sweeper rescues stranded work. Document dispatch is fire-and-forget, so a
// queue outage at upload time leaves documents in uploaded with no task; a
// worker crash leaves tasks in processing forever. The sweep repairs both.
type sweeper struct {
	documentStore driven.DocumentStore
	queue         driven.TaskQueue
	logger        *slog.Logger
}

// SweeperConfig holds dependencies for the maintenance sweeper.
type SweeperConfig struct {
	DocumentStore driven.DocumentStore
	Queue         driven.TaskQueue
	Logger        *slog.Logger
}

// NewSweeper creates a new MaintenanceService
func NewSweeper(cfg SweeperConfig) driving.MaintenanceService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &sweeper{
		documentStore: cfg.DocumentStore,
		queue:         cfg.Queue,
		logger:        logger,
	}
}

// Sweep runs one maintenance pass and reports what it rescued
func (s *sweeper) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	result := &domain.SweepResult{}

	cutoff := time.Now().Add(-staleUploadAge)
	stale, err := s.documentStore.ListStale(ctx, domain.DocumentStatusUploaded, cutoff, staleUploadBatch)
	if err != nil {
		return nil, fmt.Errorf("list stale documents: %w", err)
	}
	for _, doc := range stale {
		task := domain.NewIndexDocumentTask(doc.ProjectID, doc.ID)
		if err := s.queue.Enqueue(ctx, task); err != nil {
			s.logger.Warn("failed to re-dispatch stale document",
				"document_id", doc.ID, "error", err)
			continue
		}
		s.logger.Info("re-dispatched stale document",
			"document_id", doc.ID, "uploaded_at", doc.UploadedAt)
		result.RedispatchedDocs++
	}

	reclaimed, err := s.queue.ClaimAbandoned(ctx, abandonedAfterSeconds)
	if err != nil {
		s.logger.Warn("failed to reclaim abandoned tasks", "error", err)
	} else {
		result.ReclaimedTasks = reclaimed
	}

	purged, err := s.queue.PurgeTasks(ctx, purgeAfterSeconds)
	if err != nil {
		s.logger.Warn("failed to purge finished tasks", "error", err)
	} else {
		result.PurgedTasks = purged
	}

	if result.RedispatchedDocs > 0 || result.ReclaimedTasks > 0 {
		s.logger.Info("maintenance sweep rescued work",
			"redispatched_docs", result.RedispatchedDocs,
			"reclaimed_tasks", result.ReclaimedTasks,
			"purged_tasks", result.PurgedTasks,
		)
	}

	return result, nil
}
