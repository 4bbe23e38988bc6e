package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
	"github.com/custodia-labs/veridoc-core/internal/core/services"
	"github.com/custodia-labs/veridoc-core/internal/metrics"
)

// Worker processes tasks from the task queue: indexing runs for single
// documents and periodic maintenance sweeps. One task maps to one handler
// invocation; retry scheduling lives in the queue's Nack.
type Worker struct {
	taskQueue    driven.TaskQueue
	orchestrator driving.IndexingOrchestrator
	sweeper      driving.MaintenanceService
	scheduler    *services.Scheduler
	logger       *slog.Logger

	// Configuration
	concurrency    int
	dequeueTimeout int // seconds

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WorkerConfig holds configuration for the worker.
type WorkerConfig struct {
	TaskQueue      driven.TaskQueue
	Orchestrator   driving.IndexingOrchestrator
	Sweeper        driving.MaintenanceService
	Scheduler      *services.Scheduler
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// NewWorker creates a new task worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		taskQueue:      cfg.TaskQueue,
		orchestrator:   cfg.Orchestrator,
		sweeper:        cfg.Sweeper,
		scheduler:      cfg.Scheduler,
		logger:         logger,
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	// Start the scheduler if provided
	if w.scheduler != nil {
		if err := w.scheduler.Start(ctx); err != nil {
			w.logger.Error("failed to start scheduler", "error", err)
		}
	}

	// Start worker goroutines
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	// Wait for all workers to finish
	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	// Stop the scheduler
	if w.scheduler != nil {
		_ = w.scheduler.Stop(context.Background())
	}

	// Wait for workers to finish
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Info("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Info("worker stop signal received")
			return
		default:
		}

		// Dequeue a task with timeout
		task, err := w.taskQueue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			w.observeQueueDepth(ctx)
			continue
		}

		// Process the task
		w.processTask(ctx, task, logger)
	}
}

// processTask processes a single task.
func (w *Worker) processTask(ctx context.Context, task *domain.Task, logger *slog.Logger) {
	logger = logger.With("task_id", task.ID, "task_type", task.Type, "project_id", task.ProjectID)
	logger.Info("processing task")

	startTime := time.Now()
	var err error

	switch task.Type {
	case domain.TaskTypeIndexDocument:
		err = w.handleIndexDocument(ctx, task)
	case domain.TaskTypeSweep:
		err = w.handleSweep(ctx, task)
	default:
		err = fmt.Errorf("unknown task type: %s", task.Type)
	}

	duration := time.Since(startTime)
	metrics.TaskDuration.WithLabelValues(string(task.Type)).Observe(duration.Seconds())

	if err != nil {
		metrics.TasksProcessed.WithLabelValues(string(task.Type), "failed").Inc()
		logger.Error("task failed",
			"duration", duration,
			"attempt", task.Attempts,
			"error", err,
		)

		// Nack the task so it can be retried
		if nackErr := w.taskQueue.Nack(ctx, task.ID, err.Error()); nackErr != nil {
			logger.Error("failed to nack task", "nack_error", nackErr)
		}
		return
	}

	metrics.TasksProcessed.WithLabelValues(string(task.Type), "completed").Inc()
	logger.Info("task completed", "duration", duration)

	// Ack the task
	if ackErr := w.taskQueue.Ack(ctx, task.ID); ackErr != nil {
		logger.Error("failed to ack task", "ack_error", ackErr)
	}
}

// handleIndexDocument runs the indexing pipeline for one document.
func (w *Worker) handleIndexDocument(ctx context.Context, task *domain.Task) error {
	documentID := task.DocumentID()
	if documentID == "" {
		return fmt.Errorf("document_id not found in task payload")
	}

	result, err := w.orchestrator.IndexDocument(ctx, documentID)
	if err != nil {
		metrics.DocumentsIndexed.WithLabelValues("failed").Inc()
		return err
	}

	metrics.DocumentsIndexed.WithLabelValues("indexed").Inc()
	metrics.ChunksCreated.Add(float64(result.ChunksCount))

	w.logger.Info("document indexed",
		"document_id", documentID,
		"chunks", result.ChunksCount,
		"pages", result.PagesCount,
	)
	return nil
}

// handleSweep runs one maintenance pass.
func (w *Worker) handleSweep(ctx context.Context, task *domain.Task) error {
	result, err := w.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	if result.RedispatchedDocs > 0 || result.ReclaimedTasks > 0 {
		w.logger.Info("sweep rescued work",
			"redispatched_docs", result.RedispatchedDocs,
			"reclaimed_tasks", result.ReclaimedTasks,
			"purged_tasks", result.PurgedTasks,
		)
	}
	return nil
}

// observeQueueDepth refreshes the backlog gauge on idle polls.
func (w *Worker) observeQueueDepth(ctx context.Context) {
	stats, err := w.taskQueue.Stats(ctx)
	if err != nil {
		return
	}
	metrics.QueueDepth.Set(float64(stats.PendingCount))
}

// Health returns health status of the worker.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	// Check queue health
	if err := w.taskQueue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
