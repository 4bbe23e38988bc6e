package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// MockTaskQueue is an in-memory TaskQueue for testing. Dequeue pops in FIFO
// order without blocking.
type MockTaskQueue struct {
	mu      sync.Mutex
	pending []*domain.Task
	byID    map[string]*domain.Task

	// EnqueueErr forces the next Enqueue to fail (for best-effort dispatch tests)
	EnqueueErr error

	// ClaimAbandonedResult and PurgedResult script the maintenance returns
	ClaimAbandonedResult int
	PurgedResult         int

	Acked  []string
	Nacked []string
}

// NewMockTaskQueue creates a new MockTaskQueue
func NewMockTaskQueue() *MockTaskQueue {
	return &MockTaskQueue{byID: make(map[string]*domain.Task)}
}

func (m *MockTaskQueue) Enqueue(ctx context.Context, task *domain.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueErr != nil {
		err := m.EnqueueErr
		m.EnqueueErr = nil
		return err
	}
	m.pending = append(m.pending, task)
	m.byID[task.ID] = task
	return nil
}

func (m *MockTaskQueue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := m.Enqueue(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockTaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, nil
	}
	task := m.pending[0]
	m.pending = m.pending[1:]
	task.MarkProcessing()
	return task, nil
}

func (m *MockTaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	return m.Dequeue(ctx)
}

func (m *MockTaskQueue) Ack(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Acked = append(m.Acked, taskID)
	if task, ok := m.byID[taskID]; ok {
		task.MarkCompleted()
	}
	return nil
}

func (m *MockTaskQueue) Nack(ctx context.Context, taskID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Nacked = append(m.Nacked, taskID)
	task, ok := m.byID[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if task.CanRetry() {
		task.Retry(reason)
		m.pending = append(m.pending, task)
	} else {
		task.MarkFailed(reason)
	}
	return nil
}

func (m *MockTaskQueue) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.byID[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (m *MockTaskQueue) ListTasks(ctx context.Context, filter driven.TaskFilter) ([]*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var tasks []*domain.Task
	for _, task := range m.byID {
		if filter.ProjectID != "" && task.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Type != "" && task.Type != filter.Type {
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (m *MockTaskQueue) CancelTask(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.byID[taskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending {
		return domain.ErrInvalidInput
	}
	for i, p := range m.pending {
		if p.ID == taskID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	delete(m.byID, taskID)
	return nil
}

func (m *MockTaskQueue) PurgeTasks(ctx context.Context, olderThan int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PurgedResult, nil
}

func (m *MockTaskQueue) ClaimAbandoned(ctx context.Context, olderThan int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ClaimAbandonedResult, nil
}

func (m *MockTaskQueue) Stats(ctx context.Context) (*driven.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &driven.QueueStats{}
	for _, task := range m.byID {
		switch task.Status {
		case domain.TaskStatusPending:
			stats.PendingCount++
		case domain.TaskStatusProcessing:
			stats.ProcessingCount++
		case domain.TaskStatusCompleted:
			stats.CompletedCount++
		case domain.TaskStatusFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}

func (m *MockTaskQueue) Ping(ctx context.Context) error {
	return nil
}

func (m *MockTaskQueue) Close() error {
	return nil
}

// Helper methods for testing

// PendingCount returns the number of queued tasks.
func (m *MockTaskQueue) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *MockTaskQueue) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	m.byID = make(map[string]*domain.Task)
	m.Acked = nil
	m.Nacked = nil
}
