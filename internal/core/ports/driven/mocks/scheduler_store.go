package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// MockSchedulerStore is a mock implementation of SchedulerStore for testing
type MockSchedulerStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.ScheduledTask
}

// NewMockSchedulerStore creates a new MockSchedulerStore
func NewMockSchedulerStore() *MockSchedulerStore {
	return &MockSchedulerStore{tasks: make(map[string]*domain.ScheduledTask)}
}

func (m *MockSchedulerStore) GetScheduledTask(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (m *MockSchedulerStore) ListScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var tasks []*domain.ScheduledTask
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (m *MockSchedulerStore) SaveScheduledTask(ctx context.Context, task *domain.ScheduledTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *MockSchedulerStore) DeleteScheduledTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MockSchedulerStore) GetDueScheduledTasks(ctx context.Context) ([]*domain.ScheduledTask, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.ScheduledTask
	for _, t := range m.tasks {
		if t.IsDue() {
			due = append(due, t)
		}
	}
	return due, nil
}

func (m *MockSchedulerStore) UpdateLastRun(ctx context.Context, id string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	now := time.Now()
	task.LastRun = &now
	task.NextRun = now.Add(task.Interval)
	task.LastError = lastError
	return nil
}

// Helper methods for testing

func (m *MockSchedulerStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = make(map[string]*domain.ScheduledTask)
}
