package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// MockProjectStore is a mock implementation of ProjectStore for testing
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

// NewMockProjectStore creates a new MockProjectStore
func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{projects: make(map[string]*domain.Project)}
}

func (m *MockProjectStore) Save(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *MockProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	project, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (m *MockProjectStore) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var projects []*domain.Project
	for _, p := range m.projects {
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	if offset >= len(projects) {
		return []*domain.Project{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(projects) {
		end = len(projects)
	}
	return projects[offset:end], nil
}

func (m *MockProjectStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MockProjectStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.projects), nil
}

// Helper methods for testing

func (m *MockProjectStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects = make(map[string]*domain.Project)
}
