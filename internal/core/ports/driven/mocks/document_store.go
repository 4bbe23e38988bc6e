package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// MockDocumentStore is a mock implementation of DocumentStore for testing
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	byProject map[string][]*domain.Document

	// SaveErr forces the next Save to fail (for failure-path tests)
	SaveErr error
}

// NewMockDocumentStore creates a new MockDocumentStore
func NewMockDocumentStore() *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
		byProject: make(map[string][]*domain.Document),
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		err := m.SaveErr
		m.SaveErr = nil
		return err
	}
	copied := *doc
	m.documents[doc.ID] = &copied

	found := false
	for i, d := range m.byProject[doc.ProjectID] {
		if d.ID == doc.ID {
			m.byProject[doc.ProjectID][i] = &copied
			found = true
			break
		}
	}
	if !found {
		m.byProject[doc.ProjectID] = append(m.byProject[doc.ProjectID], &copied)
	}
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := m.byProject[projectID]
	if offset >= len(docs) {
		return []*domain.Document{}, nil
	}
	end := offset + limit
	if end > len(docs) {
		end = len(docs)
	}
	return docs[offset:end], nil
}

func (m *MockDocumentStore) ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.Status == status {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UploadedAt.Before(docs[j].UploadedAt) })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentStore) ListStale(ctx context.Context, status domain.DocumentStatus, cutoff time.Time, limit int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if doc.Status == status && doc.UpdatedAt.Before(cutoff) {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].UpdatedAt.Before(docs[j].UpdatedAt) })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	delete(m.documents, id)

	docs := m.byProject[doc.ProjectID]
	for i, d := range docs {
		if d.ID == id {
			m.byProject[doc.ProjectID] = append(docs[:i], docs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockDocumentStore) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.byProject[projectID] {
		delete(m.documents, doc.ID)
	}
	delete(m.byProject, projectID)
	return nil
}

func (m *MockDocumentStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents), nil
}

func (m *MockDocumentStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byProject[projectID]), nil
}

func (m *MockDocumentStore) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, doc := range m.documents {
		if doc.Status == status {
			count++
		}
	}
	return count, nil
}

// Helper methods for testing

func (m *MockDocumentStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = make(map[string]*domain.Document)
	m.byProject = make(map[string][]*domain.Document)
}
