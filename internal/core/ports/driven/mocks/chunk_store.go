package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// MockChunkStore is a mock implementation of ChunkStore for testing
type MockChunkStore struct {
	mu         sync.RWMutex
	chunks     map[string]*domain.Chunk
	byDocument map[string][]*domain.Chunk

	// SaveBatchErr forces the next SaveBatch to fail
	SaveBatchErr error
}

// NewMockChunkStore creates a new MockChunkStore
func NewMockChunkStore() *MockChunkStore {
	return &MockChunkStore{
		chunks:     make(map[string]*domain.Chunk),
		byDocument: make(map[string][]*domain.Chunk),
	}
}

func (m *MockChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveBatchErr != nil {
		err := m.SaveBatchErr
		m.SaveBatchErr = nil
		return err
	}
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
		found := false
		for i, c := range m.byDocument[chunk.DocumentID] {
			if c.ID == chunk.ID {
				m.byDocument[chunk.DocumentID][i] = chunk
				found = true
				break
			}
		}
		if !found {
			m.byDocument[chunk.DocumentID] = append(m.byDocument[chunk.DocumentID], chunk)
		}
	}
	return nil
}

func (m *MockChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chunks := append([]*domain.Chunk(nil), m.byDocument[documentID]...)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

func (m *MockChunkStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chunk, ok := m.chunks[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(m.chunks, id)

	docs := m.byDocument[chunk.DocumentID]
	for i, c := range docs {
		if c.ID == id {
			m.byDocument[chunk.DocumentID] = append(docs[:i], docs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunk := range m.byDocument[documentID] {
		delete(m.chunks, chunk.ID)
	}
	delete(m.byDocument, documentID)
	return nil
}

func (m *MockChunkStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func (m *MockChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byDocument[documentID]), nil
}

// Helper methods for testing

func (m *MockChunkStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = make(map[string]*domain.Chunk)
	m.byDocument = make(map[string][]*domain.Chunk)
}
