package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// MockVectorIndex is a mock implementation of VectorIndex for testing.
// Entries are kept in insertion order; Query matches by metadata filter and
// fabricates increasing distances (0.1, 0.2, ...) unless scripted results
// are set.
type MockVectorIndex struct {
	mu      sync.RWMutex
	entries []driven.IndexEntry

	// QueryResults, when set, is returned verbatim by Query.
	QueryResults []driven.QueryMatch

	// Errors to inject per operation
	AddErr    error
	QueryErr  error
	DeleteErr error

	// Call recording
	AddCalls    int
	QueryCalls  int
	LastQuery   string
	LastK       int
	LastFilter  *driven.QueryFilter
	DeletedIDs  []string
	DeletedDocs []string

	// DeletedProjects records DeleteByProject calls
	DeletedProjects []string
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) Add(ctx context.Context, entries []driven.IndexEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	if m.AddErr != nil {
		err := m.AddErr
		m.AddErr = nil
		return err
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *MockVectorIndex) Query(ctx context.Context, text string, k int, filter *driven.QueryFilter) ([]driven.QueryMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QueryCalls++
	m.LastQuery = text
	m.LastK = k
	m.LastFilter = filter
	if m.QueryErr != nil {
		err := m.QueryErr
		m.QueryErr = nil
		return nil, err
	}
	if m.QueryResults != nil {
		if len(m.QueryResults) > k {
			return m.QueryResults[:k], nil
		}
		return m.QueryResults, nil
	}

	matches := []driven.QueryMatch{}
	for _, entry := range m.entries {
		if !matchesFilter(entry.Metadata, filter) {
			continue
		}
		d := 0.1 * float64(len(matches)+1)
		matches = append(matches, driven.QueryMatch{
			ID:       entry.ID,
			Content:  entry.Content,
			Metadata: entry.Metadata,
			Distance: &d,
		})
		if len(matches) == k {
			break
		}
	}
	return matches, nil
}

func matchesFilter(meta domain.ChunkMetadata, filter *driven.QueryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.ProjectID != "" && meta.ProjectID != filter.ProjectID {
		return false
	}
	if filter.DocumentID != "" && meta.DocumentID != filter.DocumentID {
		return false
	}
	return true
}

func (m *MockVectorIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		err := m.DeleteErr
		m.DeleteErr = nil
		return err
	}
	m.DeletedIDs = append(m.DeletedIDs, ids...)
	for _, id := range ids {
		for i, entry := range m.entries {
			if entry.ID == id {
				m.entries = append(m.entries[:i], m.entries[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		err := m.DeleteErr
		m.DeleteErr = nil
		return err
	}
	m.DeletedDocs = append(m.DeletedDocs, documentID)
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.Metadata.DocumentID != documentID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}

func (m *MockVectorIndex) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		err := m.DeleteErr
		m.DeleteErr = nil
		return err
	}
	m.DeletedProjects = append(m.DeletedProjects, projectID)
	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.Metadata.ProjectID != projectID {
			kept = append(kept, entry)
		}
	}
	m.entries = kept
	return nil
}

func (m *MockVectorIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Entries returns a copy of the stored entries.
func (m *MockVectorIndex) Entries() []driven.IndexEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]driven.IndexEntry(nil), m.entries...)
}

func (m *MockVectorIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.QueryResults = nil
	m.DeletedIDs = nil
	m.DeletedDocs = nil
	m.DeletedProjects = nil
}
