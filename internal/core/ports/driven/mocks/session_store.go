package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// MockSessionStore is a mock implementation of SessionStore for testing
type MockSessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.QASession
	exchanges map[string][]*domain.QAExchange

	// SaveExchangeErr forces the next SaveExchange to fail
	SaveExchangeErr error
}

// NewMockSessionStore creates a new MockSessionStore
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions:  make(map[string]*domain.QASession),
		exchanges: make(map[string][]*domain.QAExchange),
	}
}

func (m *MockSessionStore) SaveSession(ctx context.Context, session *domain.QASession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *MockSessionStore) GetSession(ctx context.Context, id string) (*domain.QASession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionStore) ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sessions []*domain.QASession
	for _, s := range m.sessions {
		if projectID == "" || s.ProjectID == projectID {
			sessions = append(sessions, s)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	if offset >= len(sessions) {
		return []*domain.QASession{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(sessions) {
		end = len(sessions)
	}
	return sessions[offset:end], nil
}

func (m *MockSessionStore) SaveExchange(ctx context.Context, exchange *domain.QAExchange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveExchangeErr != nil {
		err := m.SaveExchangeErr
		m.SaveExchangeErr = nil
		return err
	}
	m.exchanges[exchange.SessionID] = append(m.exchanges[exchange.SessionID], exchange)
	return nil
}

func (m *MockSessionStore) GetExchanges(ctx context.Context, sessionID string) ([]*domain.QAExchange, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exchanges[sessionID], nil
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	delete(m.exchanges, id)
	return nil
}

func (m *MockSessionStore) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.ProjectID == projectID {
			delete(m.sessions, id)
			delete(m.exchanges, id)
		}
	}
	return nil
}

func (m *MockSessionStore) CountSessions(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

// Helper methods for testing

func (m *MockSessionStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*domain.QASession)
	m.exchanges = make(map[string][]*domain.QAExchange)
}
