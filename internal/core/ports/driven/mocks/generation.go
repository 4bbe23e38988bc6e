package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// MockGenerationService is a mock implementation of GenerationService for
// testing. Responses are scripted in order; when the script runs out, the
// last response repeats.
type MockGenerationService struct {
	mu        sync.Mutex
	responses []string
	next      int

	// CompleteErr, when set, is returned by the next Complete call.
	CompleteErr error

	// PingErr, when set, is returned by Ping.
	PingErr error

	// LastRequest records the most recent completion request.
	LastRequest driven.CompletionRequest

	calls int
}

// NewMockGenerationService creates a mock that returns the given responses
// in order.
func NewMockGenerationService(responses ...string) *MockGenerationService {
	if len(responses) == 0 {
		responses = []string{"mock answer"}
	}
	return &MockGenerationService{responses: responses}
}

func (m *MockGenerationService) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.LastRequest = req
	if m.CompleteErr != nil {
		err := m.CompleteErr
		m.CompleteErr = nil
		return "", err
	}
	resp := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	return resp, nil
}

func (m *MockGenerationService) Model() string {
	return "mock-generation-model"
}

func (m *MockGenerationService) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockGenerationService) Close() error {
	return nil
}

// SetResponses replaces the scripted responses and restarts the script.
func (m *MockGenerationService) SetResponses(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(responses) == 0 {
		responses = []string{"mock answer"}
	}
	m.responses = responses
	m.next = 0
}

// Calls returns how many Complete calls were made.
func (m *MockGenerationService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
