package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// MockExtractor is a mock implementation of Extractor for testing. By
// default it returns the document's raw text as a single page.
type MockExtractor struct {
	mu sync.Mutex

	// Result, when set, is returned instead of the single-page default.
	Result *driven.ExtractedDocument

	// ExtractErr forces Extract to fail.
	ExtractErr error

	calls int
}

// NewMockExtractor creates a new MockExtractor
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

func (m *MockExtractor) Extract(ctx context.Context, doc *domain.Document) (*driven.ExtractedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.ExtractErr != nil {
		return nil, m.ExtractErr
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &driven.ExtractedDocument{
		Text: doc.RawText,
		Pages: []driven.ExtractedPage{
			{PageNumber: 1, Text: doc.RawText, CharStart: 0, CharEnd: len(doc.RawText)},
		},
		Metadata: driven.ExtractedMetadata{PageCount: 1},
	}, nil
}

func (m *MockExtractor) SupportedTypes() []string {
	return []string{"text/plain"}
}

func (m *MockExtractor) Name() string {
	return "mock"
}

// Calls returns how many Extract calls were made.
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockExtractorRegistry resolves every content type to one extractor, or
// fails when GetErr is set.
type MockExtractorRegistry struct {
	Extractor driven.Extractor
	GetErr    error
}

// NewMockExtractorRegistry creates a registry serving the given extractor.
func NewMockExtractorRegistry(e driven.Extractor) *MockExtractorRegistry {
	return &MockExtractorRegistry{Extractor: e}
}

func (m *MockExtractorRegistry) Get(contentType string) (driven.Extractor, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Extractor, nil
}

func (m *MockExtractorRegistry) Register(extractor driven.Extractor) {
	m.Extractor = extractor
}

func (m *MockExtractorRegistry) List() []string {
	if m.Extractor == nil {
		return nil
	}
	return m.Extractor.SupportedTypes()
}
