package extractors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Mock extractor for testing
type mockExtractor struct {
	name  string
	types []string
}

func (m *mockExtractor) Extract(_ context.Context, doc *domain.Document) (*driven.ExtractedDocument, error) {
	return &driven.ExtractedDocument{Text: doc.RawText}, nil
}

func (m *mockExtractor) SupportedTypes() []string {
	return m.types
}

func (m *mockExtractor) Name() string {
	return m.name
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	mock := &mockExtractor{name: "test", types: []string{"text/plain"}}

	r.Register(mock)

	types := r.List()
	if len(types) != 1 {
		t.Errorf("expected 1 type, got %d", len(types))
	}
	if types[0] != "text/plain" {
		t.Errorf("expected text/plain, got %s", types[0])
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	mock := &mockExtractor{name: "test", types: []string{"text/plain"}}
	r.Register(mock)

	// Should find registered type
	e, err := r.Get("text/plain")
	if err != nil {
		t.Fatalf("Get(text/plain): %v", err)
	}
	if e.Name() != "test" {
		t.Errorf("expected test extractor, got %s", e.Name())
	}

	// Should report unsupported for unregistered type
	_, err = r.Get("application/pdf")
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistry_Get_FirstMatchWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "first", types: []string{"text/plain"}})
	r.Register(&mockExtractor{name: "second", types: []string{"text/plain"}})

	e, err := r.Get("text/plain")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Name() != "first" {
		t.Errorf("expected first registered extractor, got %s", e.Name())
	}
}

func TestRegistry_List(t *testing.T) {
	r := NewRegistry()

	r.Register(&mockExtractor{name: "e1", types: []string{"text/plain", "text/csv"}})
	r.Register(&mockExtractor{name: "e2", types: []string{"text/html"}})

	types := r.List()

	if len(types) != 3 {
		t.Errorf("expected 3 types, got %d", len(types))
	}
	expected := []string{"text/csv", "text/html", "text/plain"}
	for i, exp := range expected {
		if types[i] != exp {
			t.Errorf("expected type %s at index %d, got %s", exp, i, types[i])
		}
	}
}

func TestRegistry_WildcardMatching(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "text-wildcard", types: []string{"text/*"}})

	e, err := r.Get("text/csv")
	if err != nil {
		t.Fatalf("Get(text/csv): %v", err)
	}
	if e.Name() != "text-wildcard" {
		t.Errorf("expected text-wildcard extractor, got %s", e.Name())
	}

	if _, err := r.Get("application/json"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for application/json, got %v", err)
	}
}

func TestMatchesContentType(t *testing.T) {
	tests := []struct {
		name        string
		supported   []string
		contentType string
		expected    bool
	}{
		{"exact match", []string{"text/plain"}, "text/plain", true},
		{"case insensitive", []string{"TEXT/PLAIN"}, "text/plain", true},
		{"with charset", []string{"text/plain"}, "text/plain; charset=utf-8", true},
		{"wildcard subtype", []string{"text/*"}, "text/plain", true},
		{"wildcard no match", []string{"text/*"}, "application/json", false},
		{"universal wildcard", []string{"*/*"}, "anything/here", true},
		{"no match", []string{"text/plain"}, "text/html", false},
		{"multiple supported", []string{"text/plain", "text/markdown"}, "text/markdown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := matchesContentType(tt.supported, tt.contentType)
			if result != tt.expected {
				t.Errorf("matchesContentType(%v, %s) = %v, want %v",
					tt.supported, tt.contentType, result, tt.expected)
			}
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, ct := range []string{"text/plain", "text/markdown"} {
		if _, err := r.Get(ct); err != nil {
			t.Errorf("expected extractor for %s, got %v", ct, err)
		}
	}

	if _, err := r.Get("application/pdf"); !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for application/pdf, got %v", err)
	}
}

func TestPlaintextExtractor(t *testing.T) {
	e := NewPlaintextExtractor()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple text", "hello world", "hello world"},
		{"windows line endings", "hello\r\nworld", "hello\nworld"},
		{"old mac line endings", "hello\rworld", "hello\nworld"},
		{"excessive blank lines", "a\n\n\n\nb", "a\n\nb"},
		{"trim whitespace", "  hello  ", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &domain.Document{RawText: tt.input}
			result, err := e.Extract(context.Background(), doc)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if result.Text != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result.Text)
			}
		})
	}
}

func TestPlaintextExtractor_SinglePage(t *testing.T) {
	e := NewPlaintextExtractor()

	text := "First paragraph.\n\nSecond paragraph."
	result, err := e.Extract(context.Background(), &domain.Document{RawText: text})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(result.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(result.Pages))
	}
	page := result.Pages[0]
	if page.PageNumber != 1 {
		t.Errorf("page number = %d, want 1", page.PageNumber)
	}
	if page.Text != result.Text {
		t.Errorf("page text differs from document text")
	}
	if page.CharStart != 0 || page.CharEnd != len(result.Text) {
		t.Errorf("page range = [%d, %d), want [0, %d)", page.CharStart, page.CharEnd, len(result.Text))
	}
	if result.Metadata.PageCount != 1 {
		t.Errorf("page count = %d, want 1", result.Metadata.PageCount)
	}
}

func TestPlaintextExtractor_MarkdownKeptVerbatim(t *testing.T) {
	e := NewPlaintextExtractor()

	text := "# Title\n\nSome *markdown* content."
	result, err := e.Extract(context.Background(), &domain.Document{RawText: text})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Text != text {
		t.Errorf("markdown should pass through unchanged, got %q", result.Text)
	}

	found := false
	for _, ct := range e.SupportedTypes() {
		if strings.Contains(ct, "markdown") {
			found = true
		}
	}
	if !found {
		t.Error("expected markdown in supported types")
	}
}
