package driven

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// ExtractedPage is one page of normalized document text. CharStart and
// CharEnd are the page's half-open offset range within the full text.
type ExtractedPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
}

// ExtractedMetadata is the document-level metadata an extractor recovers.
type ExtractedMetadata struct {
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	PageCount int    `json:"page_count"`
}

// ExtractedDocument is the normalized parse result the pipeline consumes.
// Pages is never empty: non-paginated formats yield a single page numbered 1
// covering [0, len(Text)).
type ExtractedDocument struct {
	Text     string            `json:"text"`
	Pages    []ExtractedPage   `json:"pages"`
	Metadata ExtractedMetadata `json:"metadata"`
}

// Extractor turns a raw document into normalized text with a page map.
// Format-specific parsing lives behind this boundary; the pipeline only sees
// the ExtractedDocument shape.
type Extractor interface {
	// Extract parses the document's raw content.
	// Must return at least one page on success.
	Extract(ctx context.Context, doc *domain.Document) (*ExtractedDocument, error)

	// SupportedTypes returns the content types this extractor handles.
	SupportedTypes() []string

	// Name returns the extractor name for logging.
	Name() string
}

// ExtractorRegistry resolves extractors by content type.
type ExtractorRegistry interface {
	// Get retrieves the extractor for a content type.
	// Returns domain.ErrUnsupportedFormat when none is registered.
	Get(contentType string) (Extractor, error)

	// Register registers an extractor for its supported types.
	Register(extractor Extractor)

	// List returns all registered content types.
	List() []string
}
