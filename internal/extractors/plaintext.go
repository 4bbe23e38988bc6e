package extractors

import (
	"context"
	"strings"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Extractor = (*PlaintextExtractor)(nil)

// PlaintextExtractor handles plain text and Markdown content. These formats
// carry no page boundaries, so the result is a single page covering the
// whole text.
type PlaintextExtractor struct{}

// NewPlaintextExtractor creates the plain text extractor.
func NewPlaintextExtractor() *PlaintextExtractor {
	return &PlaintextExtractor{}
}

// Extract normalizes line endings, collapses excessive blank lines and wraps
// the text in a one-page map. An empty document is not an error here; the
// indexing pipeline decides how to treat documents without text.
func (e *PlaintextExtractor) Extract(_ context.Context, doc *domain.Document) (*driven.ExtractedDocument, error) {
	text := doc.RawText
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// Collapse runs of more than one blank line so paragraph splitting
	// stays stable across sloppy source files.
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	text = strings.TrimSpace(text)

	return &driven.ExtractedDocument{
		Text: text,
		Pages: []driven.ExtractedPage{
			{
				PageNumber: 1,
				Text:       text,
				CharStart:  0,
				CharEnd:    len(text),
			},
		},
		Metadata: driven.ExtractedMetadata{
			PageCount: 1,
		},
	}, nil
}

// SupportedTypes returns the content types this extractor handles.
func (e *PlaintextExtractor) SupportedTypes() []string {
	return []string{"text/plain", "text/markdown", "text/x-markdown"}
}

// Name returns the extractor name for logging.
func (e *PlaintextExtractor) Name() string {
	return "plaintext"
}
