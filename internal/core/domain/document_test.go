package domain

import (
	"errors"
	"testing"
	"time"
)

func intPtr(i int) *int { return &i }

func TestDocument_StatusTransitions(t *testing.T) {
	doc := &Document{
		ID:        "doc-123",
		ProjectID: "proj-456",
		Filename:  "paper.txt",
		Status:    DocumentStatusUploaded,
	}

	doc.MarkProcessing()
	if doc.Status != DocumentStatusProcessing {
		t.Errorf("expected status %s, got %s", DocumentStatusProcessing, doc.Status)
	}
	if doc.ProcessingError != "" {
		t.Error("expected processing error to be cleared")
	}

	doc.MarkIndexed(3)
	if doc.Status != DocumentStatusIndexed {
		t.Errorf("expected status %s, got %s", DocumentStatusIndexed, doc.Status)
	}
	if doc.PageCount != 3 {
		t.Errorf("expected page count 3, got %d", doc.PageCount)
	}
	if doc.IndexedAt == nil {
		t.Error("expected IndexedAt to be set")
	}
	if !doc.IsIndexed() {
		t.Error("expected IsIndexed to be true")
	}
}

func TestDocument_MarkFailed(t *testing.T) {
	doc := &Document{
		ID:     "doc-123",
		Status: DocumentStatusProcessing,
	}

	doc.MarkFailed("extractor exploded")

	if doc.Status != DocumentStatusFailed {
		t.Errorf("expected status %s, got %s", DocumentStatusFailed, doc.Status)
	}
	if doc.ProcessingError != "extractor exploded" {
		t.Errorf("expected processing error to be recorded, got %q", doc.ProcessingError)
	}
	if doc.IsIndexed() {
		t.Error("expected IsIndexed to be false")
	}
}

func TestDocument_RetryRestartsFromProcessing(t *testing.T) {
	doc := &Document{
		ID:              "doc-123",
		Status:          DocumentStatusFailed,
		ProcessingError: "previous failure",
	}

	doc.MarkProcessing()

	if doc.Status != DocumentStatusProcessing {
		t.Errorf("expected status %s, got %s", DocumentStatusProcessing, doc.Status)
	}
	if doc.ProcessingError != "" {
		t.Error("expected previous error to be cleared on retry")
	}
}

func TestChunk_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		chunk   Chunk
		wantErr bool
	}{
		{
			name: "valid chunk",
			chunk: Chunk{
				ID:         "chunk-1",
				DocumentID: "doc-1",
				Index:      0,
				Content:    "This is the chunk content.",
				PageNumber: intPtr(1),
				CharStart:  intPtr(0),
				CharEnd:    intPtr(26),
				CreatedAt:  now,
			},
			wantErr: false,
		},
		{
			name: "no offsets",
			chunk: Chunk{
				Content: "offset-free chunk",
			},
			wantErr: false,
		},
		{
			name:    "empty content",
			chunk:   Chunk{Content: ""},
			wantErr: true,
		},
		{
			name: "zero-width range",
			chunk: Chunk{
				Content:   "x",
				CharStart: intPtr(5),
				CharEnd:   intPtr(5),
			},
			wantErr: true,
		},
		{
			name: "inverted range",
			chunk: Chunk{
				Content:   "x",
				CharStart: intPtr(10),
				CharEnd:   intPtr(5),
			},
			wantErr: true,
		},
		{
			name: "content longer than range",
			chunk: Chunk{
				Content:   "this content is far too long",
				CharStart: intPtr(0),
				CharEnd:   intPtr(5),
			},
			wantErr: true,
		},
		{
			name: "trimmed content shorter than range",
			chunk: Chunk{
				Content:   "short",
				CharStart: intPtr(0),
				CharEnd:   intPtr(100),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
