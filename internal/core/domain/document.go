package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the indexing state of a document
type DocumentStatus string

const (
	// DocumentStatusUploaded means the document is registered but not yet processed
	DocumentStatusUploaded DocumentStatus = "uploaded"
	// DocumentStatusProcessing means an indexing run is in progress
	DocumentStatusProcessing DocumentStatus = "processing"
	// DocumentStatusIndexed means all chunks are embedded and searchable
	DocumentStatusIndexed DocumentStatus = "indexed"
	// DocumentStatusFailed means the last indexing run errored
	DocumentStatusFailed DocumentStatus = "failed"
)

// Document represents an uploaded document within a project
type Document struct {
	ID              string         `json:"id"`
	ProjectID       string         `json:"project_id"`
	Filename        string         `json:"filename"`
	ContentType     string         `json:"content_type"`
	RawText         string         `json:"-"`
	Status          DocumentStatus `json:"status"`
	ProcessingError string         `json:"processing_error,omitempty"`
	Title           string         `json:"title,omitempty"`
	Author          string         `json:"author,omitempty"`
	PageCount       int            `json:"page_count"`
	UploadedAt      time.Time      `json:"uploaded_at"`
	IndexedAt       *time.Time     `json:"indexed_at,omitempty"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// MarkProcessing transitions the document into a running indexing attempt.
// Valid from uploaded, failed, or a previous processing run (retries restart
// from processing).
func (d *Document) MarkProcessing() {
	now := time.Now()
	d.Status = DocumentStatusProcessing
	d.ProcessingError = ""
	d.UpdatedAt = now
}

// MarkIndexed transitions the document to indexed after all chunks are
// embedded and inserted into the index.
func (d *Document) MarkIndexed(pageCount int) {
	now := time.Now()
	d.Status = DocumentStatusIndexed
	d.ProcessingError = ""
	d.PageCount = pageCount
	d.IndexedAt = &now
	d.UpdatedAt = now
}

// MarkFailed records the indexing error. The document stays queryable as
// metadata but is absent from retrieval.
func (d *Document) MarkFailed(errMsg string) {
	d.Status = DocumentStatusFailed
	d.ProcessingError = errMsg
	d.UpdatedAt = time.Now()
}

// IsIndexed reports whether the document's chunks are searchable.
func (d *Document) IsIndexed() bool {
	return d.Status == DocumentStatusIndexed
}

// Chunk is a contiguous, position-tracked slice of document text sized for
// retrieval and embedding. Character offsets are half-open [CharStart, CharEnd)
// relative to the owning page's text, such that the content is recoverable
// (modulo trim) by slicing the page text with this range.
type Chunk struct {
	ID              string    `json:"id"`
	DocumentID      string    `json:"document_id"`
	Index           int       `json:"chunk_index"`
	Content         string    `json:"content"`
	Embedding       []float32 `json:"embedding,omitempty"`
	PageNumber      *int      `json:"page_number,omitempty"`
	ParagraphNumber *int      `json:"paragraph_number,omitempty"`
	CharStart       *int      `json:"char_start,omitempty"`
	CharEnd         *int      `json:"char_end,omitempty"`
	EmbeddingID     string    `json:"embedding_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the chunk invariants: non-empty content, a positive span
// when offsets are present, and content no longer than its span (trimming may
// shrink it, never grow).
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return fmt.Errorf("%w: chunk content is empty", ErrInvalidInput)
	}
	if c.CharStart != nil && c.CharEnd != nil {
		if *c.CharEnd <= *c.CharStart {
			return fmt.Errorf("%w: chunk char range [%d, %d) is not positive", ErrInvalidInput, *c.CharStart, *c.CharEnd)
		}
		if len(c.Content) > *c.CharEnd-*c.CharStart {
			return fmt.Errorf("%w: chunk content exceeds char range [%d, %d)", ErrInvalidInput, *c.CharStart, *c.CharEnd)
		}
	}
	return nil
}

// DocumentWithChunks combines a document with its chunks
type DocumentWithChunks struct {
	Document *Document `json:"document"`
	Chunks   []*Chunk  `json:"chunks"`
}

// CollectionStats summarizes the indexed corpus for one project or globally
type CollectionStats struct {
	Documents      int `json:"documents"`
	IndexedDocs    int `json:"indexed_documents"`
	FailedDocs     int `json:"failed_documents"`
	Chunks         int `json:"chunks"`
	Sessions       int `json:"sessions"`
	IndexedVectors int `json:"indexed_vectors"`
}
