package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/veridoc-core/internal/chunker"
	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure indexingOrchestrator implements IndexingOrchestrator
var _ driving.IndexingOrchestrator = (*indexingOrchestrator)(nil)

// indexingOrchestrator coordinates the document indexing pipeline:
//  1. Load the document and mark it processing
//  2. Extract normalized text with a page map
//  3. Chunk each page independently, indices continuing across pages
//  4. Embed all chunk contents in one batch
//  5. Replace the document's chunk rows in a single transaction
//  6. Insert the entries into the similarity index
//  7. Mark the document indexed
//
// A failure at any step marks the document failed and propagates for the
// worker's retry policy. Index insertion failures roll back the chunk rows
// written in step 5, so a document never keeps rows its index does not know.
type indexingOrchestrator struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	index         driven.VectorIndex
	embedder      driven.EmbeddingService
	extractors    driven.ExtractorRegistry
	chunker       *chunker.Chunker
	logger        *slog.Logger
}

// IndexingOrchestratorConfig holds dependencies for the orchestrator.
type IndexingOrchestratorConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	Index         driven.VectorIndex
	Embedder      driven.EmbeddingService
	Extractors    driven.ExtractorRegistry
	Chunker       *chunker.Chunker
	Logger        *slog.Logger
}

// NewIndexingOrchestrator creates a new indexing orchestrator.
func NewIndexingOrchestrator(cfg IndexingOrchestratorConfig) driving.IndexingOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &indexingOrchestrator{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		index:         cfg.Index,
		embedder:      cfg.Embedder,
		extractors:    cfg.Extractors,
		chunker:       cfg.Chunker,
		logger:        logger,
	}
}

// IndexDocument processes one document end to end, tracking status on the
// document row.
func (o *indexingOrchestrator) IndexDocument(ctx context.Context, documentID string) (*domain.TaskResult, error) {
	start := time.Now()

	doc, err := o.documentStore.Get(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	doc.MarkProcessing()
	if err := o.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	o.logger.Info("indexing document",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"filename", doc.Filename,
	)

	chunksCount, pagesCount, err := o.process(ctx, doc)
	if err != nil {
		doc.MarkFailed(err.Error())
		if saveErr := o.documentStore.Save(ctx, doc); saveErr != nil {
			o.logger.Error("failed to record indexing failure",
				"document_id", doc.ID, "error", saveErr)
		}
		o.logger.Error("indexing failed",
			"document_id", doc.ID,
			"duration_seconds", time.Since(start).Seconds(),
			"error", err,
		)
		return nil, err
	}

	doc.MarkIndexed(pagesCount)
	if err := o.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("mark indexed: %w", err)
	}

	duration := time.Since(start)
	o.logger.Info("document indexed",
		"document_id", doc.ID,
		"chunks", chunksCount,
		"pages", pagesCount,
		"duration_seconds", duration.Seconds(),
	)

	return &domain.TaskResult{
		Success:     true,
		Duration:    duration,
		ChunksCount: chunksCount,
		PagesCount:  pagesCount,
	}, nil
}

// RemoveDocument removes a document's chunks and index entries. Index
// entries go first so retrieval never sees vectors whose rows are gone.
func (o *indexingOrchestrator) RemoveDocument(ctx context.Context, documentID string) error {
	if err := o.index.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete index entries: %w", err)
	}
	if err := o.chunkStore.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// process runs the parse, chunk, embed, and index steps for a document
// already marked processing. Returns the chunk and page counts.
func (o *indexingOrchestrator) process(ctx context.Context, doc *domain.Document) (int, int, error) {
	extractor, err := o.extractors.Get(doc.ContentType)
	if err != nil {
		return 0, 0, fmt.Errorf("get extractor: %w", err)
	}

	extracted, err := extractor.Extract(ctx, doc)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrParseFailed, err)
	}
	if strings.TrimSpace(extracted.Text) == "" {
		return 0, 0, fmt.Errorf("%w: no text content extracted", domain.ErrParseFailed)
	}

	if extracted.Metadata.Title != "" {
		doc.Title = extracted.Metadata.Title
	}
	if extracted.Metadata.Author != "" {
		doc.Author = extracted.Metadata.Author
	}
	pagesCount := extracted.Metadata.PageCount
	if pagesCount == 0 {
		pagesCount = len(extracted.Pages)
	}

	// Chunk page by page to preserve page-level citations. Offsets stay
	// relative to each page's own text; indices continue across pages.
	var all []chunker.Chunk
	for _, page := range extracted.Pages {
		pageNumber := page.PageNumber
		pageChunks := o.chunker.Chunk(page.Text, chunker.Options{
			PageNumber: &pageNumber,
			StartIndex: len(all),
		})
		all = append(all, pageChunks...)
	}
	if len(all) == 0 {
		return 0, 0, fmt.Errorf("%w: document produced no chunks", domain.ErrParseFailed)
	}

	texts := make([]string, len(all))
	for i, ck := range all {
		texts[i] = ck.Content
	}
	vectors, err := o.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingFailed, len(vectors), len(texts))
	}

	now := time.Now()
	chunks := make([]*domain.Chunk, len(all))
	entries := make([]driven.IndexEntry, len(all))
	for i, ck := range all {
		charStart, charEnd := ck.CharStart, ck.CharEnd
		id := uuid.New().String()
		embeddingID := "chunk_" + id

		chunks[i] = &domain.Chunk{
			ID:              id,
			DocumentID:      doc.ID,
			Index:           ck.Index,
			Content:         ck.Content,
			Embedding:       vectors[i],
			PageNumber:      ck.PageNumber,
			ParagraphNumber: ck.ParagraphNumber,
			CharStart:       &charStart,
			CharEnd:         &charEnd,
			EmbeddingID:     embeddingID,
			CreatedAt:       now,
		}
		if err := chunks[i].Validate(); err != nil {
			return 0, 0, fmt.Errorf("chunk %d: %w", ck.Index, err)
		}

		entries[i] = driven.IndexEntry{
			ID:        embeddingID,
			Content:   ck.Content,
			Embedding: vectors[i],
			Metadata: domain.ChunkMetadata{
				DocumentID:      doc.ID,
				ProjectID:       doc.ProjectID,
				Filename:        doc.Filename,
				ChunkIndex:      ck.Index,
				PageNumber:      ck.PageNumber,
				ParagraphNumber: ck.ParagraphNumber,
				CharStart:       &charStart,
				CharEnd:         &charEnd,
			},
		}
	}

	// Clear any leftovers from a previous run so retries and reindexing
	// replace rather than accumulate.
	if err := o.index.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, 0, fmt.Errorf("clear previous index entries: %w", err)
	}
	if err := o.chunkStore.DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, 0, fmt.Errorf("clear previous chunks: %w", err)
	}

	if err := o.chunkStore.SaveBatch(ctx, chunks); err != nil {
		return 0, 0, fmt.Errorf("save chunks: %w", err)
	}

	if err := o.index.Add(ctx, entries); err != nil {
		// Roll back the rows so the store and index stay consistent.
		if cleanupErr := o.chunkStore.DeleteByDocument(ctx, doc.ID); cleanupErr != nil {
			o.logger.Error("failed to roll back chunks after index failure",
				"document_id", doc.ID, "error", cleanupErr)
		}
		if cleanupErr := o.index.DeleteByDocument(ctx, doc.ID); cleanupErr != nil {
			o.logger.Error("failed to clear partial index entries",
				"document_id", doc.ID, "error", cleanupErr)
		}
		return 0, 0, fmt.Errorf("index chunks: %w", err)
	}

	return len(all), pagesCount, nil
}
