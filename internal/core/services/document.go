package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documentStore driven.DocumentStore
	chunkStore    driven.ChunkStore
	projectStore  driven.ProjectStore
	sessionStore  driven.SessionStore
	index         driven.VectorIndex
	queue         driven.TaskQueue
	remover       driving.IndexingOrchestrator
	logger        *slog.Logger
}

// DocumentServiceConfig holds dependencies for the document service.
type DocumentServiceConfig struct {
	DocumentStore driven.DocumentStore
	ChunkStore    driven.ChunkStore
	ProjectStore  driven.ProjectStore
	SessionStore  driven.SessionStore
	Index         driven.VectorIndex
	Queue         driven.TaskQueue
	Remover       driving.IndexingOrchestrator
	Logger        *slog.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documentStore: cfg.DocumentStore,
		chunkStore:    cfg.ChunkStore,
		projectStore:  cfg.ProjectStore,
		sessionStore:  cfg.SessionStore,
		index:         cfg.Index,
		queue:         cfg.Queue,
		remover:       cfg.Remover,
		logger:        logger,
	}
}

// Create registers a document and dispatches an indexing job. Dispatch is
// best-effort: the document stays uploaded when the enqueue fails and the
// maintenance sweep re-dispatches it later.
func (s *documentService) Create(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error) {
	if req.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: document text is required", domain.ErrInvalidInput)
	}
	if _, err := s.projectStore.Get(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	now := time.Now()
	doc := &domain.Document{
		ID:          uuid.New().String(),
		ProjectID:   req.ProjectID,
		Filename:    req.Filename,
		ContentType: contentType,
		RawText:     req.Text,
		Status:      domain.DocumentStatusUploaded,
		UploadedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.documentStore.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	task := domain.NewIndexDocumentTask(doc.ProjectID, doc.ID)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		s.logger.Warn("failed to enqueue indexing task",
			"document_id", doc.ID, "error", err)
	}

	return doc, nil
}

// Get retrieves a document by ID
func (s *documentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.documentStore.Get(ctx, id)
}

// GetWithChunks retrieves a document with its chunks
func (s *documentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkStore.GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.DocumentWithChunks{
		Document: doc,
		Chunks:   chunks,
	}, nil
}

// GetByProject retrieves all documents for a project
func (s *documentService) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return s.documentStore.GetByProject(ctx, projectID, limit, offset)
}

// Delete removes a document, its chunks, and its index entries. The index
// cascade is strict: failing it would leave vectors pointing at a document
// that no longer exists.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if _, err := s.documentStore.Get(ctx, id); err != nil {
		return err
	}

	if err := s.remover.RemoveDocument(ctx, id); err != nil {
		return fmt.Errorf("remove indexed data: %w", err)
	}
	if err := s.documentStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Reindex re-dispatches indexing for a document. Unlike Create, the enqueue
// failure surfaces here: dispatching is the whole operation.
func (s *documentService) Reindex(ctx context.Context, id string) error {
	doc, err := s.documentStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status == domain.DocumentStatusProcessing {
		return domain.ErrAlreadyProcessing
	}

	task := domain.NewIndexDocumentTask(doc.ProjectID, doc.ID)
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("enqueue indexing task: %w", err)
	}
	return nil
}

// Stats summarizes the indexed corpus
func (s *documentService) Stats(ctx context.Context) (*domain.CollectionStats, error) {
	documents, err := s.documentStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	indexed, err := s.documentStore.CountByStatus(ctx, domain.DocumentStatusIndexed)
	if err != nil {
		return nil, fmt.Errorf("count indexed documents: %w", err)
	}
	failed, err := s.documentStore.CountByStatus(ctx, domain.DocumentStatusFailed)
	if err != nil {
		return nil, fmt.Errorf("count failed documents: %w", err)
	}
	chunks, err := s.chunkStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	sessions, err := s.sessionStore.CountSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	vectors, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index entries: %w", err)
	}

	return &domain.CollectionStats{
		Documents:      documents,
		IndexedDocs:    indexed,
		FailedDocs:     failed,
		Chunks:         chunks,
		Sessions:       sessions,
		IndexedVectors: vectors,
	}, nil
}
