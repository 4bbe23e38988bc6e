package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

type documentFixture struct {
	svc       driving.DocumentService
	documents *mocks.MockDocumentStore
	chunks    *mocks.MockChunkStore
	projects  *mocks.MockProjectStore
	sessions  *mocks.MockSessionStore
	index     *mocks.MockVectorIndex
	queue     *mocks.MockTaskQueue
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()

	f := &documentFixture{
		documents: mocks.NewMockDocumentStore(),
		chunks:    mocks.NewMockChunkStore(),
		projects:  mocks.NewMockProjectStore(),
		sessions:  mocks.NewMockSessionStore(),
		index:     mocks.NewMockVectorIndex(),
		queue:     mocks.NewMockTaskQueue(),
	}

	_ = f.projects.Save(context.Background(), &domain.Project{
		ID:        "proj-1",
		Name:      "Research",
		CreatedAt: time.Now(),
	})

	remover := NewIndexingOrchestrator(IndexingOrchestratorConfig{
		DocumentStore: f.documents,
		ChunkStore:    f.chunks,
		Index:         f.index,
	})

	f.svc = NewDocumentService(DocumentServiceConfig{
		DocumentStore: f.documents,
		ChunkStore:    f.chunks,
		ProjectStore:  f.projects,
		SessionStore:  f.sessions,
		Index:         f.index,
		Queue:         f.queue,
		Remover:       remover,
	})
	return f
}

func TestDocumentService_Create(t *testing.T) {
	f := newDocumentFixture(t)

	doc, err := f.svc.Create(context.Background(), driving.CreateDocumentRequest{
		ProjectID: "proj-1",
		Filename:  "notes.txt",
		Text:      "Some document text.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ID == "" {
		t.Error("expected an id")
	}
	if doc.Status != domain.DocumentStatusUploaded {
		t.Errorf("expected uploaded status, got %s", doc.Status)
	}
	if doc.ContentType != "text/plain" {
		t.Errorf("expected default content type, got %s", doc.ContentType)
	}

	stored, err := f.documents.Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("document not persisted: %v", err)
	}
	if stored.RawText != "Some document text." {
		t.Errorf("raw text not stored: %q", stored.RawText)
	}

	// An indexing task was dispatched for the new document.
	if f.queue.PendingCount() != 1 {
		t.Fatalf("expected 1 queued task, got %d", f.queue.PendingCount())
	}
	task, _ := f.queue.Dequeue(context.Background())
	if task.Type != domain.TaskTypeIndexDocument {
		t.Errorf("expected index_document task, got %s", task.Type)
	}
	if task.DocumentID() != doc.ID {
		t.Errorf("task document: %s, want %s", task.DocumentID(), doc.ID)
	}
	if task.ProjectID != "proj-1" {
		t.Errorf("task project: %s", task.ProjectID)
	}
}

func TestDocumentService_Create_Validation(t *testing.T) {
	f := newDocumentFixture(t)

	tests := []struct {
		name string
		req  driving.CreateDocumentRequest
		want error
	}{
		{"missing project", driving.CreateDocumentRequest{Filename: "a.txt", Text: "x"}, domain.ErrInvalidInput},
		{"missing filename", driving.CreateDocumentRequest{ProjectID: "proj-1", Text: "x"}, domain.ErrInvalidInput},
		{"blank text", driving.CreateDocumentRequest{ProjectID: "proj-1", Filename: "a.txt", Text: "  "}, domain.ErrInvalidInput},
		{"unknown project", driving.CreateDocumentRequest{ProjectID: "nope", Filename: "a.txt", Text: "x"}, domain.ErrProjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDocumentService_Create_DispatchBestEffort(t *testing.T) {
	f := newDocumentFixture(t)
	f.queue.EnqueueErr = errors.New("queue down")

	doc, err := f.svc.Create(context.Background(), driving.CreateDocumentRequest{
		ProjectID: "proj-1",
		Filename:  "notes.txt",
		Text:      "Text.",
	})
	if err != nil {
		t.Fatalf("a dispatch failure must not fail the upload: %v", err)
	}

	// The document is saved in uploaded; the sweep re-dispatches it later.
	stored, _ := f.documents.Get(context.Background(), doc.ID)
	if stored.Status != domain.DocumentStatusUploaded {
		t.Errorf("expected uploaded, got %s", stored.Status)
	}
	if f.queue.PendingCount() != 0 {
		t.Errorf("expected no queued task, got %d", f.queue.PendingCount())
	}
}

func TestDocumentService_GetWithChunks(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")

	_ = f.chunks.SaveBatch(context.Background(), []*domain.Chunk{
		{ID: "c2", DocumentID: "doc-1", Index: 1, Content: "second"},
		{ID: "c1", DocumentID: "doc-1", Index: 0, Content: "first"},
	})

	dwc, err := f.svc.GetWithChunks(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dwc.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(dwc.Chunks))
	}
	if dwc.Chunks[0].Index != 0 || dwc.Chunks[1].Index != 1 {
		t.Error("chunks must come back in index order")
	}
}

func TestDocumentService_Delete(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")
	_ = f.chunks.SaveBatch(context.Background(), []*domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Index: 0, Content: "chunk"},
	})

	if err := f.svc.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.documents.Get(context.Background(), "doc-1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Error("document row should be gone")
	}
	if n, _ := f.chunks.CountByDocument(context.Background(), "doc-1"); n != 0 {
		t.Errorf("expected chunks removed, got %d", n)
	}
	if len(f.index.DeletedDocs) != 1 || f.index.DeletedDocs[0] != "doc-1" {
		t.Errorf("expected index cascade, got %v", f.index.DeletedDocs)
	}
}

func TestDocumentService_Delete_IndexFailureAborts(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")
	f.index.DeleteErr = errors.New("index down")

	if err := f.svc.Delete(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected the index failure to abort the delete")
	}

	// The document row survives so the delete can be retried.
	if _, err := f.documents.Get(context.Background(), "doc-1"); err != nil {
		t.Errorf("document should still exist: %v", err)
	}
}

func TestDocumentService_Reindex(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")

	if err := f.svc.Reindex(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.queue.PendingCount() != 1 {
		t.Fatalf("expected 1 queued task, got %d", f.queue.PendingCount())
	}
}

func TestDocumentService_Reindex_AlreadyProcessing(t *testing.T) {
	f := newDocumentFixture(t)
	doc := &domain.Document{
		ID:        "doc-1",
		ProjectID: "proj-1",
		Filename:  "a.txt",
		Status:    domain.DocumentStatusProcessing,
	}
	_ = f.documents.Save(context.Background(), doc)

	if err := f.svc.Reindex(context.Background(), "doc-1"); !errors.Is(err, domain.ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
	if f.queue.PendingCount() != 0 {
		t.Error("no task should be queued while processing")
	}
}

func TestDocumentService_Reindex_EnqueueFailureSurfaces(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")
	f.queue.EnqueueErr = errors.New("queue down")

	// Unlike Create, an explicit reindex must report the failure.
	if err := f.svc.Reindex(context.Background(), "doc-1"); err == nil {
		t.Fatal("expected the enqueue failure to surface")
	}
}

func TestDocumentService_Stats(t *testing.T) {
	f := newDocumentFixture(t)
	f.saveIndexed(t, "doc-1")
	f.saveIndexed(t, "doc-2")
	_ = f.documents.Save(context.Background(), &domain.Document{
		ID: "doc-3", ProjectID: "proj-1", Filename: "c.txt",
		Status: domain.DocumentStatusFailed,
	})
	_ = f.chunks.SaveBatch(context.Background(), []*domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Index: 0, Content: "x"},
		{ID: "c2", DocumentID: "doc-2", Index: 0, Content: "y"},
	})
	_ = f.sessions.SaveSession(context.Background(), &domain.QASession{ID: "s1", ProjectID: "proj-1"})

	stats, err := f.svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Documents != 3 {
		t.Errorf("documents: %d", stats.Documents)
	}
	if stats.IndexedDocs != 2 {
		t.Errorf("indexed: %d", stats.IndexedDocs)
	}
	if stats.FailedDocs != 1 {
		t.Errorf("failed: %d", stats.FailedDocs)
	}
	if stats.Chunks != 2 {
		t.Errorf("chunks: %d", stats.Chunks)
	}
	if stats.Sessions != 1 {
		t.Errorf("sessions: %d", stats.Sessions)
	}
}

func (f *documentFixture) saveIndexed(t *testing.T, id string) {
	t.Helper()
	now := time.Now()
	if err := f.documents.Save(context.Background(), &domain.Document{
		ID:         id,
		ProjectID:  "proj-1",
		Filename:   id + ".txt",
		Status:     domain.DocumentStatusIndexed,
		UploadedAt: now,
		IndexedAt:  &now,
		UpdatedAt:  now,
	}); err != nil {
		t.Fatalf("save document: %v", err)
	}
}
