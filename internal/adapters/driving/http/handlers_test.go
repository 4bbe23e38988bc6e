package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Stub services with injectable behavior per test.

type stubProjectService struct {
	createFn func(ctx context.Context, name, description string) (*domain.Project, error)
	getFn    func(ctx context.Context, id string) (*domain.Project, error)
	listFn   func(ctx context.Context, limit, offset int) ([]*domain.Project, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubProjectService) Create(ctx context.Context, name, description string) (*domain.Project, error) {
	if s.createFn != nil {
		return s.createFn(ctx, name, description)
	}
	return &domain.Project{ID: "proj-1", Name: name, Description: description}, nil
}

func (s *stubProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &domain.Project{ID: id, Name: "stub"}, nil
}

func (s *stubProjectService) List(ctx context.Context, limit, offset int) ([]*domain.Project, error) {
	if s.listFn != nil {
		return s.listFn(ctx, limit, offset)
	}
	return []*domain.Project{}, nil
}

func (s *stubProjectService) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubDocumentService struct {
	createFn    func(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error)
	getFn       func(ctx context.Context, id string) (*domain.Document, error)
	byProjectFn func(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)
	reindexFn   func(ctx context.Context, id string) error
	deleteFn    func(ctx context.Context, id string) error
	statsFn     func(ctx context.Context) (*domain.CollectionStats, error)
}

func (s *stubDocumentService) Create(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &domain.Document{ID: "doc-1", ProjectID: req.ProjectID, Filename: req.Filename, Status: domain.DocumentStatusUploaded}, nil
}

func (s *stubDocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return &domain.Document{ID: id}, nil
}

func (s *stubDocumentService) GetWithChunks(ctx context.Context, id string) (*domain.DocumentWithChunks, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.DocumentWithChunks{Document: doc, Chunks: []*domain.Chunk{}}, nil
}

func (s *stubDocumentService) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	if s.byProjectFn != nil {
		return s.byProjectFn(ctx, projectID, limit, offset)
	}
	return []*domain.Document{}, nil
}

func (s *stubDocumentService) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubDocumentService) Reindex(ctx context.Context, id string) error {
	if s.reindexFn != nil {
		return s.reindexFn(ctx, id)
	}
	return nil
}

func (s *stubDocumentService) Stats(ctx context.Context) (*domain.CollectionStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return &domain.CollectionStats{Documents: 1, Chunks: 4}, nil
}

type stubQAService struct {
	askFn      func(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error)
	sessionFn  func(ctx context.Context, id string) (*domain.SessionWithExchanges, error)
	sessionsFn func(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error)
}

func (s *stubQAService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	if s.askFn != nil {
		return s.askFn(ctx, req)
	}
	return &domain.AskResult{SessionID: "sess-1", Question: req.Question, Answer: "stub answer"}, nil
}

func (s *stubQAService) GetSession(ctx context.Context, id string) (*domain.SessionWithExchanges, error) {
	if s.sessionFn != nil {
		return s.sessionFn(ctx, id)
	}
	return &domain.SessionWithExchanges{Session: &domain.QASession{ID: id}}, nil
}

func (s *stubQAService) ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error) {
	if s.sessionsFn != nil {
		return s.sessionsFn(ctx, projectID, limit, offset)
	}
	return []*domain.QASession{}, nil
}

type stubExportService struct {
	exportFn func(ctx context.Context, projectID string, format domain.ExportFormat) (string, error)
}

func (s *stubExportService) Export(ctx context.Context, projectID string, format domain.ExportFormat) (string, error) {
	if s.exportFn != nil {
		return s.exportFn(ctx, projectID, format)
	}
	return "# Export\n", nil
}

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error        { return p.err }
func (p *stubPinger) HealthCheck(ctx context.Context) error { return p.err }

type serverDeps struct {
	projects *stubProjectService
	docs     *stubDocumentService
	qa       *stubQAService
	export   *stubExportService
	db       *stubPinger
	index    *stubPinger
	queue    *stubPinger
}

func newTestServer(deps serverDeps) *Server {
	if deps.projects == nil {
		deps.projects = &stubProjectService{}
	}
	if deps.docs == nil {
		deps.docs = &stubDocumentService{}
	}
	if deps.qa == nil {
		deps.qa = &stubQAService{}
	}
	if deps.export == nil {
		deps.export = &stubExportService{}
	}
	if deps.db == nil {
		deps.db = &stubPinger{}
	}

	// Assign through interface variables so an absent stub stays a nil
	// interface instead of a typed nil pointer.
	var index HealthChecker
	if deps.index != nil {
		index = deps.index
	}
	var queue Pinger
	if deps.queue != nil {
		queue = deps.queue
	}

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // disabled; rate limiting has its own tests
	return NewServer(cfg, deps.projects, deps.docs, deps.qa, deps.export, deps.db, index, queue)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return resp["error"]
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(serverDeps{})

	rec := doRequest(s, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleReady(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		s := newTestServer(serverDeps{index: &stubPinger{}, queue: &stubPinger{}})
		rec := doRequest(s, "GET", "/ready", "")
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("db down", func(t *testing.T) {
		s := newTestServer(serverDeps{db: &stubPinger{err: errors.New("refused")}})
		rec := doRequest(s, "GET", "/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
		if !strings.Contains(decodeError(t, rec), "database") {
			t.Errorf("expected database error, got %q", rec.Body.String())
		}
	})

	t.Run("index down", func(t *testing.T) {
		s := newTestServer(serverDeps{index: &stubPinger{err: errors.New("no heartbeat")}})
		rec := doRequest(s, "GET", "/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestHandleCreateProject(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(serverDeps{})
		rec := doRequest(s, "POST", "/api/v1/projects", `{"name":"thesis","description":"notes"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var project domain.Project
		if err := json.Unmarshal(rec.Body.Bytes(), &project); err != nil {
			t.Fatalf("failed to decode project: %v", err)
		}
		if project.Name != "thesis" {
			t.Errorf("expected name thesis, got %q", project.Name)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		s := newTestServer(serverDeps{})
		rec := doRequest(s, "POST", "/api/v1/projects", `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		s := newTestServer(serverDeps{projects: &stubProjectService{
			createFn: func(ctx context.Context, name, description string) (*domain.Project, error) {
				return nil, domain.ErrInvalidInput
			},
		}})
		rec := doRequest(s, "POST", "/api/v1/projects", `{"name":""}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleGetProject_NotFound(t *testing.T) {
	s := newTestServer(serverDeps{projects: &stubProjectService{
		getFn: func(ctx context.Context, id string) (*domain.Project, error) {
			return nil, domain.ErrProjectNotFound
		},
	}})

	rec := doRequest(s, "GET", "/api/v1/projects/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleCreateDocument(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		s := newTestServer(serverDeps{})
		rec := doRequest(s, "POST", "/api/v1/documents",
			`{"project_id":"proj-1","filename":"paper.txt","text":"Body text."}`)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
		}

		var doc domain.Document
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("failed to decode document: %v", err)
		}
		if doc.Status != domain.DocumentStatusUploaded {
			t.Errorf("expected uploaded status, got %q", doc.Status)
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		s := newTestServer(serverDeps{docs: &stubDocumentService{
			createFn: func(ctx context.Context, req driving.CreateDocumentRequest) (*domain.Document, error) {
				return nil, domain.ErrProjectNotFound
			},
		}})
		rec := doRequest(s, "POST", "/api/v1/documents", `{"project_id":"nope","filename":"a.txt","text":"x"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestHandleListDocuments_RequiresProject(t *testing.T) {
	s := newTestServer(serverDeps{})

	rec := doRequest(s, "GET", "/api/v1/documents", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleListDocuments_PassesPagination(t *testing.T) {
	var gotLimit, gotOffset int
	s := newTestServer(serverDeps{docs: &stubDocumentService{
		byProjectFn: func(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.Document{}, nil
		},
	}})

	rec := doRequest(s, "GET", "/api/v1/documents?project_id=p1&limit=7&offset=14", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotLimit != 7 || gotOffset != 14 {
		t.Errorf("expected limit=7 offset=14, got %d/%d", gotLimit, gotOffset)
	}
}

func TestHandleReindex_Conflict(t *testing.T) {
	s := newTestServer(serverDeps{docs: &stubDocumentService{
		reindexFn: func(ctx context.Context, id string) error {
			return domain.ErrAlreadyProcessing
		},
	}})

	rec := doRequest(s, "POST", "/api/v1/documents/doc-1/reindex", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestHandleAsk(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(serverDeps{qa: &stubQAService{
			askFn: func(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
				return &domain.AskResult{
					SessionID: "sess-1",
					Question:  req.Question,
					Answer:    "Grounded answer [1].",
					Citations: []domain.Citation{{SourceNum: 1, ChunkReference: "chunk_a", Snippet: "snippet"}},
				}, nil
			},
		}})

		rec := doRequest(s, "POST", "/api/v1/qa/ask", `{"question":"What is stated?","project_id":"proj-1"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var result domain.AskResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if len(result.Citations) != 1 || result.Citations[0].ChunkReference != "chunk_a" {
			t.Errorf("unexpected citations: %+v", result.Citations)
		}
	})

	t.Run("no context is 404", func(t *testing.T) {
		s := newTestServer(serverDeps{qa: &stubQAService{
			askFn: func(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
				return nil, domain.ErrNoContext
			},
		}})

		rec := doRequest(s, "POST", "/api/v1/qa/ask", `{"question":"anything","project_id":"p"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if msg := decodeError(t, rec); !strings.Contains(msg, "no relevant context") {
			t.Errorf("expected no-context message, got %q", msg)
		}
	})

	t.Run("generation failure is 502", func(t *testing.T) {
		s := newTestServer(serverDeps{qa: &stubQAService{
			askFn: func(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
				return nil, domain.ErrGenerationFailed
			},
		}})

		rec := doRequest(s, "POST", "/api/v1/qa/ask", `{"question":"anything","project_id":"p"}`)
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})

	t.Run("missing question is 400", func(t *testing.T) {
		s := newTestServer(serverDeps{qa: &stubQAService{
			askFn: func(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
				return nil, domain.ErrInvalidInput
			},
		}})

		rec := doRequest(s, "POST", "/api/v1/qa/ask", `{"project_id":"p"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleListSessions_RequiresProject(t *testing.T) {
	s := newTestServer(serverDeps{})

	rec := doRequest(s, "GET", "/api/v1/qa/sessions", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleGetSession_NotFound(t *testing.T) {
	s := newTestServer(serverDeps{qa: &stubQAService{
		sessionFn: func(ctx context.Context, id string) (*domain.SessionWithExchanges, error) {
			return nil, domain.ErrSessionNotFound
		},
	}})

	rec := doRequest(s, "GET", "/api/v1/qa/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleExportProject(t *testing.T) {
	t.Run("markdown default", func(t *testing.T) {
		var gotFormat domain.ExportFormat
		s := newTestServer(serverDeps{export: &stubExportService{
			exportFn: func(ctx context.Context, projectID string, format domain.ExportFormat) (string, error) {
				gotFormat = format
				return "# Project\n", nil
			},
		}})

		rec := doRequest(s, "GET", "/api/v1/projects/proj-1/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotFormat != domain.ExportFormatMarkdown {
			t.Errorf("expected markdown default, got %q", gotFormat)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/markdown") {
			t.Errorf("unexpected content type %q", ct)
		}
	})

	t.Run("bibtex", func(t *testing.T) {
		s := newTestServer(serverDeps{export: &stubExportService{
			exportFn: func(ctx context.Context, projectID string, format domain.ExportFormat) (string, error) {
				return "@misc{key,\n}\n", nil
			},
		}})

		rec := doRequest(s, "GET", "/api/v1/projects/proj-1/export?format=bibtex", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "bibtex") {
			t.Errorf("unexpected content type %q", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "references.bib") {
			t.Errorf("unexpected disposition %q", cd)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		s := newTestServer(serverDeps{})
		rec := doRequest(s, "GET", "/api/v1/projects/proj-1/export?format=pdf", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(serverDeps{docs: &stubDocumentService{
		statsFn: func(ctx context.Context) (*domain.CollectionStats, error) {
			return &domain.CollectionStats{Documents: 3, IndexedDocs: 2, Chunks: 40, IndexedVectors: 40}, nil
		},
	}})

	rec := doRequest(s, "GET", "/api/v1/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats domain.CollectionStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to decode stats: %v", err)
	}
	if stats.Documents != 3 || stats.Chunks != 40 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHandleDeleteDocument(t *testing.T) {
	var deleted string
	s := newTestServer(serverDeps{docs: &stubDocumentService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}})

	rec := doRequest(s, "DELETE", "/api/v1/documents/doc-9", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if deleted != "doc-9" {
		t.Errorf("expected doc-9 deleted, got %q", deleted)
	}
}
