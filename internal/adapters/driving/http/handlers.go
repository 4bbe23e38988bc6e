package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// CreateProjectRequest carries the fields for a new project
// @Description New project fields
type CreateProjectRequest struct {
	Name        string `json:"name" example:"climate-review"`
	Description string `json:"description,omitempty" example:"Literature review corpus"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the database, similarity index, and task queue connections
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A dependency is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.db.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("database: %v", err))
		return
	}
	if s.index != nil {
		if err := s.index.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("index: %v", err))
			return
		}
	}
	if s.queue != nil {
		if err := s.queue.Ping(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("queue: %v", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Project endpoints

// handleCreateProject godoc
// @Summary      Create project
// @Description  Create a project scoping documents and QA sessions
// @Tags         Projects
// @Accept       json
// @Produce      json
// @Param        request  body      CreateProjectRequest  true  "Project fields"
// @Success      201      {object}  domain.Project
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /projects [post]
func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	project, err := s.projectService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

// handleListProjects godoc
// @Summary      List projects
// @Description  List projects, newest first
// @Tags         Projects
// @Produce      json
// @Param        limit   query     int  false  "Page size (default 20, max 100)"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {array}   domain.Project
// @Failure      500     {object}  ErrorResponse  "Internal server error"
// @Router       /projects [get]
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	projects, err := s.projectService.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// handleGetProject godoc
// @Summary      Get project
// @Description  Get a project by ID
// @Tags         Projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  domain.Project
// @Failure      404  {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id} [get]
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.projectService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

// handleDeleteProject godoc
// @Summary      Delete project
// @Description  Delete a project, cascading to its documents, chunks, sessions, and index entries
// @Tags         Projects
// @Produce      json
// @Param        id   path      string  true  "Project ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Project not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /projects/{id} [delete]
func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projectService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleExportProject godoc
// @Summary      Export project
// @Description  Render a project's corpus as a markdown summary or a BibTeX bibliography
// @Tags         Projects
// @Produce      plain
// @Param        id      path      string  true   "Project ID"
// @Param        format  query     string  false  "markdown (default) or bibtex"
// @Success      200     {string}  string
// @Failure      400     {object}  ErrorResponse  "Unknown format"
// @Failure      404     {object}  ErrorResponse  "Project not found"
// @Router       /projects/{id}/export [get]
func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	format := domain.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = domain.ExportFormatMarkdown
	}
	if !format.Valid() {
		writeError(w, http.StatusBadRequest, "format must be markdown or bibtex")
		return
	}

	content, err := s.exportService.Export(r.Context(), r.PathValue("id"), format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	switch format {
	case domain.ExportFormatBibTeX:
		w.Header().Set("Content-Type", "application/x-bibtex; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="references.bib"`)
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="project-summary.md"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// Document endpoints

// handleCreateDocument godoc
// @Summary      Register document
// @Description  Register a text document and dispatch background indexing. Indexing runs asynchronously; poll the document status.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      driving.CreateDocumentRequest  true  "Document fields"
// @Success      202      {object}  domain.Document
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      404      {object}  ErrorResponse  "Project not found"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /documents [post]
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	doc, err := s.docService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

// handleListDocuments godoc
// @Summary      List documents
// @Description  List a project's documents
// @Tags         Documents
// @Produce      json
// @Param        project_id  query     string  true   "Project ID"
// @Param        limit       query     int     false  "Page size (default 20, max 100)"
// @Param        offset      query     int     false  "Page offset"
// @Success      200         {array}   domain.Document
// @Failure      400         {object}  ErrorResponse  "Missing project_id"
// @Failure      500         {object}  ErrorResponse  "Internal server error"
// @Router       /documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	limit, offset := parsePagination(r)
	docs, err := s.docService.GetByProject(r.Context(), projectID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docs)
}

// handleGetDocument godoc
// @Summary      Get document
// @Description  Get a document's metadata and indexing status
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.Document
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleGetDocumentChunks godoc
// @Summary      Get document chunks
// @Description  Get a document with its position-tracked chunks in chunk-index order
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentWithChunks
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Router       /documents/{id}/chunks [get]
func (s *Server) handleGetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	doc, err := s.docService.GetWithChunks(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Delete a document, its chunks, and its index entries
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleReindexDocument godoc
// @Summary      Reindex document
// @Description  Re-dispatch indexing for a failed or stranded document
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Document not found"
// @Failure      409  {object}  ErrorResponse  "Already processing"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /documents/{id}/reindex [post]
func (s *Server) handleReindexDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.docService.Reindex(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// Question-answering endpoints

// handleAsk godoc
// @Summary      Ask a question
// @Description  Answer a question against a project's indexed documents, returning the answer with its validated citations
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        request  body      domain.AskRequest  true  "Question and scope"
// @Success      200      {object}  domain.AskResult
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      404      {object}  ErrorResponse  "No relevant context, or project/session not found"
// @Failure      502      {object}  ErrorResponse  "Generation backend failed"
// @Router       /qa/ask [post]
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.qaService.Ask(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleListSessions godoc
// @Summary      List QA sessions
// @Description  List a project's question-answering sessions, newest first
// @Tags         QA
// @Produce      json
// @Param        project_id  query     string  true   "Project ID"
// @Param        limit       query     int     false  "Page size (default 20, max 100)"
// @Param        offset      query     int     false  "Page offset"
// @Success      200         {array}   domain.QASession
// @Failure      400         {object}  ErrorResponse  "Missing project_id"
// @Router       /qa/sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}

	limit, offset := parsePagination(r)
	sessions, err := s.qaService.ListSessions(r.Context(), projectID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// handleGetSession godoc
// @Summary      Get QA session
// @Description  Get a session with its question/answer exchanges in order
// @Tags         QA
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  domain.SessionWithExchanges
// @Failure      404  {object}  ErrorResponse  "Session not found"
// @Router       /qa/sessions/{id} [get]
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.qaService.GetSession(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// handleStats godoc
// @Summary      Corpus statistics
// @Description  Document, chunk, and session counts plus index cardinality
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  domain.CollectionStats
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.docService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain sentinels to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoContext):
		writeError(w, http.StatusNotFound, "no relevant context found in indexed documents")
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrAlreadyProcessing):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrGenerationFailed), errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// parsePagination reads limit/offset query params, leaving zero values for
// the services to default and clamp.
func parsePagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}
	return limit, offset
}
