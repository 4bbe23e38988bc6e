package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure qaService implements QAService
var _ driving.QAService = (*qaService)(nil)

// sessionTitleLength caps the auto-generated session title taken from the
// first question.
const sessionTitleLength = 100

// qaService answers questions against indexed documents. It wires retrieval
// and synthesis together and keeps a best-effort session history: a failure
// to persist the exchange is logged, never allowed to discard a good answer.
type qaService struct {
	sessionStore driven.SessionStore
	projectStore driven.ProjectStore
	retriever    driving.RetrievalService
	answerer     driving.AnswerService
	defaultTopK  int
	logger       *slog.Logger
}

// QAServiceConfig holds dependencies for the QA service.
type QAServiceConfig struct {
	SessionStore driven.SessionStore
	ProjectStore driven.ProjectStore
	Retriever    driving.RetrievalService
	Answerer     driving.AnswerService

	// DefaultTopK applies when a request doesn't set top_k. Zero falls back
	// to the domain default.
	DefaultTopK int

	Logger *slog.Logger
}

// NewQAService creates a new QAService.
func NewQAService(cfg QAServiceConfig) driving.QAService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &qaService{
		sessionStore: cfg.SessionStore,
		projectStore: cfg.ProjectStore,
		retriever:    cfg.Retriever,
		answerer:     cfg.Answerer,
		defaultTopK:  cfg.DefaultTopK,
		logger:       logger,
	}
}

// Ask answers one question: resolve the session, retrieve context, synthesize
// a cited answer, then record the exchange.
func (s *qaService) Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error) {
	if req.TopK <= 0 && s.defaultTopK > 0 {
		req.TopK = s.defaultTopK
	}
	req.Normalize()
	if req.Question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	session, err := s.resolveSession(ctx, &req)
	if err != nil {
		return nil, err
	}

	contexts, err := s.retriever.Retrieve(ctx, req.Question, req.TopK, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	if len(contexts) == 0 {
		return nil, domain.ErrNoContext
	}

	answer, err := s.answerer.Synthesize(ctx, req.Question, contexts)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	s.recordExchange(ctx, session, req.Question, answer)

	return &domain.AskResult{
		SessionID:   session.ID,
		Question:    req.Question,
		Answer:      answer.Text,
		Citations:   answer.Citations,
		ContextUsed: answer.ContextUsed,
	}, nil
}

// GetSession retrieves a session with its exchanges in order.
func (s *qaService) GetSession(ctx context.Context, id string) (*domain.SessionWithExchanges, error) {
	session, err := s.sessionStore.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	exchanges, err := s.sessionStore.GetExchanges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get exchanges: %w", err)
	}

	return &domain.SessionWithExchanges{
		Session:   session,
		Exchanges: exchanges,
	}, nil
}

// ListSessions retrieves sessions for a project, newest first.
func (s *qaService) ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error) {
	// Apply defaults
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.sessionStore.ListSessions(ctx, projectID, limit, offset)
}

// resolveSession loads the session named by the request, or creates a fresh
// one scoped to the request's project. A provided session id must exist and
// supplies the project scope; otherwise the project itself must exist.
func (s *qaService) resolveSession(ctx context.Context, req *domain.AskRequest) (*domain.QASession, error) {
	if req.SessionID != "" {
		session, err := s.sessionStore.GetSession(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		req.ProjectID = session.ProjectID
		return session, nil
	}

	if req.ProjectID == "" {
		return nil, fmt.Errorf("%w: either project_id or session_id must be provided", domain.ErrInvalidInput)
	}
	if _, err := s.projectStore.Get(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &domain.QASession{
		ID:        uuid.New().String(),
		ProjectID: req.ProjectID,
		Title:     truncate(req.Question, sessionTitleLength),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionStore.SaveSession(ctx, session); err != nil {
		// History is best-effort; the answer flow continues without it.
		s.logger.Warn("failed to create session", "project_id", req.ProjectID, "error", err)
	}
	return session, nil
}

// recordExchange persists the question/answer pair and touches the session
// timestamp. Both writes are best-effort.
func (s *qaService) recordExchange(ctx context.Context, session *domain.QASession, question string, answer *domain.Answer) {
	exchange := &domain.QAExchange{
		ID:          uuid.New().String(),
		SessionID:   session.ID,
		Question:    question,
		Answer:      answer.Text,
		Citations:   answer.Citations,
		ContextUsed: answer.ContextUsed,
		CreatedAt:   time.Now(),
	}
	if err := s.sessionStore.SaveExchange(ctx, exchange); err != nil {
		s.logger.Warn("failed to save exchange", "session_id", session.ID, "error", err)
		return
	}

	session.UpdatedAt = time.Now()
	if err := s.sessionStore.SaveSession(ctx, session); err != nil {
		s.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
	}
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
