package driving

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// QAService answers questions against indexed documents with citations
type QAService interface {
	// Ask retrieves context for the question and synthesizes a cited answer.
	// Returns domain.ErrNoContext when retrieval finds nothing.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error)

	// GetSession retrieves a session with its exchanges
	GetSession(ctx context.Context, id string) (*domain.SessionWithExchanges, error)

	// ListSessions retrieves sessions for a project
	ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error)
}

// RetrievalService queries the similarity index for relevant chunks
type RetrievalService interface {
	// Retrieve returns the top-k contexts for the question, rank 1..k.
	// An empty result is an empty slice, never an error.
	Retrieve(ctx context.Context, question string, topK int, projectID string) ([]domain.Context, error)
}

// AnswerService synthesizes a cited answer from retrieved contexts
type AnswerService interface {
	// Synthesize builds the citation-annotated prompt, invokes the
	// generation backend once, and parses the output into an answer with a
	// deduplicated citation list. Contexts must be non-empty.
	Synthesize(ctx context.Context, question string, contexts []domain.Context) (*domain.Answer, error)
}
