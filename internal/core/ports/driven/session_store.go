package driven

import (
	"context"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
)

// SessionStore handles QA session persistence (PostgreSQL)
type SessionStore interface {
	// SaveSession creates or updates a session
	SaveSession(ctx context.Context, session *domain.QASession) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, id string) (*domain.QASession, error)

	// ListSessions retrieves sessions for a project, newest first
	ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error)

	// SaveExchange appends a question/answer pair to a session
	SaveExchange(ctx context.Context, exchange *domain.QAExchange) error

	// GetExchanges retrieves a session's exchanges in order
	GetExchanges(ctx context.Context, sessionID string) ([]*domain.QAExchange, error)

	// DeleteSession deletes a session and its exchanges
	DeleteSession(ctx context.Context, id string) error

	// DeleteByProject deletes all sessions for a project
	DeleteByProject(ctx context.Context, projectID string) error

	// CountSessions returns the total session count
	CountSessions(ctx context.Context) (int, error)
}
