package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore implements driven.SessionStore using PostgreSQL.
// Sessions and their exchanges live in separate tables; citations are
// stored as a JSONB array on each exchange row.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// SaveSession creates or updates a session
func (s *SessionStore) SaveSession(ctx context.Context, session *domain.QASession) error {
	query := `
		INSERT INTO qa_sessions (id, project_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		NullString(session.ProjectID),
		session.Title,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

// GetSession retrieves a session by ID
func (s *SessionStore) GetSession(ctx context.Context, id string) (*domain.QASession, error) {
	query := `
		SELECT id, project_id, title, created_at, updated_at
		FROM qa_sessions
		WHERE id = $1
	`

	var session domain.QASession
	var projectID sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&projectID,
		&session.Title,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	session.ProjectID = projectID.String

	return &session, nil
}

// ListSessions retrieves sessions for a project, newest first
func (s *SessionStore) ListSessions(ctx context.Context, projectID string, limit, offset int) ([]*domain.QASession, error) {
	query := `
		SELECT id, project_id, title, created_at, updated_at
		FROM qa_sessions
		WHERE project_id = $1
		ORDER BY updated_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*domain.QASession
	for rows.Next() {
		var session domain.QASession
		var pid sql.NullString

		err := rows.Scan(
			&session.ID,
			&pid,
			&session.Title,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		session.ProjectID = pid.String
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// SaveExchange appends a question/answer pair to a session and bumps the
// session's updated_at so recently active sessions list first.
func (s *SessionStore) SaveExchange(ctx context.Context, exchange *domain.QAExchange) error {
	citations := exchange.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return err
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO qa_exchanges (id, session_id, question, answer, citations, context_used, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`

		_, err := tx.ExecContext(ctx, query,
			exchange.ID,
			exchange.SessionID,
			exchange.Question,
			exchange.Answer,
			citationsJSON,
			exchange.ContextUsed,
			exchange.CreatedAt,
		)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE qa_sessions SET updated_at = $1 WHERE id = $2`,
			time.Now(), exchange.SessionID,
		)
		return err
	})
}

// GetExchanges retrieves a session's exchanges in order
func (s *SessionStore) GetExchanges(ctx context.Context, sessionID string) ([]*domain.QAExchange, error) {
	query := `
		SELECT id, session_id, question, answer, citations, context_used, created_at
		FROM qa_exchanges
		WHERE session_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exchanges []*domain.QAExchange
	for rows.Next() {
		var exchange domain.QAExchange
		var citationsJSON []byte

		err := rows.Scan(
			&exchange.ID,
			&exchange.SessionID,
			&exchange.Question,
			&exchange.Answer,
			&citationsJSON,
			&exchange.ContextUsed,
			&exchange.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(citationsJSON) > 0 {
			if err := json.Unmarshal(citationsJSON, &exchange.Citations); err != nil {
				return nil, err
			}
		}
		if exchange.Citations == nil {
			exchange.Citations = []domain.Citation{}
		}

		exchanges = append(exchanges, &exchange)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exchanges, nil
}

// DeleteSession deletes a session; its exchanges go with it via cascade
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM qa_sessions WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrSessionNotFound
	}

	return nil
}

// DeleteByProject deletes all sessions for a project
func (s *SessionStore) DeleteByProject(ctx context.Context, projectID string) error {
	query := `DELETE FROM qa_sessions WHERE project_id = $1`
	_, err := s.db.ExecContext(ctx, query, projectID)
	return err
}

// CountSessions returns the total session count
func (s *SessionStore) CountSessions(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM qa_sessions`
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}
