package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, project_id, filename, content_type, raw_text, status, processing_error,
			title, author, page_count, uploaded_at, indexed_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			content_type = EXCLUDED.content_type,
			raw_text = EXCLUDED.raw_text,
			status = EXCLUDED.status,
			processing_error = EXCLUDED.processing_error,
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			page_count = EXCLUDED.page_count,
			indexed_at = EXCLUDED.indexed_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ProjectID,
		doc.Filename,
		doc.ContentType,
		doc.RawText,
		string(doc.Status),
		doc.ProcessingError,
		doc.Title,
		doc.Author,
		doc.PageCount,
		doc.UploadedAt,
		NullTime(doc.IndexedAt),
		doc.UpdatedAt,
	)
	return err
}

// Get retrieves a document by ID
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `
		SELECT id, project_id, filename, content_type, raw_text, status, processing_error,
			title, author, page_count, uploaded_at, indexed_at, updated_at
		FROM documents
		WHERE id = $1
	`

	return s.scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetByProject retrieves all documents for a project with pagination
func (s *DocumentStore) GetByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT id, project_id, filename, content_type, raw_text, status, processing_error,
			title, author, page_count, uploaded_at, indexed_at, updated_at
		FROM documents
		WHERE project_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanDocuments(rows)
}

// ListByStatus retrieves documents in a given status, oldest first
func (s *DocumentStore) ListByStatus(ctx context.Context, status domain.DocumentStatus, limit int) ([]*domain.Document, error) {
	query := `
		SELECT id, project_id, filename, content_type, raw_text, status, processing_error,
			title, author, page_count, uploaded_at, indexed_at, updated_at
		FROM documents
		WHERE status = $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanDocuments(rows)
}

// ListStale retrieves documents stuck in a status since before the cutoff
func (s *DocumentStore) ListStale(ctx context.Context, status domain.DocumentStatus, cutoff time.Time, limit int) ([]*domain.Document, error) {
	query := `
		SELECT id, project_id, filename, content_type, raw_text, status, processing_error,
			title, author, page_count, uploaded_at, indexed_at, updated_at
		FROM documents
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
		LIMIT $3
	`

	rows, err := s.db.QueryContext(ctx, query, string(status), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanDocuments(rows)
}

func (s *DocumentStore) scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var indexedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Filename,
		&doc.ContentType,
		&doc.RawText,
		&doc.Status,
		&doc.ProcessingError,
		&doc.Title,
		&doc.Author,
		&doc.PageCount,
		&doc.UploadedAt,
		&indexedAt,
		&doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.IndexedAt = TimePtr(indexedAt)

	return &doc, nil
}

func (s *DocumentStore) scanDocuments(rows *sql.Rows) ([]*domain.Document, error) {
	var docs []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var indexedAt sql.NullTime

		err := rows.Scan(
			&doc.ID,
			&doc.ProjectID,
			&doc.Filename,
			&doc.ContentType,
			&doc.RawText,
			&doc.Status,
			&doc.ProcessingError,
			&doc.Title,
			&doc.Author,
			&doc.PageCount,
			&doc.UploadedAt,
			&indexedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		doc.IndexedAt = TimePtr(indexedAt)

		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// Delete deletes a document
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}

	return nil
}

// DeleteByProject deletes all documents for a project
func (s *DocumentStore) DeleteByProject(ctx context.Context, projectID string) error {
	query := `DELETE FROM documents WHERE project_id = $1`
	_, err := s.db.ExecContext(ctx, query, projectID)
	return err
}

// Count returns total document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM documents`
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// CountByProject returns document count for a project
func (s *DocumentStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE project_id = $1`
	var count int
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&count)
	return count, err
}

// CountByStatus returns document count for a status
func (s *DocumentStore) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE status = $1`
	var count int
	err := s.db.QueryRowContext(ctx, query, string(status)).Scan(&count)
	return count, err
}
