package postgres

import (
	"context"
	"database/sql"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Only position metadata lives here; the vectors belong to the
// similarity index and are addressed by embedding_id.
type ChunkStore struct {
	db *DB
}

// NewChunkStore creates a new ChunkStore
func NewChunkStore(db *DB) *ChunkStore {
	return &ChunkStore{db: db}
}

// SaveBatch saves a document's chunks in a single transaction
func (s *ChunkStore) SaveBatch(ctx context.Context, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO chunks (id, document_id, chunk_index, content, page_number,
				paragraph_number, char_start, char_end, embedding_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				content = EXCLUDED.content,
				chunk_index = EXCLUDED.chunk_index,
				page_number = EXCLUDED.page_number,
				paragraph_number = EXCLUDED.paragraph_number,
				char_start = EXCLUDED.char_start,
				char_end = EXCLUDED.char_end,
				embedding_id = EXCLUDED.embedding_id
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, chunk := range chunks {
			_, err = stmt.ExecContext(ctx,
				chunk.ID,
				chunk.DocumentID,
				chunk.Index,
				chunk.Content,
				NullInt(chunk.PageNumber),
				NullInt(chunk.ParagraphNumber),
				NullInt(chunk.CharStart),
				NullInt(chunk.CharEnd),
				chunk.EmbeddingID,
				chunk.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByDocument retrieves all chunks for a document in chunk-index order
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, page_number,
			paragraph_number, char_start, char_end, embedding_id, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var pageNumber, paragraphNumber, charStart, charEnd sql.NullInt64

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Content,
			&pageNumber,
			&paragraphNumber,
			&charStart,
			&charEnd,
			&chunk.EmbeddingID,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		chunk.PageNumber = IntPtr(pageNumber)
		chunk.ParagraphNumber = IntPtr(paragraphNumber)
		chunk.CharStart = IntPtr(charStart)
		chunk.CharEnd = IntPtr(charEnd)

		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// Delete deletes a chunk
func (s *ChunkStore) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM chunks WHERE id = $1`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	query := `DELETE FROM chunks WHERE document_id = $1`
	_, err := s.db.ExecContext(ctx, query, documentID)
	return err
}

// Count returns total chunk count
func (s *ChunkStore) Count(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM chunks`
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// CountByDocument returns chunk count for a document
func (s *ChunkStore) CountByDocument(ctx context.Context, documentID string) (int, error) {
	query := `SELECT COUNT(*) FROM chunks WHERE document_id = $1`
	var count int
	err := s.db.QueryRowContext(ctx, query, documentID).Scan(&count)
	return count, err
}
