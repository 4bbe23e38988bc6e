package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure retrievalService implements RetrievalService
var _ driving.RetrievalService = (*retrievalService)(nil)

// maxTopK caps how many contexts a single question may request.
const maxTopK = 50

// retrievalService normalizes similarity-index results into ranked contexts.
// Index-specific result shapes stop at this boundary.
type retrievalService struct {
	index driven.VectorIndex
}

// NewRetrievalService creates a new RetrievalService backed by the given
// similarity index.
func NewRetrievalService(index driven.VectorIndex) driving.RetrievalService {
	return &retrievalService{index: index}
}

// Retrieve queries the index for the question and returns ranked contexts.
// An empty result is an empty slice, never an error; the caller decides
// whether that is a user-facing "no content indexed" condition.
func (s *retrievalService) Retrieve(ctx context.Context, question string, topK int, projectID string) ([]domain.Context, error) {
	// Apply defaults
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if topK > maxTopK {
		topK = maxTopK
	}

	var filter *driven.QueryFilter
	if projectID != "" {
		filter = &driven.QueryFilter{ProjectID: projectID}
	}

	matches, err := s.index.Query(ctx, question, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	contexts := make([]domain.Context, 0, len(matches))
	for i, m := range matches {
		c := domain.Context{
			ChunkReference: m.ID,
			Content:        m.Content,
			Metadata:       m.Metadata,
			Rank:           i + 1,
		}
		if m.Distance != nil {
			// Cosine distance to similarity, clamped to [0, 1].
			score := 1 - *m.Distance
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
			c.Score = &score
		}
		contexts = append(contexts, c)
	}

	return contexts, nil
}
