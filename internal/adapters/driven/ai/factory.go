package ai

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// ProviderOpenAI is the only generation/embedding provider currently wired.
const ProviderOpenAI = "openai"

// Config selects and configures the AI provider
type Config struct {
	// Provider names the backend; empty defaults to openai
	Provider string

	// APIKey authenticates against the provider
	APIKey string

	// EmbeddingModel is the embedding model name (provider default when empty)
	EmbeddingModel string

	// GenerationModel is the completion model name (provider default when empty)
	GenerationModel string

	// BaseURL overrides the provider endpoint (for proxies and tests)
	BaseURL string
}

// NewEmbeddingService creates an embedding service for the configured provider.
func NewEmbeddingService(cfg Config) (driven.EmbeddingService, error) {
	switch normalizeProvider(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIEmbedding(cfg.APIKey, cfg.EmbeddingModel, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}

// NewGenerationService creates a generation service for the configured provider.
func NewGenerationService(cfg Config) (driven.GenerationService, error) {
	switch normalizeProvider(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIGeneration(cfg.APIKey, cfg.GenerationModel, cfg.BaseURL)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}

func normalizeProvider(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}
