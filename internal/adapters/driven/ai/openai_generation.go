package ai

import (
	"context"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Ensure OpenAIGeneration implements GenerationService
var _ driven.GenerationService = (*OpenAIGeneration)(nil)

// OpenAIGeneration implements GenerationService using OpenAI chat completions
type OpenAIGeneration struct {
	client *openai.Client
	model  string
}

// NewOpenAIGeneration creates a new OpenAI generation service
func NewOpenAIGeneration(apiKey, model, baseURL string) (driven.GenerationService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	if model == "" {
		model = "gpt-4o-mini"
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIGeneration{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Complete performs one synchronous chat completion call.
func (g *OpenAIGeneration) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: requestTemperature(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned", domain.ErrGenerationFailed)
	}

	return resp.Choices[0].Message.Content, nil
}

// requestTemperature maps a requested temperature onto the wire value.
// The client omits a zero temperature from the request body, and the API
// then falls back to its default of 1; a denormal float survives
// serialization and the API treats it as zero.
func requestTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

// Model returns the model name being used
func (g *OpenAIGeneration) Model() string {
	return g.model
}

// Ping verifies the generation service is available
func (g *OpenAIGeneration) Ping(ctx context.Context) error {
	if _, err := g.client.ListModels(ctx); err != nil {
		return fmt.Errorf("generation service unreachable: %w", err)
	}
	return nil
}

// Close releases resources held by the generation service
func (g *OpenAIGeneration) Close() error {
	return nil
}
