package driven

import (
	"context"
)

// CompletionRequest is a single non-streaming generation call.
type CompletionRequest struct {
	// System is the system prompt establishing behavior and output format.
	System string

	// User is the user message (context block plus question).
	User string

	// Temperature controls sampling; answer synthesis uses 0 for
	// deterministic output.
	Temperature float32

	// MaxTokens bounds the generated output length.
	MaxTokens int
}

// GenerationService produces text completions for answer synthesis
type GenerationService interface {
	// Complete performs one synchronous completion call.
	// Cancellation via ctx propagates to the backend client.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the generation service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generation service
	Close() error
}
