package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Ensure GenerationBreaker implements GenerationService
var _ driven.GenerationService = (*GenerationBreaker)(nil)

// BreakerConfig tunes the generation circuit breaker
type BreakerConfig struct {
	// FailureThreshold is how many consecutive failures open the circuit
	FailureThreshold uint32

	// OpenTimeout is how long the circuit stays open before a probe call
	OpenTimeout time.Duration

	// Logger receives state transition events
	Logger *slog.Logger
}

// DefaultBreakerConfig returns sensible defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// GenerationBreaker wraps a GenerationService behind a circuit breaker so a
// down backend fails fast instead of tying up workers and HTTP handlers in
// timeouts. While the circuit is open, Complete returns
// ErrServiceUnavailable immediately.
type GenerationBreaker struct {
	inner driven.GenerationService
	cb    *gobreaker.CircuitBreaker
}

// NewGenerationBreaker decorates the inner generation service.
func NewGenerationBreaker(inner driven.GenerationService, cfg BreakerConfig) *GenerationBreaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// Caller-side cancellation is not a backend failure
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("generation circuit state changed",
				"from", from.String(),
				"to", to.String())
		},
	})

	return &GenerationBreaker{inner: inner, cb: cb}
}

// Complete performs one completion call through the circuit breaker.
func (b *GenerationBreaker) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: generation backend circuit open", domain.ErrServiceUnavailable)
		}
		return "", err
	}

	text, ok := result.(string)
	if !ok {
		return "", fmt.Errorf("%w: unexpected completion result type", domain.ErrGenerationFailed)
	}
	return text, nil
}

// Model returns the inner service's model name
func (b *GenerationBreaker) Model() string {
	return b.inner.Model()
}

// Ping bypasses the breaker so health checks observe the real backend state.
func (b *GenerationBreaker) Ping(ctx context.Context) error {
	return b.inner.Ping(ctx)
}

// Close releases the inner service's resources
func (b *GenerationBreaker) Close() error {
	return b.inner.Close()
}
