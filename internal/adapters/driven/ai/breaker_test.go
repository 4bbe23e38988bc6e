package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// flakyGeneration fails every Complete call until err is cleared.
type flakyGeneration struct {
	err   error
	calls int
}

func (f *flakyGeneration) Complete(ctx context.Context, req driven.CompletionRequest) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "answer", nil
}

func (f *flakyGeneration) Model() string { return "flaky-model" }

func (f *flakyGeneration) Ping(ctx context.Context) error { return nil }

func (f *flakyGeneration) Close() error { return nil }

func TestGenerationBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyGeneration{err: errors.New("backend exploded")}
	breaker := NewGenerationBreaker(inner, BreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()
	req := driven.CompletionRequest{User: "q"}

	for i := 0; i < 2; i++ {
		if _, err := breaker.Complete(ctx, req); err == nil {
			t.Fatal("expected backend error")
		}
	}
	if inner.calls != 2 {
		t.Fatalf("inner calls = %d, want 2", inner.calls)
	}

	// Circuit is open now; the backend must not be reached
	_, err := breaker.Complete(ctx, req)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable while open, got %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls after open = %d, want 2", inner.calls)
	}
}

func TestGenerationBreaker_RecoversAfterTimeout(t *testing.T) {
	inner := &flakyGeneration{err: errors.New("backend exploded")}
	breaker := NewGenerationBreaker(inner, BreakerConfig{
		FailureThreshold: 1,
		OpenTimeout:      30 * time.Millisecond,
	})
	ctx := context.Background()
	req := driven.CompletionRequest{User: "q"}

	if _, err := breaker.Complete(ctx, req); err == nil {
		t.Fatal("expected backend error")
	}
	if _, err := breaker.Complete(ctx, req); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	// Backend healed; after the open timeout the probe call goes through
	inner.err = nil
	time.Sleep(50 * time.Millisecond)

	answer, err := breaker.Complete(ctx, req)
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if answer != "answer" {
		t.Errorf("answer = %q", answer)
	}
}

func TestGenerationBreaker_CancellationDoesNotTrip(t *testing.T) {
	inner := &flakyGeneration{err: context.Canceled}
	breaker := NewGenerationBreaker(inner, BreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
	})
	ctx := context.Background()
	req := driven.CompletionRequest{User: "q"}

	// Repeated caller cancellations are not backend failures
	for i := 0; i < 5; i++ {
		if _, err := breaker.Complete(ctx, req); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	}

	inner.err = nil
	if _, err := breaker.Complete(ctx, req); err != nil {
		t.Errorf("circuit should still be closed, got %v", err)
	}
}

func TestGenerationBreaker_Passthrough(t *testing.T) {
	inner := &flakyGeneration{}
	breaker := NewGenerationBreaker(inner, DefaultBreakerConfig())

	if breaker.Model() != "flaky-model" {
		t.Errorf("Model = %s", breaker.Model())
	}
	if err := breaker.Ping(context.Background()); err != nil {
		t.Errorf("Ping error: %v", err)
	}
	if err := breaker.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}
