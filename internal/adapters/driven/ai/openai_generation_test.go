package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

func TestNewOpenAIGeneration_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIGeneration("", "gpt-4o-mini", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIGeneration_DefaultModel(t *testing.T) {
	svc, err := NewOpenAIGeneration("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", svc.Model())
	}
}

func TestOpenAIGeneration_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}

		if req["model"] != "gpt-4o-mini" {
			t.Errorf("model = %v, want gpt-4o-mini", req["model"])
		}
		if req["max_tokens"] != float64(2000) {
			t.Errorf("max_tokens = %v, want 2000", req["max_tokens"])
		}
		// A zero temperature must still reach the wire; an omitted field
		// would fall back to the API default of 1
		if _, ok := req["temperature"]; !ok {
			t.Error("expected temperature in request body")
		}

		messages, _ := req["messages"].([]interface{})
		if len(messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(messages))
		}
		first, _ := messages[0].(map[string]interface{})
		if first["role"] != "system" {
			t.Errorf("first message role = %v, want system", first["role"])
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": "Alpha is a term [1].\n\nSOURCES:\n[1] Document: a.txt",
					},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", server.URL+"/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	answer, err := svc.Complete(context.Background(), driven.CompletionRequest{
		System:      "You are a research assistant.",
		User:        "What is alpha?",
		Temperature: 0,
		MaxTokens:   2000,
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if answer == "" {
		t.Error("expected non-empty answer")
	}
}

func TestOpenAIGeneration_CompleteBackendDown(t *testing.T) {
	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", "http://127.0.0.1:1/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestOpenAIGeneration_CompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []interface{}{},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIGeneration("sk-test", "gpt-4o-mini", server.URL+"/v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), driven.CompletionRequest{User: "q"})
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestRequestTemperature(t *testing.T) {
	if requestTemperature(0) == 0 {
		t.Error("zero temperature must map to a serializable non-zero value")
	}
	if requestTemperature(0.7) != 0.7 {
		t.Error("non-zero temperature must pass through unchanged")
	}
}
