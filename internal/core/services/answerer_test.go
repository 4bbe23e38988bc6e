package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven/mocks"
)

func testContexts(n int) []domain.Context {
	contexts := make([]domain.Context, n)
	for i := range contexts {
		page := i + 1
		contexts[i] = domain.Context{
			ChunkReference: fmt.Sprintf("chunk_%d", i),
			Content:        fmt.Sprintf("content of chunk %d", i),
			Metadata: domain.ChunkMetadata{
				DocumentID: fmt.Sprintf("doc-%d", i),
				Filename:   fmt.Sprintf("file%d.txt", i),
				ChunkIndex: i,
				PageNumber: &page,
			},
			Rank: i + 1,
		}
	}
	return contexts
}

func TestAnswerService_Synthesize(t *testing.T) {
	gen := mocks.NewMockGenerationService(
		"Fact A [1]. Fact B [2]. Fact A again [1].\n\nSOURCES:\n[1] Document: file0.txt\n[2] Document: file1.txt")
	svc := NewAnswerService(gen, 0)

	answer, err := svc.Synthesize(context.Background(), "what are the facts?", testContexts(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if answer.Text != "Fact A [1]. Fact B [2]. Fact A again [1]." {
		t.Errorf("sources section not stripped: %q", answer.Text)
	}
	if answer.ContextUsed != 3 {
		t.Errorf("expected context_used 3, got %d", answer.ContextUsed)
	}

	// Repeated [1] collapses to one citation; order follows first appearance.
	if len(answer.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(answer.Citations))
	}
	if answer.Citations[0].SourceNum != 1 || answer.Citations[1].SourceNum != 2 {
		t.Errorf("expected citations [1, 2], got [%d, %d]",
			answer.Citations[0].SourceNum, answer.Citations[1].SourceNum)
	}
	if answer.Citations[0].ChunkReference != "chunk_0" {
		t.Errorf("citation 1 references %s", answer.Citations[0].ChunkReference)
	}
	if answer.Citations[0].Filename != "file0.txt" {
		t.Errorf("citation provenance not carried: %+v", answer.Citations[0])
	}
}

func TestAnswerService_Synthesize_PromptShape(t *testing.T) {
	gen := mocks.NewMockGenerationService("ok [1]")
	svc := NewAnswerService(gen, 512)

	if _, err := svc.Synthesize(context.Background(), "the question", testContexts(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := gen.LastRequest
	if req.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", req.Temperature)
	}
	if req.MaxTokens != 512 {
		t.Errorf("expected max tokens 512, got %d", req.MaxTokens)
	}
	if !strings.Contains(req.System, "research assistant") {
		t.Errorf("unexpected system prompt: %q", req.System)
	}
	if !strings.Contains(req.User, "[1] content of chunk 0\n\n[2] content of chunk 1") {
		t.Errorf("contexts not numbered in prompt: %q", req.User)
	}
	if !strings.Contains(req.User, "Question: the question") {
		t.Errorf("question missing from prompt: %q", req.User)
	}
}

func TestAnswerService_Synthesize_NoContexts(t *testing.T) {
	svc := NewAnswerService(mocks.NewMockGenerationService(), 0)

	_, err := svc.Synthesize(context.Background(), "question", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswerService_Synthesize_GenerationFailure(t *testing.T) {
	gen := mocks.NewMockGenerationService()
	gen.CompleteErr = fmt.Errorf("%w: rate limited", domain.ErrGenerationFailed)
	svc := NewAnswerService(gen, 0)

	_, err := svc.Synthesize(context.Background(), "question", testContexts(1))
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestAnswerService_Synthesize_NoCitations(t *testing.T) {
	gen := mocks.NewMockGenerationService("The provided contexts do not mention this.")
	svc := NewAnswerService(gen, 0)

	answer, err := svc.Synthesize(context.Background(), "unknown topic", testContexts(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer.Citations == nil {
		t.Fatal("citations must be an empty slice, not nil")
	}
	if len(answer.Citations) != 0 {
		t.Errorf("expected no citations, got %d", len(answer.Citations))
	}
}

func TestStripSourcesSection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "uppercase marker",
			raw:  "Answer body.\n\nSOURCES:\n[1] something",
			want: "Answer body.",
		},
		{
			name: "titlecase marker",
			raw:  "Answer body.\n\nSources:\n[1] something",
			want: "Answer body.",
		},
		{
			name: "no marker",
			raw:  "  Answer body only.  ",
			want: "Answer body only.",
		},
		{
			// SOURCES: wins even when Sources: appears earlier in the text.
			name: "uppercase preferred over titlecase",
			raw:  "Body with Sources: inline mention.\nSOURCES:\n[1] x",
			want: "Body with Sources: inline mention.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripSourcesSection(tt.raw); got != tt.want {
				t.Errorf("stripSourcesSection(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestExtractCitations_UnknownNumbersIgnored(t *testing.T) {
	sources := []domain.SourceRef{
		{SourceNum: 1, ChunkReference: "chunk_a"},
		{SourceNum: 2, ChunkReference: "chunk_b"},
	}

	citations := extractCitations("Claim [2]. Bogus [99]. Another [1].", sources)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(citations))
	}
	if citations[0].SourceNum != 2 || citations[1].SourceNum != 1 {
		t.Errorf("expected first-appearance order [2, 1], got [%d, %d]",
			citations[0].SourceNum, citations[1].SourceNum)
	}
}

func TestExtractCitations_DedupesByChunk(t *testing.T) {
	// Two source numbers can point at the same chunk when the same content
	// is offered twice; only the first mention is kept.
	sources := []domain.SourceRef{
		{SourceNum: 1, ChunkReference: "chunk_same"},
		{SourceNum: 2, ChunkReference: "chunk_same"},
	}

	citations := extractCitations("First [1] then [2].", sources)
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation after dedupe, got %d", len(citations))
	}
	if citations[0].SourceNum != 1 {
		t.Errorf("expected the first mention kept, got source %d", citations[0].SourceNum)
	}
}

func TestNewSourceRef_SnippetTruncation(t *testing.T) {
	long := strings.Repeat("x", domain.SnippetLength+50)
	ref := domain.NewSourceRef(domain.Context{
		ChunkReference: "chunk_long",
		Content:        long,
		Rank:           1,
	})

	if len(ref.Snippet) != domain.SnippetLength+3 {
		t.Errorf("expected snippet of %d chars plus ellipsis, got %d", domain.SnippetLength, len(ref.Snippet))
	}
	if !strings.HasSuffix(ref.Snippet, "...") {
		t.Errorf("expected ellipsis suffix, got %q", ref.Snippet[len(ref.Snippet)-10:])
	}
	if ref.Content != long {
		t.Error("full content must survive for prompt construction")
	}
}
