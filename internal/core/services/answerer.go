package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// defaultMaxTokens bounds the generated answer length.
const defaultMaxTokens = 2000

// sourcesMarkers introduce the model-authored bibliography section. The
// variants are matched in this order; everything after the marker is
// discarded because citations are derived structurally from the answer body,
// never from the model's self-reported source list.
var sourcesMarkers = []string{"SOURCES:", "Sources:"}

// citationPattern matches bracketed source numbers in the answer body.
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

const systemPrompt = `You are a research assistant that answers questions using provided source documents.
Always cite your sources using [1], [2], etc. format when referencing information from the provided contexts.
Be precise and factual. If information is not in the contexts, say so clearly.

After your answer, provide a SOURCES section listing all citations used in the format:
SOURCES:
[1] Document: filename.pdf, Page: X, Paragraph: Y
[2] Document: filename2.pdf, Page: A, Paragraph: B`

// answerService builds citation-annotated prompts, invokes the generation
// backend once per question, and parses the output into an answer with a
// validated citation list.
type answerService struct {
	generator driven.GenerationService
	maxTokens int
}

// NewAnswerService creates a new AnswerService. maxTokens bounds the
// generated output; values <= 0 fall back to the default.
func NewAnswerService(generator driven.GenerationService, maxTokens int) driving.AnswerService {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &answerService{
		generator: generator,
		maxTokens: maxTokens,
	}
}

// Synthesize generates a grounded answer for the question from the given
// contexts. Generation backend failures propagate unretried; the retry
// policy belongs to the caller.
func (s *answerService) Synthesize(ctx context.Context, question string, contexts []domain.Context) (*domain.Answer, error) {
	if len(contexts) == 0 {
		return nil, fmt.Errorf("%w: no contexts provided", domain.ErrInvalidInput)
	}

	// Promote contexts to numbered sources in rank order.
	sources := make([]domain.SourceRef, len(contexts))
	for i, c := range contexts {
		sources[i] = domain.NewSourceRef(c)
	}

	raw, err := s.generator.Complete(ctx, driven.CompletionRequest{
		System:      systemPrompt,
		User:        buildUserPrompt(question, sources),
		Temperature: 0,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generation backend: %w", err)
	}

	answer := stripSourcesSection(raw)

	return &domain.Answer{
		Text:        answer,
		Citations:   extractCitations(answer, sources),
		ContextUsed: len(contexts),
	}, nil
}

// buildUserPrompt embeds each source's text prefixed by its bracketed number
// ahead of the question.
func buildUserPrompt(question string, sources []domain.SourceRef) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("[%d] %s", src.SourceNum, src.Content)
	}

	return fmt.Sprintf(
		"Contexts:\n\n%s\n\nQuestion: %s\n\nProvide a comprehensive answer with citations. Include a SOURCES section at the end.",
		strings.Join(parts, "\n\n"),
		question,
	)
}

// stripSourcesSection cuts the raw model output at the sources marker and
// returns the trimmed answer body. Output without a marker is kept whole.
func stripSourcesSection(raw string) string {
	for _, marker := range sourcesMarkers {
		if idx := strings.Index(raw, marker); idx != -1 {
			return strings.TrimSpace(raw[:idx])
		}
	}
	return strings.TrimSpace(raw)
}

// extractCitations scans the answer body for bracketed source numbers in
// left-to-right order and resolves each against the offered sources.
// Unmatched numbers are silently ignored. The result holds at most one
// citation per distinct chunk reference, ordered by first appearance.
func extractCitations(answer string, sources []domain.SourceRef) []domain.Citation {
	bySourceNum := make(map[int]domain.SourceRef, len(sources))
	for _, src := range sources {
		bySourceNum[src.SourceNum] = src
	}

	seen := make(map[string]bool)
	citations := make([]domain.Citation, 0)

	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		num, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		src, ok := bySourceNum[num]
		if !ok {
			continue
		}
		if seen[src.ChunkReference] {
			continue
		}
		seen[src.ChunkReference] = true
		citations = append(citations, src)
	}

	return citations
}
