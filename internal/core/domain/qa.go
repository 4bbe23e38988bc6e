package domain

import (
	"strings"
	"time"
)

// SnippetLength is the citation preview cap; longer source content is cut
// here and suffixed with an ellipsis marker.
const SnippetLength = 200

// DefaultTopK is the number of contexts retrieved per question when the
// request does not override it.
const DefaultTopK = 5

// ChunkMetadata is the provenance carried by every index entry, recovered
// verbatim at query time. Index-specific result shapes are normalized into
// this at the retriever boundary and never leak past it.
type ChunkMetadata struct {
	DocumentID      string `json:"document_id"`
	ProjectID       string `json:"project_id,omitempty"`
	Filename        string `json:"filename,omitempty"`
	ChunkIndex      int    `json:"chunk_index"`
	PageNumber      *int   `json:"page_number,omitempty"`
	ParagraphNumber *int   `json:"paragraph_number,omitempty"`
	CharStart       *int   `json:"char_start,omitempty"`
	CharEnd         *int   `json:"char_end,omitempty"`
}

// Context is a chunk returned by a similarity query, annotated with rank and
// score. Ephemeral: scoped to a single question-answering call, never
// persisted.
type Context struct {
	ChunkReference string        `json:"chunk_reference"`
	Content        string        `json:"content"`
	Metadata       ChunkMetadata `json:"metadata"`
	Score          *float64      `json:"score,omitempty"`
	Rank           int           `json:"rank"`
}

// SourceRef is a context promoted to a numbered, citable source for one
// answer. SourceNum is unique within one answer and assigned by retrieval
// rank order (1 = most relevant).
type SourceRef struct {
	SourceNum       int      `json:"source_num"`
	ChunkReference  string   `json:"chunk_reference"`
	DocumentID      string   `json:"document_id"`
	Filename        string   `json:"filename,omitempty"`
	PageNumber      *int     `json:"page_number,omitempty"`
	ParagraphNumber *int     `json:"paragraph_number,omitempty"`
	CharStart       *int     `json:"char_start,omitempty"`
	CharEnd         *int     `json:"char_end,omitempty"`
	Snippet         string   `json:"snippet"`
	Score           *float64 `json:"score,omitempty"`

	// Content is the full chunk text used for prompt construction only.
	Content string `json:"-"`
}

// Citation is a SourceRef confirmed as actually referenced in a generated
// answer. At most one citation per distinct chunk reference, in order of
// first appearance in the answer text.
type Citation = SourceRef

// NewSourceRef promotes a retrieved context to a numbered source, copying its
// provenance and truncating the snippet preview.
func NewSourceRef(c Context) SourceRef {
	snippet := c.Content
	if len(snippet) > SnippetLength {
		snippet = snippet[:SnippetLength] + "..."
	}
	return SourceRef{
		SourceNum:       c.Rank,
		ChunkReference:  c.ChunkReference,
		DocumentID:      c.Metadata.DocumentID,
		Filename:        c.Metadata.Filename,
		PageNumber:      c.Metadata.PageNumber,
		ParagraphNumber: c.Metadata.ParagraphNumber,
		CharStart:       c.Metadata.CharStart,
		CharEnd:         c.Metadata.CharEnd,
		Snippet:         snippet,
		Score:           c.Score,
		Content:         c.Content,
	}
}

// Answer is a synthesized response with its validated citation list.
type Answer struct {
	Text        string     `json:"text"`
	Citations   []Citation `json:"citations"`
	ContextUsed int        `json:"context_used"`
}

// AskRequest is a question against one project's indexed corpus.
type AskRequest struct {
	Question  string `json:"question"`
	ProjectID string `json:"project_id,omitempty"`
	TopK      int    `json:"top_k,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Normalize trims the question and applies the retrieval default.
func (r *AskRequest) Normalize() {
	r.Question = strings.TrimSpace(r.Question)
	if r.TopK <= 0 {
		r.TopK = DefaultTopK
	}
}

// AskResult is the answer to one question, as returned to callers.
type AskResult struct {
	SessionID   string     `json:"session_id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Citations   []Citation `json:"citations"`
	ContextUsed int        `json:"context_used"`
}

// QASession groups the exchanges of one question-answering thread within a
// project.
type QASession struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QAExchange is one persisted question/answer pair with its citations.
type QAExchange struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	Citations   []Citation `json:"citations"`
	ContextUsed int        `json:"context_used"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SessionWithExchanges combines a session with its exchanges in order.
type SessionWithExchanges struct {
	Session   *QASession    `json:"session"`
	Exchanges []*QAExchange `json:"exchanges"`
}
