package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driving"
)

// Ensure exportService implements ExportService
var _ driving.ExportService = (*exportService)(nil)

const (
	exportDocumentLimit = 1000
	exportSessionLimit  = 1000

	exportDateFormat = "2006-01-02"

	// bibKeyMaxLen caps the mnemonic part of a BibTeX key before the
	// document id suffix is appended.
	bibKeyMaxLen = 20
)

// exportService renders project exports from the persisted corpus.
type exportService struct {
	projectStore  driven.ProjectStore
	documentStore driven.DocumentStore
	sessionStore  driven.SessionStore
}

// NewExportService creates a new ExportService
func NewExportService(projects driven.ProjectStore, documents driven.DocumentStore, sessions driven.SessionStore) driving.ExportService {
	return &exportService{
		projectStore:  projects,
		documentStore: documents,
		sessionStore:  sessions,
	}
}

// Export renders the project in the requested format
func (s *exportService) Export(ctx context.Context, projectID string, format domain.ExportFormat) (string, error) {
	if !format.Valid() {
		return "", fmt.Errorf("%w: unsupported export format %q, use markdown or bibtex", domain.ErrInvalidInput, format)
	}

	project, err := s.projectStore.Get(ctx, projectID)
	if err != nil {
		return "", err
	}
	documents, err := s.documentStore.GetByProject(ctx, projectID, exportDocumentLimit, 0)
	if err != nil {
		return "", fmt.Errorf("list documents: %w", err)
	}

	switch format {
	case domain.ExportFormatBibTeX:
		return renderBibTeX(documents), nil
	default:
		exchanges, err := s.collectExchanges(ctx, projectID)
		if err != nil {
			return "", err
		}
		return renderMarkdown(project, documents, exchanges), nil
	}
}

// sessionExchanges pairs a session with its exchanges for rendering.
type sessionExchanges struct {
	session   *domain.QASession
	exchanges []*domain.QAExchange
}

// collectExchanges loads all sessions and their exchanges, oldest session
// first so the export reads chronologically.
func (s *exportService) collectExchanges(ctx context.Context, projectID string) ([]sessionExchanges, error) {
	sessions, err := s.sessionStore.ListSessions(ctx, projectID, exportSessionLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	// ListSessions returns newest first
	out := make([]sessionExchanges, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		session := sessions[i]
		exchanges, err := s.sessionStore.GetExchanges(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("get exchanges for session %s: %w", session.ID, err)
		}
		if len(exchanges) == 0 {
			continue
		}
		out = append(out, sessionExchanges{session: session, exchanges: exchanges})
	}
	return out, nil
}

func renderMarkdown(project *domain.Project, documents []*domain.Document, qa []sessionExchanges) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", project.Description)
	}

	b.WriteString("## Documents\n\n")
	for _, doc := range documents {
		fmt.Fprintf(&b, "- **%s**\n", documentTitle(doc))
		if doc.Author != "" {
			fmt.Fprintf(&b, "  - Author: %s\n", doc.Author)
		}
		if doc.PageCount > 0 {
			fmt.Fprintf(&b, "  - Pages: %d\n", doc.PageCount)
		}
		fmt.Fprintf(&b, "  - Uploaded: %s\n\n", doc.UploadedAt.Format(exportDateFormat))
	}

	if len(qa) > 0 {
		b.WriteString("## Research Questions and Answers\n\n")
		for _, se := range qa {
			if se.session.Title != "" {
				fmt.Fprintf(&b, "### %s\n\n", se.session.Title)
			}
			for _, ex := range se.exchanges {
				fmt.Fprintf(&b, "**Q:** %s\n\n", ex.Question)
				fmt.Fprintf(&b, "**A:** %s\n\n", ex.Answer)
				if len(ex.Citations) > 0 {
					b.WriteString("**Sources:**\n")
					for _, cit := range ex.Citations {
						b.WriteString(renderCitation(cit))
					}
					b.WriteString("\n")
				}
			}
		}
	}

	b.WriteString("## Bibliography\n\n")
	for _, doc := range documents {
		b.WriteString("- ")
		if doc.Author != "" {
			fmt.Fprintf(&b, "%s. ", doc.Author)
		}
		fmt.Fprintf(&b, "*%s* (Accessed: %s)\n", documentTitle(doc), doc.UploadedAt.Format(exportDateFormat))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func renderCitation(cit domain.Citation) string {
	var b strings.Builder
	filename := cit.Filename
	if filename == "" {
		filename = "Unknown"
	}
	fmt.Fprintf(&b, "- [%s]", filename)
	if cit.PageNumber != nil {
		fmt.Fprintf(&b, ", Page %d", *cit.PageNumber)
	}
	if cit.ParagraphNumber != nil {
		fmt.Fprintf(&b, ", Paragraph %d", *cit.ParagraphNumber)
	}
	b.WriteString("\n")
	if cit.Snippet != "" {
		fmt.Fprintf(&b, "  > %s\n", cit.Snippet)
	}
	return b.String()
}

func renderBibTeX(documents []*domain.Document) string {
	var b strings.Builder
	for _, doc := range documents {
		fmt.Fprintf(&b, "@misc{%s,\n", bibKey(doc))
		if doc.Title != "" {
			fmt.Fprintf(&b, "  title = {%s},\n", doc.Title)
		}
		if doc.Author != "" {
			fmt.Fprintf(&b, "  author = {%s},\n", doc.Author)
		}
		fmt.Fprintf(&b, "  note = {Uploaded: %s},\n", doc.UploadedAt.Format(exportDateFormat))
		b.WriteString("}\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// bibKey builds a citation key from the author's last name and the first
// three title words, capped and suffixed with a document id prefix for
// uniqueness. Only BibTeX-safe characters survive.
func bibKey(doc *domain.Document) string {
	var parts []string
	if doc.Author != "" {
		fields := strings.Fields(doc.Author)
		if len(fields) > 0 {
			parts = append(parts, sanitizeBibKey(fields[len(fields)-1]))
		}
	}
	words := strings.Fields(documentTitle(doc))
	if len(words) > 3 {
		words = words[:3]
	}
	for _, w := range words {
		w = sanitizeBibKey(w)
		if len(w) > 4 {
			w = w[:4]
		}
		parts = append(parts, w)
	}

	key := strings.Join(parts, "")
	if len(key) > bibKeyMaxLen {
		key = key[:bibKeyMaxLen]
	}

	id := doc.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return key + id
}

// sanitizeBibKey lowercases and strips everything outside [a-z0-9-].
func sanitizeBibKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func documentTitle(doc *domain.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	return doc.Filename
}
