package extractors

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry implements ExtractorRegistry with first-match selection in
// registration order.
type Registry struct {
	mu         sync.RWMutex
	extractors []driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make([]driven.Extractor, 0),
	}
}

// Register registers an extractor for its supported content types.
func (r *Registry) Register(extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extractors = append(r.extractors, extractor)
}

// Get retrieves the extractor for a content type.
// Returns domain.ErrUnsupportedFormat when none is registered for it.
func (r *Registry) Get(contentType string) (driven.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.extractors {
		if matchesContentType(e.SupportedTypes(), contentType) {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, contentType)
}

// List returns all registered content types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typeSet := make(map[string]struct{})
	for _, e := range r.extractors {
		for _, t := range e.SupportedTypes() {
			typeSet[t] = struct{}{}
		}
	}

	types := make([]string, 0, len(typeSet))
	for t := range typeSet {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// matchesContentType checks if any of the supported types match the given
// content type. Supports wildcard matching (e.g., "text/*" matches
// "text/plain").
func matchesContentType(supportedTypes []string, contentType string) bool {
	// Normalize the input
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	// Strip charset and other parameters
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	for _, supported := range supportedTypes {
		supported = strings.ToLower(strings.TrimSpace(supported))

		// Exact match
		if supported == contentType {
			return true
		}

		// Wildcard match (e.g., "text/*" matches "text/plain")
		if strings.HasSuffix(supported, "/*") {
			prefix := supported[:len(supported)-1] // "text/"
			if strings.HasPrefix(contentType, prefix) {
				return true
			}
		}

		// Universal wildcard
		if supported == "*/*" {
			return true
		}
	}

	return false
}

// DefaultRegistry creates a registry with the built-in extractors
// pre-registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewPlaintextExtractor())
	return r
}
