package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/veridoc-core/internal/core/domain"
	"github.com/custodia-labs/veridoc-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Index)(nil)

// Index implements driven.VectorIndex against a Chroma server.
// Insertions carry precomputed vectors; queries are embedded here with the
// same embedding service the pipeline used, so both sides share one metric
// space. The collection is created on first use with cosine distance.
type Index struct {
	baseURL    string
	httpClient *http.Client
	embedder   driven.EmbeddingService
	name       string

	mu           sync.Mutex
	collectionID string
}

// Config holds Chroma connection configuration
type Config struct {
	// BaseURL is the Chroma endpoint (e.g., http://localhost:8000)
	BaseURL string

	// Collection is the collection name
	Collection string

	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Collection: "research_documents",
		Timeout:    30 * time.Second,
	}
}

// NewIndex creates a new Chroma-backed VectorIndex.
// The embedder must be the same service used to embed indexed chunks.
func NewIndex(cfg Config, embedder driven.EmbeddingService) *Index {
	name := cfg.Collection
	if name == "" {
		name = "research_documents"
	}
	return &Index{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		embedder: embedder,
		name:     name,
	}
}

type collectionRequest struct {
	Name        string            `json:"name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	GetOrCreate bool              `json:"get_or_create"`
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type addRequest struct {
	IDs        []string                 `json:"ids"`
	Embeddings [][]float32              `json:"embeddings"`
	Metadatas  []map[string]interface{} `json:"metadatas"`
	Documents  []string                 `json:"documents"`
}

type queryRequest struct {
	QueryEmbeddings [][]float32            `json:"query_embeddings"`
	NResults        int                    `json:"n_results"`
	Where           map[string]interface{} `json:"where,omitempty"`
	Include         []string               `json:"include"`
}

type queryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
}

type deleteRequest struct {
	IDs   []string               `json:"ids,omitempty"`
	Where map[string]interface{} `json:"where,omitempty"`
}

// collection resolves and caches the collection id, creating the collection
// with cosine distance if it does not exist yet.
func (idx *Index) collection(ctx context.Context) (string, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.collectionID != "" {
		return idx.collectionID, nil
	}

	var coll collectionResponse
	err := idx.do(ctx, http.MethodPost, "/api/v1/collections", collectionRequest{
		Name:        idx.name,
		Metadata:    map[string]string{"hnsw:space": "cosine"},
		GetOrCreate: true,
	}, &coll)
	if err != nil {
		return "", fmt.Errorf("failed to get or create collection %s: %w", idx.name, err)
	}
	if coll.ID == "" {
		return "", fmt.Errorf("chroma returned no id for collection %s", idx.name)
	}

	idx.collectionID = coll.ID
	return idx.collectionID, nil
}

// Add inserts entries into the index.
func (idx *Index) Add(ctx context.Context, entries []driven.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	collID, err := idx.collection(ctx)
	if err != nil {
		return err
	}

	req := addRequest{
		IDs:        make([]string, len(entries)),
		Embeddings: make([][]float32, len(entries)),
		Metadatas:  make([]map[string]interface{}, len(entries)),
		Documents:  make([]string, len(entries)),
	}
	for i, entry := range entries {
		id := entry.ID
		if id == "" {
			id = uuid.NewString()
		}
		req.IDs[i] = id
		req.Embeddings[i] = entry.Embedding
		req.Metadatas[i] = metadataFields(entry.Metadata)
		req.Documents[i] = entry.Content
	}

	path := fmt.Sprintf("/api/v1/collections/%s/add", collID)
	if err := idx.do(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("chroma add failed: %w", err)
	}
	return nil
}

// Query embeds the text and returns up to k matches, most similar first.
func (idx *Index) Query(ctx context.Context, text string, k int, filter *driven.QueryFilter) ([]driven.QueryMatch, error) {
	collID, err := idx.collection(ctx)
	if err != nil {
		return nil, err
	}

	embedding, err := idx.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	req := queryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        k,
		Where:           whereClause(filter),
		Include:         []string{"documents", "metadatas", "distances"},
	}

	var resp queryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", collID)
	if err := idx.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("chroma query failed: %w", err)
	}

	if len(resp.IDs) == 0 || len(resp.IDs[0]) == 0 {
		return []driven.QueryMatch{}, nil
	}

	ids := resp.IDs[0]
	matches := make([]driven.QueryMatch, 0, len(ids))
	for i, id := range ids {
		match := driven.QueryMatch{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			match.Content = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			match.Metadata = metadataFromFields(resp.Metadatas[0][i])
		}
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			d := resp.Distances[0][i]
			match.Distance = &d
		}
		matches = append(matches, match)
	}

	return matches, nil
}

// Delete removes entries by id.
func (idx *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	collID, err := idx.collection(ctx)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v1/collections/%s/delete", collID)
	if err := idx.do(ctx, http.MethodPost, path, deleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("chroma delete failed: %w", err)
	}
	return nil
}

// DeleteByDocument removes all entries for a document.
func (idx *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	return idx.deleteWhere(ctx, map[string]interface{}{"document_id": documentID})
}

// DeleteByProject removes all entries for a project.
func (idx *Index) DeleteByProject(ctx context.Context, projectID string) error {
	return idx.deleteWhere(ctx, map[string]interface{}{"project_id": projectID})
}

func (idx *Index) deleteWhere(ctx context.Context, where map[string]interface{}) error {
	collID, err := idx.collection(ctx)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/api/v1/collections/%s/delete", collID)
	if err := idx.do(ctx, http.MethodPost, path, deleteRequest{Where: where}, nil); err != nil {
		return fmt.Errorf("chroma delete by metadata failed: %w", err)
	}
	return nil
}

// Count returns the number of entries in the index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	collID, err := idx.collection(ctx)
	if err != nil {
		return 0, err
	}

	var count int
	path := fmt.Sprintf("/api/v1/collections/%s/count", collID)
	if err := idx.do(ctx, http.MethodGet, path, nil, &count); err != nil {
		return 0, fmt.Errorf("chroma count failed: %w", err)
	}
	return count, nil
}

// HealthCheck verifies the index is available.
func (idx *Index) HealthCheck(ctx context.Context) error {
	if err := idx.do(ctx, http.MethodGet, "/api/v1/heartbeat", nil, nil); err != nil {
		return fmt.Errorf("chroma health check failed: %w", err)
	}
	return nil
}

// do sends one JSON request and decodes the response into out when non-nil.
func (idx *Index) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, idx.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := idx.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s - %s", resp.Status, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// whereClause builds a Chroma metadata filter from a query filter.
// Multiple conditions need an explicit $and.
func whereClause(filter *driven.QueryFilter) map[string]interface{} {
	if filter == nil {
		return nil
	}

	var conds []map[string]interface{}
	if filter.ProjectID != "" {
		conds = append(conds, map[string]interface{}{"project_id": filter.ProjectID})
	}
	if filter.DocumentID != "" {
		conds = append(conds, map[string]interface{}{"document_id": filter.DocumentID})
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return map[string]interface{}{"$and": conds}
	}
}

// metadataFields flattens chunk metadata into Chroma's scalar-only metadata.
// Unset optional fields are omitted rather than stored as zeros.
func metadataFields(m domain.ChunkMetadata) map[string]interface{} {
	fields := map[string]interface{}{
		"document_id": m.DocumentID,
		"chunk_index": m.ChunkIndex,
	}
	if m.ProjectID != "" {
		fields["project_id"] = m.ProjectID
	}
	if m.Filename != "" {
		fields["filename"] = m.Filename
	}
	if m.PageNumber != nil {
		fields["page_number"] = *m.PageNumber
	}
	if m.ParagraphNumber != nil {
		fields["paragraph_number"] = *m.ParagraphNumber
	}
	if m.CharStart != nil {
		fields["char_start"] = *m.CharStart
	}
	if m.CharEnd != nil {
		fields["char_end"] = *m.CharEnd
	}
	return fields
}

// metadataFromFields recovers chunk metadata from a query result.
// JSON numbers arrive as float64.
func metadataFromFields(fields map[string]interface{}) domain.ChunkMetadata {
	return domain.ChunkMetadata{
		DocumentID:      stringField(fields, "document_id"),
		ProjectID:       stringField(fields, "project_id"),
		Filename:        stringField(fields, "filename"),
		ChunkIndex:      intField(fields, "chunk_index"),
		PageNumber:      intPtrField(fields, "page_number"),
		ParagraphNumber: intPtrField(fields, "paragraph_number"),
		CharStart:       intPtrField(fields, "char_start"),
		CharEnd:         intPtrField(fields, "char_end"),
	}
}

func stringField(fields map[string]interface{}, key string) string {
	s, _ := fields[key].(string)
	return s
}

func intField(fields map[string]interface{}, key string) int {
	f, ok := fields[key].(float64)
	if !ok {
		return 0
	}
	return int(f)
}

func intPtrField(fields map[string]interface{}, key string) *int {
	f, ok := fields[key].(float64)
	if !ok {
		return nil
	}
	v := int(f)
	return &v
}
