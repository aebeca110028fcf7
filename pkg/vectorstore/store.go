package vectorstore

import "context"

// Document is one stored chunk. Embedding is filled in by the store when
// empty.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Embedding []float32              `json:"embedding,omitempty"`
}

// Source returns the "source" metadata entry, or "" when there is none.
func (d Document) Source() string {
	if s, ok := d.Metadata["source"].(string); ok {
		return s
	}
	return ""
}

// SimilaritySearchResult represents a search result with score
type SimilaritySearchResult struct {
	Document Document
	Score    float64
}

// Searcher answers nearest-neighbour queries for a text.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, topK int) ([]SimilaritySearchResult, error)
}

// Adder writes chunks, replacing any with the same id.
type Adder interface {
	AddDocuments(ctx context.Context, docs []Document) error
}

// Store is a persistent collection of chunks.
//
// Reset empties the collection. Searches that started before a Reset
// finish against the old contents; searches issued after it see the new
// empty collection.
type Store interface {
	Searcher
	Adder
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
	Close() error
}
