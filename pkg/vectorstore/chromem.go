package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mikeboe/recursive-rag/pkg/embeddings"
)

// ChromemStore keeps chunks in an embedded chromem-go database, optionally
// persisted to a directory.
type ChromemStore struct {
	// mu guards collection; Reset swaps it under the write lock.
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	embedder   embeddings.Embedder
}

// NewChromemStore opens (or creates) the named collection. An empty
// persistPath keeps everything in memory.
func NewChromemStore(persistPath, name string, embedder embeddings.Embedder) (*ChromemStore, error) {
	if name == "" {
		name = "pdf_documents"
	}

	var db *chromem.DB
	if persistPath != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("create persistent DB: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	s := &ChromemStore{db: db, name: name, embedder: embedder}
	collection, err := s.openCollection()
	if err != nil {
		return nil, err
	}
	s.collection = collection
	return s, nil
}

func (s *ChromemStore) openCollection() (*chromem.Collection, error) {
	embed := func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedText(ctx, text)
	}
	collection, err := s.db.GetOrCreateCollection(s.name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return collection, nil
}

// AddDocuments embeds the chunks in one batch and stores them. Existing ids
// are overwritten.
func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := embedMissing(ctx, s.embedder, docs)
	if err != nil {
		return err
	}

	chunks := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chunks[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: vectors[i],
			Metadata:  toStringMetadata(doc.Metadata),
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.collection.AddDocuments(ctx, chunks, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// SimilaritySearch returns at most topK chunks ordered by cosine similarity.
func (s *ChromemStore) SimilaritySearch(ctx context.Context, query string, topK int) ([]SimilaritySearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects nResults larger than the collection.
	n := min(topK, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	out := make([]SimilaritySearchResult, 0, len(results))
	for _, r := range results {
		out = append(out, SimilaritySearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: fromStringMetadata(r.Metadata),
			},
			Score: float64(r.Similarity),
		})
	}
	return out, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count(), nil
}

// Reset drops the collection and recreates it empty.
func (s *ChromemStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	collection, err := s.openCollection()
	if err != nil {
		return err
	}
	s.collection = collection
	return nil
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}

// embedMissing returns one vector per doc, embedding only those without one.
func embedMissing(ctx context.Context, embedder embeddings.Embedder, docs []Document) ([][]float32, error) {
	vectors := make([][]float32, len(docs))
	var texts []string
	var idx []int
	for i, doc := range docs {
		if len(doc.Embedding) > 0 {
			vectors[i] = doc.Embedding
			continue
		}
		texts = append(texts, doc.Content)
		idx = append(idx, i)
	}
	if len(texts) == 0 {
		return vectors, nil
	}

	embedded, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embedded) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embedded), len(texts))
	}
	for j, i := range idx {
		vectors[i] = embedded[j]
	}
	return vectors, nil
}

// chromem metadata is string-valued; the chunk index round-trips as an int.
func toStringMetadata(m map[string]interface{}) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func fromStringMetadata(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if k == "chunk" {
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
				continue
			}
		}
		out[k] = v
	}
	return out
}
