// Package retrieval turns a question into the context block handed to the
// reasoning engine.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

// UnknownSource labels chunks stored without a source.
const UnknownSource = "unknown"

const DefaultTopK = 5

// Retriever fetches the topK chunks most similar to a question.
type Retriever struct {
	Store vectorstore.Searcher
	TopK  int
}

func NewRetriever(store vectorstore.Searcher, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{Store: store, TopK: topK}
}

func (r *Retriever) Query(ctx context.Context, question string) ([]vectorstore.Document, error) {
	results, err := r.Store.SimilaritySearch(ctx, question, r.TopK)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	docs := make([]vectorstore.Document, 0, len(results))
	for _, res := range results {
		docs = append(docs, res.Document)
	}
	return docs, nil
}

// BuildContext joins chunk contents with blank lines, keeping retrieval order.
func BuildContext(docs []vectorstore.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}

// Sources returns the distinct source names, sorted.
func Sources(docs []vectorstore.Document) []string {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		src := d.Source()
		if src == "" {
			src = UnknownSource
		}
		seen[src] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
