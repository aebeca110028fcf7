package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/mikeboe/recursive-rag/pkg/metrics"
	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

type Result struct {
	Message     string `json:"message"`
	TotalChunks int    `json:"total_chunks"`
}

// Ingestor extracts, chunks and stores PDF files.
type Ingestor struct {
	Store    vectorstore.Adder
	Splitter textsplitter.TextSplitter
	Extract  func(ctx context.Context, data []byte) (string, error)
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

func NewIngestor(store vectorstore.Adder, splitter textsplitter.TextSplitter) *Ingestor {
	return &Ingestor{
		Store:    store,
		Splitter: splitter,
		Extract:  ExtractPDFText,
		Logger:   slog.Default(),
	}
}

// Ingest processes files in order. Names not ending in ".pdf" are skipped.
// The first failure stops the batch; files already stored stay stored.
func (in *Ingestor) Ingest(ctx context.Context, files []File) (*Result, error) {
	total := 0
	for _, f := range files {
		if !strings.HasSuffix(f.Name, ".pdf") {
			in.logger().Info("Skipping non-PDF upload", "file", f.Name)
			continue
		}

		n, err := in.ingestFile(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to ingest %s: %w", f.Name, err)
		}
		total += n
	}

	return &Result{
		Message:     fmt.Sprintf("Successfully processed %d files", len(files)),
		TotalChunks: total,
	}, nil
}

func (in *Ingestor) ingestFile(ctx context.Context, f File) (int, error) {
	text, err := in.Extract(ctx, f.Data)
	if err != nil {
		return 0, err
	}

	chunks, err := in.Splitter.SplitText(text)
	if err != nil {
		return 0, fmt.Errorf("failed to split text: %w", err)
	}
	if len(chunks) == 0 {
		in.logger().Warn("No text extracted", "file", f.Name)
		return 0, nil
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = vectorstore.Document{
			ID:      ChunkID(f.Name, i),
			Content: c,
			Metadata: map[string]interface{}{
				"source": f.Name,
				"chunk":  i,
			},
		}
	}

	if err := in.Store.AddDocuments(ctx, docs); err != nil {
		return 0, err
	}
	in.Metrics.AddChunks(len(docs))
	in.logger().Info("Ingested file", "file", f.Name, "chunks", len(docs), "chars", len(text))
	return len(docs), nil
}

// ChunkID names chunk i of the named file.
func ChunkID(name string, i int) string {
	return fmt.Sprintf("%s_chunk_%d", name, i)
}

func (in *Ingestor) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.Default()
}
