// Package ingest loads PDF files into the vector store.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
)

// ExtractPDFText returns the plain text of every page, each followed by a
// newline.
func ExtractPDFText(ctx context.Context, data []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data)))
	pages, err := loader.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for _, p := range pages {
		sb.WriteString(p.PageContent)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
