package splitter

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"
)

// Both splitters satisfy langchaingo's interface so callers can swap them.
var (
	_ textsplitter.TextSplitter = (*TextSplitter)(nil)
	_ textsplitter.TextSplitter = (*FixedWindowSplitter)(nil)
)

// TextSplitter wraps the langchaingo text splitter
type TextSplitter struct {
	splitter textsplitter.TextSplitter
}

// NewRecursiveCharacterTextSplitter creates a new recursive character text splitter
func NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap int) *TextSplitter {
	ts := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
	)

	return &TextSplitter{splitter: ts}
}

// SplitText splits text into chunks
func (ts *TextSplitter) SplitText(text string) ([]string, error) {
	return ts.splitter.SplitText(text)
}

// New returns the splitter for strategy ("fixed" or "recursive").
func New(strategy string, chunkSize, chunkOverlap int) (textsplitter.TextSplitter, error) {
	switch strategy {
	case "", "fixed":
		return NewFixedWindowSplitter(chunkSize, chunkOverlap)
	case "recursive":
		return NewRecursiveCharacterTextSplitter(chunkSize, chunkOverlap), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", strategy)
	}
}
