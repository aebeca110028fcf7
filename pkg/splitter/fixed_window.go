package splitter

import "fmt"

// FixedWindowSplitter cuts text into windows of Size characters that start
// every Size-Overlap characters. The last window may be shorter. Offsets
// count runes, so multi-byte characters are never split.
type FixedWindowSplitter struct {
	Size    int
	Overlap int
}

func NewFixedWindowSplitter(size, overlap int) (*FixedWindowSplitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &FixedWindowSplitter{Size: size, Overlap: overlap}, nil
}

// Stride is the distance between the starts of consecutive windows.
func (s *FixedWindowSplitter) Stride() int {
	return s.Size - s.Overlap
}

// Offsets returns the start offset of every window for a text of n runes.
func (s *FixedWindowSplitter) Offsets(n int) []int {
	var offsets []int
	for start := 0; start < n; start += s.Stride() {
		offsets = append(offsets, start)
	}
	return offsets
}

// SplitText returns the windows in order; empty text yields no chunks.
func (s *FixedWindowSplitter) SplitText(text string) ([]string, error) {
	runes := []rune(text)
	offsets := s.Offsets(len(runes))

	chunks := make([]string, 0, len(offsets))
	for _, start := range offsets {
		end := min(start+s.Size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks, nil
}
