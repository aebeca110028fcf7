package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble undoes the overlap: the first Stride runes of every chunk but
// the last, then the whole last chunk.
func reassemble(s *FixedWindowSplitter, chunks []string) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i == len(chunks)-1 {
			sb.WriteString(c)
			break
		}
		sb.WriteString(string([]rune(c)[:s.Stride()]))
	}
	return sb.String()
}

func TestFixedWindowOffsets(t *testing.T) {
	s, err := NewFixedWindowSplitter(1000, 200)
	require.NoError(t, err)
	assert.Equal(t, 800, s.Stride())

	text := strings.Repeat("abcdefghij", 250)
	require.Len(t, text, 2500)

	assert.Equal(t, []int{0, 800, 1600, 2400}, s.Offsets(len(text)))

	chunks, err := s.SplitText(text)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[2], 900)
	assert.Equal(t, text[2400:], chunks[3])
	assert.Len(t, chunks[3], 100)
	assert.Equal(t, text[800:1800], chunks[1])
}

func TestFixedWindowRoundTrip(t *testing.T) {
	s, err := NewFixedWindowSplitter(1000, 200)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 799, 800, 801, 1000, 1001, 1600, 2500, 4321} {
		text := strings.Repeat("x", n)
		if n > 0 {
			text = strings.Repeat("0123456789", n/10+1)[:n]
		}
		chunks, err := s.SplitText(text)
		require.NoError(t, err)
		assert.Equal(t, text, reassemble(s, chunks), "length %d", n)
	}
}

func TestFixedWindowEmptyText(t *testing.T) {
	s, err := NewFixedWindowSplitter(1000, 200)
	require.NoError(t, err)

	chunks, err := s.SplitText("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestFixedWindowKeepsMultibyteRunes(t *testing.T) {
	s, err := NewFixedWindowSplitter(4, 1)
	require.NoError(t, err)

	text := "héllo wörld ∑≈"
	chunks, err := s.SplitText(text)
	require.NoError(t, err)
	assert.Equal(t, "héll", chunks[0])
	assert.Equal(t, "lo w", chunks[1])
	assert.Equal(t, text, reassemble(s, chunks))
}

func TestNewFixedWindowSplitterRejectsBadWindows(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFixedWindowSplitter(tt.size, tt.overlap)
			assert.Error(t, err)
		})
	}
}

func TestNewByStrategy(t *testing.T) {
	fixed, err := New("fixed", 1000, 200)
	require.NoError(t, err)
	assert.IsType(t, &FixedWindowSplitter{}, fixed)

	recursive, err := New("recursive", 1000, 200)
	require.NoError(t, err)
	assert.IsType(t, &TextSplitter{}, recursive)

	_, err = New("semantic", 1000, 200)
	assert.Error(t, err)
}
