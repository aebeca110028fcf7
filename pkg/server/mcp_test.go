package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/reasoning"
	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

type stubSearcher struct {
	gotTopK int
}

func (s *stubSearcher) SimilaritySearch(ctx context.Context, query string, topK int) ([]vectorstore.SimilaritySearchResult, error) {
	s.gotTopK = topK
	return []vectorstore.SimilaritySearchResult{
		{Document: vectorstore.Document{ID: "a.pdf_chunk_0", Content: "apple", Metadata: map[string]interface{}{"source": "a.pdf"}}, Score: 0.9},
		{Document: vectorstore.Document{ID: "x_chunk_0", Content: "pear"}, Score: 0.4},
	}, nil
}

func connectMCP(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs
}

// decodeResult re-marshals the tool's structured output into v.
func decodeResult(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestMCPListsTools(t *testing.T) {
	cs := connectMCP(t, NewMCPServer(&stubAsker{}, &stubSearcher{}))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"ask", "search_documents"}, names)
}

func TestMCPSearchDocuments(t *testing.T) {
	searcher := &stubSearcher{}
	cs := connectMCP(t, NewMCPServer(&stubAsker{}, searcher))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "search_documents",
		Arguments: map[string]any{"query": "apple"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, 5, searcher.gotTopK)

	var out SearchResult
	decodeResult(t, res, &out)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "a.pdf", out.Results[0].Source)
	assert.Equal(t, "unknown", out.Results[1].Source)
}

func TestMCPAsk(t *testing.T) {
	asker := &stubAsker{resp: &chat.Response{
		Response:       "X is a fruit.",
		Sources:        []string{"a.pdf"},
		ReasoningSteps: []reasoning.Step{{Type: reasoning.StepDirectAnswer, Query: "What is X?"}},
	}}
	cs := connectMCP(t, NewMCPServer(asker, &stubSearcher{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": "What is X?", "use_recursive": false},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	assert.Equal(t, "What is X?", asker.got.Message)
	require.NotNil(t, asker.got.UseRecursive)
	assert.False(t, *asker.got.UseRecursive)

	var out chat.Response
	decodeResult(t, res, &out)
	assert.Equal(t, "X is a fruit.", out.Response)
	assert.Equal(t, []string{"a.pdf"}, out.Sources)
}

func TestMCPAskRequiresQuestion(t *testing.T) {
	cs := connectMCP(t, NewMCPServer(&stubAsker{}, &stubSearcher{}))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "ask",
		Arguments: map[string]any{"question": ""},
	})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
