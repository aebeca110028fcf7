package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikeboe/recursive-rag/pkg/chat"
	"github.com/mikeboe/recursive-rag/pkg/retrieval"
	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

type AskArgs struct {
	Question          string `json:"question" jsonschema:"the question to answer from the uploaded documents"`
	UseRecursive      *bool  `json:"use_recursive,omitempty" jsonschema:"decompose the question recursively (default true)"`
	MaxRecursionDepth *int   `json:"max_recursion_depth,omitempty" jsonschema:"maximum recursion depth (default 3)"`
}

type SearchArgs struct {
	Query string `json:"query" jsonschema:"the search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to return (default 5)"`
}

type SearchHit struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

type SearchResult struct {
	Results []SearchHit `json:"results"`
}

// NewMCPServer exposes the chat pipeline and raw retrieval as MCP tools.
func NewMCPServer(asker Asker, searcher vectorstore.Searcher) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "recursive-rag", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the uploaded PDF documents, optionally with recursive decomposition.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AskArgs) (*mcp.CallToolResult, chat.Response, error) {
		if args.Question == "" {
			return nil, chat.Response{}, fmt.Errorf("question is required")
		}
		resp, err := asker.Ask(ctx, chat.Request{
			Message:           args.Question,
			UseRecursive:      args.UseRecursive,
			MaxRecursionDepth: args.MaxRecursionDepth,
		})
		if err != nil {
			return nil, chat.Response{}, err
		}
		return nil, *resp, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Semantic search over the uploaded PDF chunks.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchResult, error) {
		topK := args.TopK
		if topK <= 0 {
			topK = retrieval.DefaultTopK
		}
		results, err := searcher.SimilaritySearch(ctx, args.Query, topK)
		if err != nil {
			return nil, SearchResult{}, err
		}

		out := SearchResult{Results: make([]SearchHit, 0, len(results))}
		for _, r := range results {
			source := r.Document.Source()
			if source == "" {
				source = retrieval.UnknownSource
			}
			out.Results = append(out.Results, SearchHit{
				ID:      r.Document.ID,
				Source:  source,
				Score:   r.Score,
				Content: r.Document.Content,
			})
		}
		return nil, out, nil
	})

	return server
}

// NewMCPHandler serves the MCP server over streamable HTTP.
func NewMCPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}
