package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mikeboe/recursive-rag/pkg/metrics"
	"github.com/mikeboe/recursive-rag/pkg/reasoning"
	"github.com/mikeboe/recursive-rag/pkg/retrieval"
	"github.com/mikeboe/recursive-rag/pkg/vectorstore"
)

const DefaultMaxRecursionDepth = 3

// Request is the body of POST /chat/. Omitted flags take the service
// defaults; conversation_history is accepted but not used.
type Request struct {
	Message             string           `json:"message" binding:"required"`
	ConversationHistory []map[string]any `json:"conversation_history,omitempty"`
	UseRecursive        *bool            `json:"use_recursive,omitempty"`
	MaxRecursionDepth   *int             `json:"max_recursion_depth,omitempty" binding:"omitempty,min=0"`
}

type Response struct {
	Response       string           `json:"response"`
	Sources        []string         `json:"sources"`
	ReasoningSteps []reasoning.Step `json:"reasoning_steps"`
	RecursionDepth int              `json:"recursion_depth"`
	RequestID      string           `json:"request_id,omitempty"`
}

// Retriever finds the chunks relevant to a question.
type Retriever interface {
	Query(ctx context.Context, question string) ([]vectorstore.Document, error)
}

// Service answers questions against the document store.
type Service struct {
	Retriever    Retriever
	Generator    reasoning.Generator
	DefaultDepth int
	Metrics      *metrics.Recorder
	Logger       *slog.Logger
}

func NewService(retriever Retriever, gen reasoning.Generator) *Service {
	return &Service{
		Retriever:    retriever,
		Generator:    gen,
		DefaultDepth: DefaultMaxRecursionDepth,
		Logger:       slog.Default(),
	}
}

// Ask retrieves context once and answers either through the recursive
// orchestrator or with a single direct prompt. Cancellation of ctx is
// ignored: a started request runs to completion or fails, bounded by the
// generator's own per-call timeout.
func (s *Service) Ask(ctx context.Context, req Request) (*Response, error) {
	ctx = context.WithoutCancel(ctx)
	requestID := uuid.NewString()
	logger := s.logger().With("request_id", requestID)

	recursive := req.UseRecursive == nil || *req.UseRecursive
	depth := s.DefaultDepth
	if req.MaxRecursionDepth != nil {
		depth = *req.MaxRecursionDepth
	}

	mode := "direct"
	if recursive {
		mode = "recursive"
	}
	logger.Info("chat request", "mode", mode, "max_depth", depth, "message_chars", len(req.Message))

	resp, err := s.ask(ctx, logger, req.Message, recursive, depth)
	s.Metrics.ObserveChat(mode, err == nil)
	if err != nil {
		logger.Error("chat request failed", "error", err)
		return nil, err
	}
	resp.RequestID = requestID
	logger.Info("chat request answered",
		"sources", len(resp.Sources),
		"steps", len(resp.ReasoningSteps),
		"recursion_depth", resp.RecursionDepth,
	)
	return resp, nil
}

func (s *Service) ask(ctx context.Context, logger *slog.Logger, question string, recursive bool, depth int) (*Response, error) {
	docs, err := s.Retriever.Query(ctx, question)
	if err != nil {
		return nil, err
	}
	retrieved := retrieval.BuildContext(docs)
	sources := retrieval.Sources(docs)

	if !recursive {
		answer, err := s.Generator.Generate(ctx, directPrompt(retrieved, question), "")
		if err != nil {
			return nil, fmt.Errorf("failed to generate answer: %w", err)
		}
		return &Response{
			Response:       answer,
			Sources:        sources,
			ReasoningSteps: []reasoning.Step{},
		}, nil
	}

	orch := reasoning.NewOrchestrator(s.Generator)
	orch.Logger = logger
	orch.OnStep = func(step reasoning.Step) {
		s.Metrics.IncStep(string(step.Type))
	}

	result, err := orch.Run(ctx, question, retrieved, depth)
	if err != nil {
		return nil, err
	}
	return &Response{
		Response:       result.Answer,
		Sources:        sources,
		ReasoningSteps: result.Trace.Steps(),
		RecursionDepth: result.Trace.Count(reasoning.StepSubQuestion),
	}, nil
}

func directPrompt(context, question string) string {
	return fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nProvide a clear answer based on the context.", context, question)
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
