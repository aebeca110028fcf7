package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mikeboe/recursive-rag/pkg/metrics"
)

// ErrGenerationTimeout is returned when a single call exceeds its ceiling.
var ErrGenerationTimeout = errors.New("generation timed out")

var tracer = otel.Tracer("recursive-rag.clients")

// Generator is the text generation capability wrapped by Instrumented.
type Generator interface {
	Generate(ctx context.Context, prompt, systemContext string) (string, error)
}

// Instrumented bounds every call by Timeout and records a span, a log line
// and metrics for it.
type Instrumented struct {
	Next    Generator
	Model   string
	Timeout time.Duration
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

func (g *Instrumented) Generate(ctx context.Context, prompt, systemContext string) (string, error) {
	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "Generator.Generate",
		trace.WithAttributes(
			attribute.String("llm.model", g.Model),
			attribute.Int("llm.prompt_chars", len(prompt)),
		),
	)
	defer span.End()

	start := time.Now()
	text, err := g.Next.Generate(ctx, prompt, systemContext)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			err = fmt.Errorf("%w after %s: %v", ErrGenerationTimeout, g.Timeout, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	g.Metrics.ObserveGeneration(g.Model, outcome, elapsed)

	g.logger().Debug("generation finished",
		"model", g.Model,
		"outcome", outcome,
		"duration", elapsed,
		"prompt_chars", len(prompt),
		"response_chars", len(text),
	)
	return text, err
}

func (g *Instrumented) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
