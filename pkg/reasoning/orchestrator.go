package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ApprovedToken is the critique reply that keeps the synthesized answer.
const ApprovedToken = "APPROVED"

// RecursionContext is the input of one recursive call. RetrievedContext is
// the same string for every call belonging to a request.
type RecursionContext struct {
	Query            string
	RetrievedContext string
	Depth            int
	MaxDepth         int
}

// Result is the outcome of a top-level Run.
type Result struct {
	Answer string
	Trace  Trace
}

type state int

const (
	stateInit state = iota
	stateBaseCase
	stateAnalyze
	stateDirectAnswer
	stateDecompose
	stateSynthesize
	stateReflect
	stateDone
)

var stateNames = [...]string{"init", "base_case", "analyze", "direct_answer", "decompose", "synthesize", "reflect", "done"}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// call holds what one recursive invocation accumulates while it moves
// through the state machine.
type call struct {
	rc         RecursionContext
	trace      Trace
	analysis   AnalysisOutcome
	subAnswers []SubAnswer
	answer     string
}

// Orchestrator answers a query by deciding, per recursion level, between a
// direct answer and decomposition into at most MaxSubQuestions
// sub-questions that are answered recursively and then synthesized. The
// top-level synthesized answer goes through one critique pass.
//
// Calls are strictly sequential; a Generator failure anywhere aborts the
// whole run.
type Orchestrator struct {
	Generator     Generator
	Analyzer      *Analyzer
	SystemContext string
	Logger        *slog.Logger

	// OnStep, when set, observes every step as it is appended.
	OnStep func(Step)
}

func NewOrchestrator(gen Generator) *Orchestrator {
	return &Orchestrator{
		Generator: gen,
		Analyzer:  NewAnalyzer(gen),
		Logger:    slog.Default(),
	}
}

// Run answers query against retrievedContext, recursing at most maxDepth
// levels below the top-level call.
func (o *Orchestrator) Run(ctx context.Context, query, retrievedContext string, maxDepth int) (*Result, error) {
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, maxDepth)
	}

	o.logger().Info("Starting recursive reasoning", "query", query, "max_depth", maxDepth, "context_len", len(retrievedContext))

	answer, trace, err := o.solve(ctx, RecursionContext{
		Query:            query,
		RetrievedContext: retrievedContext,
		Depth:            0,
		MaxDepth:         maxDepth,
	})
	if err != nil {
		return nil, err
	}

	o.logger().Info("Recursive reasoning complete", "steps", len(trace), "sub_questions", trace.Count(StepSubQuestion))
	return &Result{Answer: answer, Trace: trace}, nil
}

// solve drives one recursive call from Init to Done and returns its answer
// together with the steps it (and its descendants) produced, in order.
func (o *Orchestrator) solve(ctx context.Context, rc RecursionContext) (string, Trace, error) {
	c := &call{rc: rc}
	st := stateInit
	for st != stateDone {
		next, err := o.transition(ctx, c, st)
		if err != nil {
			return "", nil, err
		}
		o.logger().Debug("Reasoning transition", "depth", rc.Depth, "from", st, "to", next)
		st = next
	}
	return c.answer, c.trace, nil
}

func (o *Orchestrator) transition(ctx context.Context, c *call, st state) (state, error) {
	switch st {
	case stateInit:
		return o.init(c), nil
	case stateBaseCase:
		return o.baseCase(ctx, c)
	case stateAnalyze:
		return o.analyze(ctx, c)
	case stateDirectAnswer:
		return o.directAnswer(ctx, c)
	case stateDecompose:
		return o.decompose(ctx, c)
	case stateSynthesize:
		return o.synthesize(ctx, c)
	case stateReflect:
		return o.reflect(ctx, c)
	default:
		return stateDone, fmt.Errorf("unexpected reasoning state %s", st)
	}
}

func (o *Orchestrator) init(c *call) state {
	if c.rc.Depth >= c.rc.MaxDepth {
		return stateBaseCase
	}
	return stateAnalyze
}

func (o *Orchestrator) baseCase(ctx context.Context, c *call) (state, error) {
	o.record(c, Step{
		Type:   StepFinalAnswer,
		Depth:  c.rc.Depth,
		Query:  c.rc.Query,
		Action: "Providing direct answer (max depth reached)",
	})

	answer, err := o.generate(ctx, c, StepFinalAnswer, finalAnswerPrompt(c.rc.RetrievedContext, c.rc.Query))
	if err != nil {
		return stateDone, err
	}
	c.answer = answer
	return stateDone, nil
}

func (o *Orchestrator) analyze(ctx context.Context, c *call) (state, error) {
	outcome, err := o.Analyzer.Analyze(ctx, c.rc.Query)
	if err != nil {
		return stateDone, &StepError{Depth: c.rc.Depth, Step: StepAnalysis, Query: c.rc.Query, Err: err}
	}
	c.analysis = outcome

	needsRecursion := outcome.Analysis.NeedsRecursion
	step := Step{
		Type:           StepAnalysis,
		Depth:          c.rc.Depth,
		Query:          c.rc.Query,
		NeedsRecursion: &needsRecursion,
		SubQuestions:   outcome.Analysis.SubQuestions,
	}
	if outcome.Malformed != nil {
		o.logger().Warn("Analyzer reply malformed, answering directly",
			"depth", c.rc.Depth, "missing", outcome.Malformed.Missing)
		step.Malformed = true
		step.Action = "Analysis reply was malformed, treating query as non-recursive"
	}
	o.record(c, step)

	if outcome.Malformed != nil || !needsRecursion || len(outcome.Analysis.SubQuestions) == 0 {
		return stateDirectAnswer, nil
	}
	return stateDecompose, nil
}

func (o *Orchestrator) directAnswer(ctx context.Context, c *call) (state, error) {
	o.record(c, Step{
		Type:   StepDirectAnswer,
		Depth:  c.rc.Depth,
		Query:  c.rc.Query,
		Action: "Query is straightforward, answering directly",
	})

	answer, err := o.generate(ctx, c, StepDirectAnswer, directAnswerPrompt(c.rc.RetrievedContext, c.rc.Query))
	if err != nil {
		return stateDone, err
	}
	c.answer = answer
	return stateDone, nil
}

func (o *Orchestrator) decompose(ctx context.Context, c *call) (state, error) {
	questions := c.analysis.Analysis.SubQuestions
	if len(questions) > MaxSubQuestions {
		questions = questions[:MaxSubQuestions]
	}

	for i, q := range questions {
		o.record(c, Step{
			Type:   StepSubQuestion,
			Depth:  c.rc.Depth + 1,
			Query:  q,
			Action: fmt.Sprintf("Processing sub-question %d/%d", i+1, len(questions)),
			Index:  i + 1,
			Total:  len(questions),
		})

		answer, childTrace, err := o.solve(ctx, RecursionContext{
			Query:            q,
			RetrievedContext: c.rc.RetrievedContext,
			Depth:            c.rc.Depth + 1,
			MaxDepth:         c.rc.MaxDepth,
		})
		if err != nil {
			return stateDone, err
		}
		c.trace.Extend(childTrace)
		c.subAnswers = append(c.subAnswers, SubAnswer{Question: q, Answer: answer})
	}
	return stateSynthesize, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, c *call) (state, error) {
	o.record(c, Step{
		Type:   StepSynthesis,
		Depth:  c.rc.Depth,
		Query:  c.rc.Query,
		Action: "Synthesizing sub-answers into final response",
	})

	answer, err := o.generate(ctx, c, StepSynthesis, synthesisPrompt(c.rc.Query, c.rc.RetrievedContext, c.subAnswers))
	if err != nil {
		return stateDone, err
	}
	c.answer = answer

	if c.rc.Depth == 0 {
		return stateReflect, nil
	}
	return stateDone, nil
}

// reflect replaces the candidate answer with the whole critique reply
// unless the reply contains ApprovedToken.
func (o *Orchestrator) reflect(ctx context.Context, c *call) (state, error) {
	critique, err := o.generate(ctx, c, StepRefinement, reflectionPrompt(c.rc.Query, c.answer, c.rc.RetrievedContext))
	if err != nil {
		return stateDone, err
	}

	if strings.Contains(critique, ApprovedToken) {
		o.logger().Info("Self-reflection approved answer", "depth", c.rc.Depth)
		return stateDone, nil
	}

	o.record(c, Step{
		Type:   StepRefinement,
		Depth:  c.rc.Depth,
		Query:  c.rc.Query,
		Action: "Refining answer based on self-reflection",
	})
	c.answer = critique
	return stateDone, nil
}

func (o *Orchestrator) generate(ctx context.Context, c *call, step StepType, prompt string) (string, error) {
	out, err := o.Generator.Generate(ctx, prompt, o.SystemContext)
	if err != nil {
		return "", &StepError{Depth: c.rc.Depth, Step: step, Query: c.rc.Query, Err: err}
	}
	return out, nil
}

func (o *Orchestrator) record(c *call, s Step) {
	c.trace.Append(s)
	if o.OnStep != nil {
		o.OnStep(s)
	}
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
