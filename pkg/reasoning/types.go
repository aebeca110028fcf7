package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Generator is the blocking text-completion backend the orchestrator drives.
type Generator interface {
	Generate(ctx context.Context, prompt, systemContext string) (string, error)
}

// MaxSubQuestions caps how many sub-questions one decomposition processes.
const MaxSubQuestions = 3

var ErrInvalidDepth = errors.New("max recursion depth must not be negative")

// StepType tags the variant carried by a Step.
type StepType string

const (
	StepAnalysis     StepType = "analysis"
	StepDirectAnswer StepType = "direct_answer"
	StepSubQuestion  StepType = "sub_question"
	StepSynthesis    StepType = "synthesis"
	StepRefinement   StepType = "refinement"
	StepFinalAnswer  StepType = "final_answer"
)

// Step is one entry of the reasoning trace. Depth, Query and Action are
// set on every variant; the remaining fields belong to a single variant.
type Step struct {
	Type   StepType `json:"type"`
	Depth  int      `json:"depth"`
	Query  string   `json:"query"`
	Action string   `json:"action,omitempty"`

	// Analysis
	NeedsRecursion *bool    `json:"needs_recursion,omitempty"`
	SubQuestions   []string `json:"sub_questions,omitempty"`
	Malformed      bool     `json:"malformed,omitempty"`

	// SubQuestion, 1-based
	Index int `json:"index,omitempty"`
	Total int `json:"total,omitempty"`
}

// MarshalJSON always writes sub_questions on analysis steps, as [] when
// there are none.
func (s Step) MarshalJSON() ([]byte, error) {
	type plain Step
	if s.Type != StepAnalysis {
		return json.Marshal(plain(s))
	}
	subs := s.SubQuestions
	if subs == nil {
		subs = []string{}
	}
	return json.Marshal(struct {
		plain
		SubQuestions []string `json:"sub_questions"`
	}{plain(s), subs})
}

// ComplexityAnalysis is the analyzer's decision for one query.
type ComplexityAnalysis struct {
	NeedsRecursion bool     `json:"needs_recursion"`
	SubQuestions   []string `json:"sub_questions"`
	NeedsSynthesis bool     `json:"needs_synthesis"`
}

// SubAnswer pairs a processed sub-question with its answer.
type SubAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// StepError records where in the recursion tree a Generator call failed.
type StepError struct {
	Depth int
	Step  StepType
	Query string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s at depth %d failed: %v", e.Step, e.Depth, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
