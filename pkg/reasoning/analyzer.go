package reasoning

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	markerNeedsRecursion = "NEEDS_RECURSION:"
	markerSubQuestions   = "SUB_QUESTIONS:"
	markerNeedsSynthesis = "NEEDS_SYNTHESIS:"

	noneToken = "none"
)

// MalformedAnalysisError is returned by ParseAnalysis when the model's
// reply lacks one of the labelled fields.
type MalformedAnalysisError struct {
	Raw     string
	Missing []string
}

func (e *MalformedAnalysisError) Error() string {
	return fmt.Sprintf("malformed analysis response: missing %s", strings.Join(e.Missing, ", "))
}

// AnalysisOutcome is either a parsed analysis or, when Malformed is set,
// the degraded "no decomposition" analysis together with the raw reply.
type AnalysisOutcome struct {
	Analysis  ComplexityAnalysis
	Malformed *MalformedAnalysisError
}

// Analyzer asks the Generator whether a query should be decomposed.
type Analyzer struct {
	Generator     Generator
	SystemContext string
}

func NewAnalyzer(gen Generator) *Analyzer {
	return &Analyzer{Generator: gen}
}

// Analyze returns an error only when the Generator call fails. An
// unparsable reply degrades to a non-recursive analysis.
func (a *Analyzer) Analyze(ctx context.Context, query string) (AnalysisOutcome, error) {
	raw, err := a.Generator.Generate(ctx, analysisPrompt(query), a.SystemContext)
	if err != nil {
		return AnalysisOutcome{}, err
	}

	analysis, err := ParseAnalysis(raw)
	if err != nil {
		var malformed *MalformedAnalysisError
		if !errors.As(err, &malformed) {
			return AnalysisOutcome{}, err
		}
		return AnalysisOutcome{Malformed: malformed}, nil
	}
	return AnalysisOutcome{Analysis: analysis}, nil
}

// ParseAnalysis extracts the three labelled fields from an analyzer reply.
//
// The yes/no markers are matched case-insensitively and are true when "yes"
// occurs before the end of the marker's line. SUB_QUESTIONS: must appear
// verbatim. The sub-question list is the text between SUB_QUESTIONS: and
// NEEDS_SYNTHESIS:, one entry per non-blank line, with the literal "none"
// dropped.
func ParseAnalysis(raw string) (ComplexityAnalysis, error) {
	lower := strings.ToLower(raw)

	var missing []string
	if !strings.Contains(lower, strings.ToLower(markerNeedsRecursion)) {
		missing = append(missing, markerNeedsRecursion)
	}
	if !strings.Contains(raw, markerSubQuestions) {
		missing = append(missing, markerSubQuestions)
	}
	if !strings.Contains(lower, strings.ToLower(markerNeedsSynthesis)) {
		missing = append(missing, markerNeedsSynthesis)
	}
	if len(missing) > 0 {
		return ComplexityAnalysis{}, &MalformedAnalysisError{Raw: raw, Missing: missing}
	}

	return ComplexityAnalysis{
		NeedsRecursion: flagIsYes(lower, strings.ToLower(markerNeedsRecursion)),
		SubQuestions:   parseSubQuestions(raw),
		NeedsSynthesis: flagIsYes(lower, strings.ToLower(markerNeedsSynthesis)),
	}, nil
}

// afterMarker returns the text following the first occurrence of marker,
// up to its next occurrence if there is one.
func afterMarker(s, marker string) string {
	_, rest, _ := strings.Cut(s, marker)
	segment, _, _ := strings.Cut(rest, marker)
	return segment
}

func flagIsYes(lower, marker string) bool {
	line, _, _ := strings.Cut(afterMarker(lower, marker), "\n")
	return strings.Contains(line, "yes")
}

func parseSubQuestions(raw string) []string {
	section := afterMarker(raw, markerSubQuestions)
	if i := indexFold(section, markerNeedsSynthesis); i >= 0 {
		section = section[:i]
	}

	var questions []string
	for _, line := range strings.Split(section, "\n") {
		q := strings.TrimSpace(line)
		if q == "" || q == noneToken {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

// indexFold is strings.Index with ASCII case folding on substr.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
