package reasoning

import (
	"fmt"
	"strings"
)

func analysisPrompt(query string) string {
	return fmt.Sprintf(`Analyze this question and determine:
1. Does it require multiple steps to answer? (yes/no)
2. What sub-questions need to be answered first? (list them)
3. Is comparison or synthesis needed? (yes/no)

Question: %s

Respond in this exact format:
NEEDS_RECURSION: yes/no
SUB_QUESTIONS: [list each on new line, or "none"]
NEEDS_SYNTHESIS: yes/no`, query)
}

func finalAnswerPrompt(context, query string) string {
	return fmt.Sprintf(`Context: %s

Question: %s

Provide a comprehensive answer based on the context.`, context, query)
}

func directAnswerPrompt(context, query string) string {
	return fmt.Sprintf(`Context: %s

Question: %s

Provide a clear and concise answer based on the context.`, context, query)
}

// formatSubAnswers renders each pair as "Q: ..\nA: ..\n" joined by a
// newline, so consecutive pairs are separated by a blank line.
func formatSubAnswers(answers []SubAnswer) string {
	parts := make([]string, len(answers))
	for i, sa := range answers {
		parts[i] = fmt.Sprintf("Q: %s\nA: %s\n", sa.Question, sa.Answer)
	}
	return strings.Join(parts, "\n")
}

func synthesisPrompt(query, context string, answers []SubAnswer) string {
	return fmt.Sprintf(`Original Question: %s

Context: %s

Sub-questions and their answers:
%s

Now synthesize all the information above to provide a comprehensive answer to the original question.
Make sure to integrate all the sub-answers coherently.`, query, context, formatSubAnswers(answers))
}

func reflectionPrompt(query, answer, context string) string {
	return fmt.Sprintf(`Review this answer for completeness and accuracy:

Question: %s
Answer: %s
Context: %s

Is this answer:
1. Complete? (addresses all parts of the question)
2. Accurate? (based on the context)
3. Clear? (well-organized and understandable)

If any issues, provide an improved version. If good, respond with: %s`, query, answer, context, ApprovedToken)
}
