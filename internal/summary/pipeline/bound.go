package pipeline

import "strings"

// DefaultTokenBudget caps how much article text is sent to the chat model.
// Tokens here are whitespace-separated words, not model tokens.
const DefaultTokenBudget = 3000

// BoundTokens returns at most max whitespace-separated tokens of text,
// joined with single spaces. Runs of whitespace collapse even when the
// text is already within budget, so the output is stable under repeated
// application.
func BoundTokens(text string, max int) string {
	fields := strings.Fields(text)
	if max >= 0 && len(fields) > max {
		fields = fields[:max]
	}
	return strings.Join(fields, " ")
}
