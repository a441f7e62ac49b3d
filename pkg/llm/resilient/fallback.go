package resilient

import (
	"strings"

	"agentic-rag-be/internal/constant"
)

// FallbackFor returns a deterministic degraded response for a prompt whose
// generation could not be completed. The shape of the prompt decides the
// shape of the fallback so downstream parsers keep working:
//   - validation prompts get a JSON verdict that reads "correct", which
//     prevents the correction loop from spinning on an unreachable model;
//   - rewrite prompts get an empty response, which degrades query expansion
//     to the original query only;
//   - everything else gets a user-facing apology.
func FallbackFor(prompt string) string {
	switch {
	case isValidationPrompt(prompt):
		return `{"is_correct": true, "reason": "Validation service unavailable"}`
	case isRewritePrompt(prompt):
		return ""
	default:
		return constant.MsgLLMUnavailable
	}
}

func isValidationPrompt(prompt string) bool {
	return strings.Contains(prompt, `"is_correct"`)
}

func isRewritePrompt(prompt string) bool {
	return strings.Contains(prompt, "variations") && strings.Contains(prompt, "one per line")
}
