package validate

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/prompt"
)

// Verdict is the groundedness-check outcome consumed by the correction
// loop's transition function.
type Verdict struct {
	IsCorrect bool   `json:"is_correct"`
	Reason    string `json:"reason"`
}

// Validator checks whether a generated answer is supported by the
// retrieved context. It never returns an error: every failure mode is
// absorbed into a conservative verdict so the correction loop stays
// bounded.
type Validator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewValidator(llmProvider llm.LLMProvider, logger *log.Logger) *Validator {
	return &Validator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Validate runs the groundedness check. An answer that already declines
// ("cannot find this information") is correct by definition, no model
// call needed. Unparseable model output biases toward correct: a
// transient evaluation failure must not spin the correction loop.
func (v *Validator) Validate(ctx context.Context, question string, answer string, contextTexts []string) Verdict {
	if strings.Contains(answer, constant.MsgCannotFind) {
		return Verdict{IsCorrect: true, Reason: "Answer explicitly declines due to missing information"}
	}

	out, err := v.llmProvider.Generate(ctx, prompt.Validation(question, answer, contextTexts))
	if err != nil {
		v.logger.Printf("[WARN] Validation call failed, assuming correct: %v", err)
		return Verdict{IsCorrect: true, Reason: "Validation unavailable"}
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &verdict); err != nil {
		v.logger.Printf("[WARN] Validation verdict unparseable, assuming correct: %v", err)
		return Verdict{IsCorrect: true, Reason: "Validation verdict unparseable"}
	}
	return verdict
}

// stripCodeFence unwraps ```json ... ``` fencing that chat models wrap
// around structured output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
