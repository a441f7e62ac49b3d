package response

import (
	"context"
	"log"
	"strings"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/prompt"
)

// Generator produces the grounded answer from ranked context and
// optional conversation history, atomically or as a stream.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewGenerator(llmProvider llm.LLMProvider, logger *log.Logger) *Generator {
	return &Generator{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Generate returns the full answer in one call. When both the document
// context and the conversation history are empty there is nothing to
// ground an answer in, so the model is never called and a fixed
// no-information message is returned instead.
func (g *Generator) Generate(ctx context.Context, query string, contextTexts []string, history []llm.Message) (string, error) {
	if len(contextTexts) == 0 && len(history) == 0 {
		g.logger.Printf("[DEBUG] No context and no history, skipping generation")
		return constant.MsgNoRelevantInfo, nil
	}

	userPrompt := prompt.NewAnswerBuilder(query, contextTexts, history).Build()
	answer, err := g.llmProvider.Generate(ctx, userPrompt, llm.WithSystem(prompt.GroundingInstruction))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// GenerateStream emits answer segments through onDelta as they arrive
// while accumulating the full text, which is returned for validation
// and persistence. An onDelta error means the consumer is gone;
// production stops without surfacing an error to the pipeline.
func (g *Generator) GenerateStream(ctx context.Context, query string, contextTexts []string, history []llm.Message, onDelta llm.StreamHandler) (string, error) {
	if len(contextTexts) == 0 && len(history) == 0 {
		g.logger.Printf("[DEBUG] No context and no history, skipping generation")
		_ = onDelta(constant.MsgNoRelevantInfo)
		return constant.MsgNoRelevantInfo, nil
	}

	var full strings.Builder
	userPrompt := prompt.NewAnswerBuilder(query, contextTexts, history).Build()

	err := g.llmProvider.GenerateStream(ctx, userPrompt, func(delta string) error {
		full.WriteString(delta)
		return onDelta(delta)
	}, llm.WithSystem(prompt.GroundingInstruction))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(full.String()), nil
}
