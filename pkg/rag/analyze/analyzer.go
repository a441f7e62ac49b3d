package analyze

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/prompt"
)

// QueryAnalysis classifies a query for routing diagnostics: what the
// user is after and how involved answering it will be.
type QueryAnalysis struct {
	Intent     string   `json:"intent"`
	Complexity string   `json:"complexity"`
	Keywords   []string `json:"keywords"`
}

// Analyzer asks the model to classify a query. Classification is
// advisory only, so every failure degrades to a neutral default.
type Analyzer struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewAnalyzer(llmProvider llm.LLMProvider, logger *log.Logger) *Analyzer {
	return &Analyzer{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

func defaultAnalysis() QueryAnalysis {
	return QueryAnalysis{Intent: "factual", Complexity: "simple"}
}

func (a *Analyzer) Analyze(ctx context.Context, query string) QueryAnalysis {
	out, err := a.llmProvider.Generate(ctx, prompt.Analysis(query))
	if err != nil {
		a.logger.Printf("[WARN] Query analysis failed, using default: %v", err)
		return defaultAnalysis()
	}

	var analysis QueryAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &analysis); err != nil {
		a.logger.Printf("[WARN] Query analysis unparseable, using default: %v", err)
		return defaultAnalysis()
	}
	if analysis.Intent == "" {
		analysis.Intent = "factual"
	}
	if analysis.Complexity == "" {
		analysis.Complexity = "simple"
	}
	return analysis
}

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
