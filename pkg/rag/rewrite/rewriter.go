package rewrite

import (
	"context"
	"log"
	"strings"

	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/rag/prompt"
)

// Rewriter expands one query into up to n variants to diversify
// retrieval recall. The original query is always the first variant.
type Rewriter struct {
	llmProvider llm.LLMProvider
	logger      *log.Logger
}

func NewRewriter(llmProvider llm.LLMProvider, logger *log.Logger) *Rewriter {
	return &Rewriter{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// Expand returns an ordered, deduplicated variant list of length <= n.
// With n <= 1 no model call is made: single-variant retrieval is the
// designed fast path. Any generation failure degrades to the original
// query alone.
func (r *Rewriter) Expand(ctx context.Context, query string, n int) []string {
	if n <= 1 {
		return []string{query}
	}

	out, err := r.llmProvider.Generate(ctx, prompt.Rewrite(query, n-1))
	if err != nil {
		r.logger.Printf("[WARN] Query rewriting failed, using original only: %v", err)
		return []string{query}
	}

	variants := []string{query}
	seen := map[string]struct{}{normalize(query): {}}

	for _, line := range strings.Split(out, "\n") {
		variant := strings.TrimSpace(line)
		if variant == "" {
			continue
		}
		key := normalize(variant)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		variants = append(variants, variant)
		if len(variants) == n {
			break
		}
	}

	r.logger.Printf("[DEBUG] Expanded query into %d variants", len(variants))
	return variants
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
