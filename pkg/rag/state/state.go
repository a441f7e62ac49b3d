package state

import (
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/store"
)

// PipelineState carries one request through every pipeline stage. It is
// created at request entry, owned exclusively by that request, and
// discarded when the run completes. Every field a stage may touch is
// declared here so a half-populated state is visible at a glance.
type PipelineState struct {
	// Query is the original user question. Never mutated after entry.
	Query string

	// Variants holds the rewritten query expansions, original first.
	Variants []string

	// Documents is the fused retrieval set before reranking.
	Documents []store.Document

	// Ranked is the reranked (document, score) list, best first.
	Ranked []store.ScoredDocument

	// Answer is the current generated answer text.
	Answer string

	// CorrectionAttempts counts loop re-entries. Monotonically
	// non-decreasing, never exceeds the configured maximum.
	CorrectionAttempts int

	// IsCorrect and CorrectionReason hold the latest validation verdict.
	IsCorrect        bool
	CorrectionReason string

	// RetrievalScore is the top relevance score after reranking.
	RetrievalScore float64

	// CacheHit reports whether retrieval was served from cache.
	CacheHit bool

	// History is the bounded conversation context, oldest first.
	History []llm.Message
}

func New(query string, history []llm.Message) *PipelineState {
	return &PipelineState{
		Query:   query,
		History: history,
	}
}

// ContextTexts returns the ranked document texts in order, for prompt
// assembly and groundedness checks.
func (s *PipelineState) ContextTexts() []string {
	texts := make([]string, len(s.Ranked))
	for i, doc := range s.Ranked {
		texts[i] = doc.Content
	}
	return texts
}
