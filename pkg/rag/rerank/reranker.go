package rerank

import (
	"context"
	"log"
	"sort"

	"agentic-rag-be/pkg/store"
)

// PairScorer is the cross-encoder capability: score each (query,
// document) pair for relevance. Higher is more relevant.
type PairScorer interface {
	ScorePairs(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranker reorders a fused candidate set by pairwise relevance and
// truncates to topK. Scores below the threshold are kept but flagged
// low-confidence so downstream stages can treat them as weak context.
type Reranker struct {
	scorer    PairScorer
	threshold float64
	logger    *log.Logger
}

func NewReranker(scorer PairScorer, threshold float64, logger *log.Logger) *Reranker {
	return &Reranker{
		scorer:    scorer,
		threshold: threshold,
		logger:    logger,
	}
}

// Rerank returns (ranked documents, top score). An empty candidate list
// returns ([], 0.0) without touching the scorer: "nothing relevant" is
// a valid outcome, not an error. A scorer failure degrades to the
// incoming fusion order.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []store.Document, topK int) ([]store.ScoredDocument, float64) {
	if len(docs) == 0 {
		return []store.ScoredDocument{}, 0.0
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}

	scores, err := r.scorer.ScorePairs(ctx, query, texts)
	if err != nil || len(scores) != len(docs) {
		r.logger.Printf("[WARN] Pair scoring failed, keeping fusion order: %v", err)
		scores = make([]float64, len(docs))
		for i, doc := range docs {
			scores[i] = doc.Score
		}
	}

	ranked := make([]store.ScoredDocument, len(docs))
	for i, doc := range docs {
		ranked[i] = store.ScoredDocument{
			Content:       doc.Content,
			Score:         scores[i],
			LowConfidence: scores[i] < r.threshold,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}

	return ranked, ranked[0].Score
}
