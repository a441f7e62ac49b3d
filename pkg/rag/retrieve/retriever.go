package retrieve

import (
	"context"
	"log"
	"sort"
	"sync"

	"agentic-rag-be/pkg/cache"
	"agentic-rag-be/pkg/embedding"
	"agentic-rag-be/pkg/keyword"
	"agentic-rag-be/pkg/store"
	"agentic-rag-be/pkg/vectorstore"

	"agentic-rag-be/internal/constant"
)

// rrfK is the smoothing constant in the reciprocal rank contribution
// weight / (rrfK + rank + 1). 60 is the standard value from the RRF
// literature.
const rrfK = 60

// HybridRetriever fans semantic and keyword searches out over every
// query variant and fuses the rankings with Reciprocal Rank Fusion.
type HybridRetriever struct {
	embedder embedding.EmbeddingProvider
	vectors  vectorstore.VectorStore
	keywords keyword.KeywordIndex
	cache    *cache.RequestCache
	alpha    float64
	logger   *log.Logger
}

// sourceRanking is one ranked result list from a single source for a
// single variant. A failed source contributes an empty ranking.
type sourceRanking struct {
	docs     []store.Document
	semantic bool
}

func NewHybridRetriever(
	embedder embedding.EmbeddingProvider,
	vectors vectorstore.VectorStore,
	keywords keyword.KeywordIndex,
	requestCache *cache.RequestCache,
	alpha float64,
	logger *log.Logger,
) *HybridRetriever {
	if alpha < 0 || alpha > 1 {
		alpha = 0.5
	}
	return &HybridRetriever{
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		cache:    requestCache,
		alpha:    alpha,
		logger:   logger,
	}
}

// Retrieve returns up to k fused documents for the variant set. The
// cache key is derived from the original query alone, so identical
// questions reuse retrieval work regardless of how rewriting varied.
// The second return value reports a cache hit.
func (r *HybridRetriever) Retrieve(ctx context.Context, originalQuery string, variants []string, k int) ([]store.Document, bool, error) {
	if k <= 0 || len(variants) == 0 {
		return nil, false, nil
	}

	cacheKey := r.cache.Key(constant.CacheNamespaceRetrieval, originalQuery)
	var cached []store.Document
	if r.cache.Get(ctx, cacheKey, &cached) {
		r.logger.Printf("[DEBUG] Retrieval cache hit for query (%d docs)", len(cached))
		return cached, true, nil
	}

	rankings := r.fanOut(ctx, variants, 2*k)
	fused := r.fuse(rankings, k)

	if len(fused) > 0 {
		r.cache.Set(ctx, cacheKey, fused)
	}
	return fused, false, nil
}

// fanOut issues one semantic and one keyword search per variant, all
// concurrently, and waits for every ranking. A failing source logs and
// contributes an empty ranking rather than failing the stage.
func (r *HybridRetriever) fanOut(ctx context.Context, variants []string, perSource int) []sourceRanking {
	rankings := make([]sourceRanking, 2*len(variants))
	var wg sync.WaitGroup

	for i, variant := range variants {
		wg.Add(2)

		go func(slot int, q string) {
			defer wg.Done()
			docs, err := r.semanticSearch(ctx, q, perSource)
			if err != nil {
				r.logger.Printf("[WARN] Semantic search failed for variant %q: %v", q, err)
				return
			}
			rankings[slot] = sourceRanking{docs: docs, semantic: true}
		}(2*i, variant)

		go func(slot int, q string) {
			defer wg.Done()
			docs, err := r.keywords.Search(ctx, q, perSource)
			if err != nil {
				r.logger.Printf("[WARN] Keyword search failed for variant %q: %v", q, err)
				return
			}
			rankings[slot] = sourceRanking{docs: docs}
		}(2*i+1, variant)
	}

	wg.Wait()
	return rankings
}

func (r *HybridRetriever) semanticSearch(ctx context.Context, query string, k int) ([]store.Document, error) {
	res, err := r.embedder.Generate(query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return r.vectors.Search(ctx, res.Embedding.Values, k)
}

// fuse folds every source ranking into a single score map keyed by
// document text. Contribution for rank r (0-indexed) is
// weight/(rrfK+r+1), weight alpha for semantic sources and 1-alpha for
// keyword sources. Ties keep first-seen order.
func (r *HybridRetriever) fuse(rankings []sourceRanking, k int) []store.Document {
	type candidate struct {
		doc   store.Document
		score float64
		order int
	}
	byText := make(map[string]*candidate)
	order := 0

	for _, ranking := range rankings {
		weight := r.alpha
		if !ranking.semantic {
			weight = 1 - r.alpha
		}
		for rank, doc := range ranking.docs {
			contribution := weight / float64(rrfK+rank+1)
			if existing, ok := byText[doc.Content]; ok {
				existing.score += contribution
				continue
			}
			byText[doc.Content] = &candidate{doc: doc, score: contribution, order: order}
			order++
		}
	}

	candidates := make([]*candidate, 0, len(byText))
	for _, c := range byText {
		candidates = append(candidates, c)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	docs := make([]store.Document, len(candidates))
	for i, c := range candidates {
		doc := c.doc
		doc.Score = c.score
		docs[i] = doc
	}
	return docs
}
