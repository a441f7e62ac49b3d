package rerank

import (
	"context"
	"strings"
)

// OverlapScorer is a lightweight PairScorer that rates each document by
// the fraction of distinct query terms it contains. It stands in for a
// cross-encoder model when none is deployed: cheap, deterministic, and
// monotone in lexical relevance.
type OverlapScorer struct{}

func NewOverlapScorer() *OverlapScorer {
	return &OverlapScorer{}
}

var _ PairScorer = &OverlapScorer{}

func (s *OverlapScorer) ScorePairs(ctx context.Context, query string, documents []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := terms(query)
	scores := make([]float64, len(documents))
	if len(queryTerms) == 0 {
		return scores, nil
	}

	for i, doc := range documents {
		docTerms := make(map[string]struct{})
		for _, t := range terms(doc) {
			docTerms[t] = struct{}{}
		}

		matched := 0
		counted := make(map[string]struct{}, len(queryTerms))
		for _, t := range queryTerms {
			if _, dup := counted[t]; dup {
				continue
			}
			counted[t] = struct{}{}
			if _, ok := docTerms[t]; ok {
				matched++
			}
		}
		scores[i] = float64(matched) / float64(len(counted))
	}
	return scores, nil
}

// terms lowercases, splits on non-alphanumerics and drops stopwords and
// tokens too short to be discriminative.
func terms(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
		return !alnum
	})

	filtered := tokens[:0]
	for _, tok := range tokens {
		if len(tok) > 2 && !stopwords[tok] {
			filtered = append(filtered, tok)
		}
	}
	return filtered
}

var stopwords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"from": true, "was": true, "are": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "this": true, "that": true,
	"these": true, "those": true, "you": true, "she": true, "they": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "not": true,
}
