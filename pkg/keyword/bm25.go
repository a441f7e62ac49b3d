package keyword

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"agentic-rag-be/pkg/store"
)

// BM25 Okapi parameters. Standard values, no corpus-specific tuning.
const (
	k1 = 1.5
	b  = 0.75
)

// KeywordIndex is the lexical retrieval capability consumed by the
// retriever alongside the vector store.
type KeywordIndex interface {
	// Index replaces the corpus. Safe to call while searches run.
	Index(docs []store.Document)

	// Search returns up to k documents ranked by BM25 score descending.
	// An unbuilt or empty index returns no results, never an error.
	Search(ctx context.Context, query string, k int) ([]store.Document, error)

	// Count returns the number of indexed documents.
	Count() int
}

// BM25Index is an in-memory BM25 Okapi index over document chunks.
// The whole corpus is rebuilt on every Index call; for the corpus sizes
// this serves, rebuilding is cheaper than incremental bookkeeping.
type BM25Index struct {
	mu        sync.RWMutex
	docs      []store.Document
	docTokens [][]string
	docFreq   map[string]int // term -> number of docs containing it
	avgDocLen float64
}

var _ KeywordIndex = &BM25Index{}

func NewBM25Index() *BM25Index {
	return &BM25Index{docFreq: map[string]int{}}
}

func (idx *BM25Index) Index(docs []store.Document) {
	docTokens := make([][]string, len(docs))
	docFreq := make(map[string]int)
	totalLen := 0

	for i, doc := range docs {
		tokens := tokenize(doc.Content)
		docTokens[i] = tokens
		totalLen += len(tokens)

		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; !ok {
				seen[tok] = struct{}{}
				docFreq[tok]++
			}
		}
	}

	avgDocLen := 0.0
	if len(docs) > 0 {
		avgDocLen = float64(totalLen) / float64(len(docs))
	}

	idx.mu.Lock()
	idx.docs = append([]store.Document(nil), docs...)
	idx.docTokens = docTokens
	idx.docFreq = docFreq
	idx.avgDocLen = avgDocLen
	idx.mu.Unlock()
}

func (idx *BM25Index) Search(ctx context.Context, query string, k int) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.docs) == 0 || k <= 0 {
		return nil, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	n := float64(len(idx.docs))
	type scored struct {
		pos   int
		score float64
	}
	results := make([]scored, 0, len(idx.docs))

	for i, tokens := range idx.docTokens {
		termFreq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			termFreq[tok]++
		}

		score := 0.0
		docLen := float64(len(tokens))
		for _, q := range queryTokens {
			tf := float64(termFreq[q])
			if tf == 0 {
				continue
			}
			df := float64(idx.docFreq[q])
			idf := math.Log((n-df+0.5)/(df+0.5) + 1)
			score += idf * (tf * (k1 + 1)) / (tf + k1*(1-b+b*docLen/idx.avgDocLen))
		}
		if score > 0 {
			results = append(results, scored{pos: i, score: score})
		}
	}

	sort.SliceStable(results, func(a, c int) bool {
		return results[a].score > results[c].score
	})
	if len(results) > k {
		results = results[:k]
	}

	docs := make([]store.Document, len(results))
	for i, res := range results {
		doc := idx.docs[res.pos]
		doc.Score = res.score
		docs[i] = doc
	}
	return docs, nil
}

func (idx *BM25Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
