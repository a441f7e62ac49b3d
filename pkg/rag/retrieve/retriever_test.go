package retrieve

import (
	"context"
	"io"
	"log"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"agentic-rag-be/pkg/cache"
	"agentic-rag-be/pkg/embedding"
	"agentic-rag-be/pkg/keyword"
	"agentic-rag-be/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeEmbedder struct {
	calls int64
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	atomic.AddInt64(&f.calls, 1)
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{0.1, 0.2, 0.3}},
	}, nil
}

func (f *fakeEmbedder) GenerateBatch(texts []string, taskType string) ([]*embedding.EmbeddingResponse, error) {
	out := make([]*embedding.EmbeddingResponse, len(texts))
	for i := range texts {
		res, _ := f.Generate(texts[i], taskType)
		out[i] = res
	}
	return out, nil
}

type fakeVectorStore struct {
	docs  []store.Document
	calls int64
}

func (f *fakeVectorStore) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	return nil
}

func (f *fakeVectorStore) Search(ctx context.Context, vector []float32, k int) ([]store.Document, error) {
	atomic.AddInt64(&f.calls, 1)
	if len(f.docs) > k {
		return f.docs[:k], nil
	}
	return f.docs, nil
}

func (f *fakeVectorStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.docs)), nil
}

type fakeKeywordIndex struct {
	docs []store.Document
}

func (f *fakeKeywordIndex) Index(docs []store.Document) { f.docs = docs }

func (f *fakeKeywordIndex) Search(ctx context.Context, query string, k int) ([]store.Document, error) {
	if len(f.docs) > k {
		return f.docs[:k], nil
	}
	return f.docs, nil
}

func (f *fakeKeywordIndex) Count() int { return len(f.docs) }

func disabledCache() *cache.RequestCache {
	return cache.NewRequestCacheFromClient(nil, time.Minute, log.New(io.Discard, "", 0))
}

func doc(id, content string) store.Document {
	return store.Document{ID: id, Title: id, Content: content}
}

func TestRetrieveFusesBothSources(t *testing.T) {
	shared := doc("shared", "Paris is the capital of France.")
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{docs: []store.Document{shared}},
		&fakeKeywordIndex{docs: []store.Document{shared}},
		disabledCache(),
		0.5,
		log.New(io.Discard, "", 0),
	)

	docs, hit, err := retriever.Retrieve(context.Background(), "capital of France", []string{"capital of France"}, 5)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if hit {
		t.Error("unexpected cache hit with cache disabled")
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1 (same text from both sources fuses)", len(docs))
	}

	// Rank 0 in both rankings with equal weights: 0.5/61 + 0.5/61.
	want := 1.0 / 61.0
	if math.Abs(docs[0].Score-want) > 1e-12 {
		t.Errorf("fused score = %v, want %v", docs[0].Score, want)
	}
}

func TestRetrieveSemanticOnlyWhenKeywordEmpty(t *testing.T) {
	semDocs := []store.Document{
		doc("a", "first chunk"),
		doc("b", "second chunk"),
	}
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{docs: semDocs},
		keyword.NewBM25Index(), // unbuilt index returns nothing
		disabledCache(),
		0.5,
		log.New(io.Discard, "", 0),
	)

	docs, _, err := retriever.Retrieve(context.Background(), "q", []string{"q"}, 5)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2 from the semantic source alone", len(docs))
	}
	if docs[0].Content != "first chunk" {
		t.Errorf("top doc = %q, want semantic rank order preserved", docs[0].Content)
	}
}

func TestRetrieveEmptyWhenBothSourcesEmpty(t *testing.T) {
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{},
		&fakeKeywordIndex{},
		disabledCache(),
		0.5,
		log.New(io.Discard, "", 0),
	)

	docs, hit, err := retriever.Retrieve(context.Background(), "q", []string{"q", "q2"}, 5)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if hit || len(docs) != 0 {
		t.Errorf("want empty miss, got %d docs hit=%v", len(docs), hit)
	}
}

func TestRetrieveRespectsK(t *testing.T) {
	var many []store.Document
	for _, c := range []string{"one", "two", "three", "four", "five", "six"} {
		many = append(many, doc(c, c))
	}
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{docs: many},
		&fakeKeywordIndex{docs: many},
		disabledCache(),
		0.5,
		log.New(io.Discard, "", 0),
	)

	docs, _, err := retriever.Retrieve(context.Background(), "q", []string{"q", "q alt"}, 3)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(docs) > 3 {
		t.Errorf("got %d docs, want at most 3", len(docs))
	}
}

func TestRetrieveInvalidArgs(t *testing.T) {
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{},
		&fakeKeywordIndex{},
		disabledCache(),
		0.5,
		log.New(io.Discard, "", 0),
	)

	if docs, _, _ := retriever.Retrieve(context.Background(), "q", nil, 5); len(docs) != 0 {
		t.Error("expected no docs without variants")
	}
	if docs, _, _ := retriever.Retrieve(context.Background(), "q", []string{"q"}, 0); len(docs) != 0 {
		t.Error("expected no docs with k=0")
	}
}

func TestRetrieveAlphaWeighting(t *testing.T) {
	semOnly := doc("sem", "semantic only text")
	kwOnly := doc("kw", "keyword only text")

	// alpha 0.9 favors the semantic source heavily.
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		&fakeVectorStore{docs: []store.Document{semOnly}},
		&fakeKeywordIndex{docs: []store.Document{kwOnly}},
		disabledCache(),
		0.9,
		log.New(io.Discard, "", 0),
	)

	docs, _, err := retriever.Retrieve(context.Background(), "q", []string{"q"}, 5)
	if err != nil {
		t.Fatalf("Retrieve returned error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].Content != "semantic only text" {
		t.Errorf("top doc = %q, want the semantically-ranked one under alpha=0.9", docs[0].Content)
	}
}

func TestRetrieveUsesCache(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	requestCache := cache.NewRequestCacheFromClient(client, time.Minute, log.New(io.Discard, "", 0))

	vectors := &fakeVectorStore{docs: []store.Document{doc("a", "cached chunk")}}
	retriever := NewHybridRetriever(
		&fakeEmbedder{},
		vectors,
		&fakeKeywordIndex{},
		requestCache,
		0.5,
		log.New(io.Discard, "", 0),
	)

	first, hit, err := retriever.Retrieve(context.Background(), "same question", []string{"same question"}, 5)
	if err != nil {
		t.Fatalf("first Retrieve: %v", err)
	}
	if hit {
		t.Fatal("first call must miss")
	}

	second, hit, err := retriever.Retrieve(context.Background(), "same question", []string{"a different variant set"}, 5)
	if err != nil {
		t.Fatalf("second Retrieve: %v", err)
	}
	if !hit {
		t.Fatal("second call with the same original query must hit")
	}
	if atomic.LoadInt64(&vectors.calls) != 1 {
		t.Errorf("vector store searched %d times, want 1 (second call served from cache)", vectors.calls)
	}
	if len(second) != len(first) || second[0].Content != first[0].Content {
		t.Errorf("cached result %v differs from original %v", second, first)
	}
}
