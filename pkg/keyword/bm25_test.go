package keyword

import (
	"context"
	"testing"

	"agentic-rag-be/pkg/store"
)

func corpus() []store.Document {
	return []store.Document{
		{ID: "1", Title: "Paris", Content: "Paris is the capital of France and its largest city."},
		{ID: "2", Title: "Berlin", Content: "Berlin is the capital of Germany."},
		{ID: "3", Title: "Cheese", Content: "France is famous for cheese and wine."},
		{ID: "4", Title: "Go", Content: "Go is a statically typed programming language."},
	}
}

func TestBM25SearchEmptyIndex(t *testing.T) {
	idx := NewBM25Index()

	docs, err := idx.Search(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(docs))
	}
}

func TestBM25SearchRanking(t *testing.T) {
	idx := NewBM25Index()
	idx.Index(corpus())

	docs, err := idx.Search(context.Background(), "capital of France", 10)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("expected results for matching query")
	}
	if docs[0].ID != "1" {
		t.Errorf("top result = %s, want doc 1 (mentions both capital and France)", docs[0].ID)
	}
	for _, doc := range docs {
		if doc.ID == "4" {
			t.Errorf("doc 4 matched but shares no query terms")
		}
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Score > docs[i-1].Score {
			t.Errorf("results not sorted descending at index %d", i)
		}
	}
}

func TestBM25SearchRespectsK(t *testing.T) {
	idx := NewBM25Index()
	idx.Index(corpus())

	docs, err := idx.Search(context.Background(), "capital France Germany", 1)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("len(docs) = %d, want 1", len(docs))
	}
}

func TestBM25SearchEmptyQuery(t *testing.T) {
	idx := NewBM25Index()
	idx.Index(corpus())

	docs, err := idx.Search(context.Background(), "   !!! ", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no results for empty query, got %d", len(docs))
	}
}

func TestBM25IndexReplacesCorpus(t *testing.T) {
	idx := NewBM25Index()
	idx.Index(corpus())
	if idx.Count() != 4 {
		t.Fatalf("Count = %d, want 4", idx.Count())
	}

	idx.Index(corpus()[:2])
	if idx.Count() != 2 {
		t.Errorf("Count after reindex = %d, want 2", idx.Count())
	}

	docs, err := idx.Search(context.Background(), "cheese", 5)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected cheese doc gone after reindex, got %d results", len(docs))
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"go1.24 rocks", []string{"go1", "24", "rocks"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := tokenize(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}
