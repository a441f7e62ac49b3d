package vectorstore

import (
	"context"
	"fmt"
	"strconv"

	"agentic-rag-be/pkg/store"

	"github.com/philippgille/chromem-go"
)

// ChromemStore is an embedded vector store backed by chromem-go.
// It is the default backend: no external database, optional persistence
// to disk, cosine similarity over normalized vectors.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

var _ VectorStore = &ChromemStore{}

// NewChromemStore opens (or creates) the documents collection.
// An empty path keeps the store purely in memory.
func NewChromemStore(path string) (*ChromemStore, error) {
	var db *chromem.DB
	var err error

	if path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, true)
		if err != nil {
			return nil, fmt.Errorf("open persistent vector store: %w", err)
		}
	}

	// Embeddings are always supplied by the caller, so no embedding
	// function is wired into the collection.
	collection, err := db.GetOrCreateCollection("documents", nil, func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("embedding must be precomputed")
	})
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{db: db, collection: collection}, nil
}

func (s *ChromemStore) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}
	if len(docs) == 0 {
		return nil
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		metadata := map[string]string{"title": doc.Title}
		if pos, ok := doc.Metadata["chunk_index"].(int); ok {
			metadata["chunk_index"] = strconv.Itoa(pos)
		}
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: vectors[i],
			Metadata:  metadata,
		}
	}

	return s.collection.AddDocuments(ctx, chromemDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, k int) ([]store.Document, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	docs := make([]store.Document, len(results))
	for i, res := range results {
		docs[i] = store.Document{
			ID:      res.ID,
			Title:   res.Metadata["title"],
			Content: res.Content,
			Score:   float64(res.Similarity),
		}
	}
	return docs, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int64, error) {
	return int64(s.collection.Count()), nil
}
