package vectorstore

import (
	"context"

	"agentic-rag-be/pkg/store"
)

// VectorStore is the semantic index capability consumed by the retriever.
// Embedding computation stays outside: callers pass precomputed vectors
// both when indexing and when searching.
type VectorStore interface {
	// Add indexes documents with their embedding vectors.
	// len(vectors) must equal len(docs).
	Add(ctx context.Context, docs []store.Document, vectors [][]float32) error

	// Search returns up to k documents ranked by similarity descending.
	// Score on the returned documents is the cosine similarity.
	Search(ctx context.Context, vector []float32, k int) ([]store.Document, error)

	// Count returns the number of indexed document chunks.
	Count(ctx context.Context) (int64, error)
}
