package contract

import (
	"context"

	"agentic-rag-be/internal/model"
)

// ScoredDocumentEmbedding pairs a chunk with its cosine similarity to a
// query vector.
type ScoredDocumentEmbedding struct {
	Embedding  *model.DocumentEmbedding
	Similarity float64
}

type DocumentEmbeddingRepository interface {
	CreateBulk(ctx context.Context, embeddings []*model.DocumentEmbedding) error
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredDocumentEmbedding, error)
	Count(ctx context.Context) (int64, error)
	// FindAll streams the whole corpus, used to rebuild the keyword
	// index at startup.
	FindAll(ctx context.Context) ([]*model.DocumentEmbedding, error)
}
