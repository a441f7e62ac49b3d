package implementation

import (
	"context"
	"fmt"

	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/repository/contract"
	"agentic-rag-be/pkg/store"
	"agentic-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// PgVectorStore adapts the document embedding repository to the
// pipeline's VectorStore capability, for deployments that keep the
// corpus in Postgres instead of the embedded store.
type PgVectorStore struct {
	repo contract.DocumentEmbeddingRepository
}

var _ vectorstore.VectorStore = &PgVectorStore{}

func NewPgVectorStore(repo contract.DocumentEmbeddingRepository) *PgVectorStore {
	return &PgVectorStore{repo: repo}
}

func (s *PgVectorStore) Add(ctx context.Context, docs []store.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}

	embeddings := make([]*model.DocumentEmbedding, len(docs))
	for i, doc := range docs {
		chunkIndex := 0
		if pos, ok := doc.Metadata["chunk_index"].(int); ok {
			chunkIndex = pos
		}
		embeddings[i] = &model.DocumentEmbedding{
			Id:             uuid.New(),
			Title:          doc.Title,
			Content:        doc.Content,
			EmbeddingValue: pgvector.NewVector(vectors[i]),
			ChunkIndex:     chunkIndex,
		}
	}
	return s.repo.CreateBulk(ctx, embeddings)
}

func (s *PgVectorStore) Search(ctx context.Context, vector []float32, k int) ([]store.Document, error) {
	scored, err := s.repo.SearchSimilarWithScore(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	docs := make([]store.Document, len(scored))
	for i, res := range scored {
		docs[i] = store.Document{
			ID:      res.Embedding.Id.String(),
			Title:   res.Embedding.Title,
			Content: res.Embedding.Content,
			Score:   res.Similarity,
		}
	}
	return docs, nil
}

func (s *PgVectorStore) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
