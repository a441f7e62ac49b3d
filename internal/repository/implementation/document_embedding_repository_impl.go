package implementation

import (
	"context"

	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewDocumentEmbeddingRepository(db *gorm.DB) contract.DocumentEmbeddingRepository {
	return &DocumentEmbeddingRepositoryImpl{db: db}
}

func (r *DocumentEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*model.DocumentEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(embeddings).Error
}

// SearchSimilarWithScore ranks chunks by cosine similarity. pgvector's
// <=> operator is cosine distance, so similarity = 1 - distance.
func (r *DocumentEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredDocumentEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		model.DocumentEmbedding
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)
	err := r.db.WithContext(ctx).
		Table("document_embeddings").
		Select("document_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredDocumentEmbedding, len(rows))
	for i, res := range rows {
		embeddingRow := res.DocumentEmbedding
		scored[i] = &contract.ScoredDocumentEmbedding{
			Embedding:  &embeddingRow,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *DocumentEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentEmbedding{}).Count(&count).Error
	return count, err
}

func (r *DocumentEmbeddingRepositoryImpl) FindAll(ctx context.Context) ([]*model.DocumentEmbedding, error) {
	var embeddings []*model.DocumentEmbedding
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&embeddings).Error
	return embeddings, err
}
