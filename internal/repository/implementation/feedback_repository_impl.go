package implementation

import (
	"context"

	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/repository/contract"

	"gorm.io/gorm"
)

type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) contract.FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(ctx context.Context, feedback *model.Feedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) List(ctx context.Context, maxRating, limit, offset int) ([]model.Feedback, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Feedback{})
	if maxRating > 0 {
		query = query.Where("rating <= ?", maxRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.Feedback
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

func (r *FeedbackRepositoryImpl) Stats(ctx context.Context) (*contract.FeedbackStats, error) {
	var stats contract.FeedbackStats
	err := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Select("COUNT(*) AS total, COALESCE(AVG(rating), 0) AS avg_rating, COUNT(*) FILTER (WHERE rating <= 2) AS negative").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
