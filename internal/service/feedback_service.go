package service

import (
	"context"

	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/repository/contract"

	"github.com/google/uuid"
)

type IFeedbackService interface {
	Create(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error)
	List(ctx context.Context, maxRating, limit, offset int) (*dto.ListFeedbackResponse, error)
	Stats(ctx context.Context) (*dto.FeedbackStatsResponse, error)
}

type feedbackService struct {
	repo contract.FeedbackRepository
}

func NewFeedbackService(repo contract.FeedbackRepository) IFeedbackService {
	return &feedbackService{repo: repo}
}

func (s *feedbackService) Create(ctx context.Context, req *dto.CreateFeedbackRequest) (*dto.FeedbackResponse, error) {
	entry := &model.Feedback{
		Id:      uuid.New(),
		Query:   req.Query,
		Answer:  req.Answer,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return toFeedbackResponse(entry), nil
}

func (s *feedbackService) List(ctx context.Context, maxRating, limit, offset int) (*dto.ListFeedbackResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	entries, total, err := s.repo.List(ctx, maxRating, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.FeedbackResponse, len(entries))
	for i := range entries {
		items[i] = *toFeedbackResponse(&entries[i])
	}
	return &dto.ListFeedbackResponse{Items: items, Total: total}, nil
}

func (s *feedbackService) Stats(ctx context.Context) (*dto.FeedbackStatsResponse, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.FeedbackStatsResponse{
		Total:     stats.Total,
		AvgRating: stats.AvgRating,
		Negative:  stats.Negative,
	}, nil
}

func toFeedbackResponse(entry *model.Feedback) *dto.FeedbackResponse {
	return &dto.FeedbackResponse{
		Id:        entry.Id,
		Query:     entry.Query,
		Answer:    entry.Answer,
		Rating:    entry.Rating,
		Comment:   entry.Comment,
		CreatedAt: entry.CreatedAt,
	}
}
