package contract

import (
	"context"

	"agentic-rag-be/internal/model"
)

// FeedbackStats aggregates the feedback table for the quality dashboard.
type FeedbackStats struct {
	Total     int64
	AvgRating float64
	Negative  int64
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *model.Feedback) error

	// List returns feedback newest first. A positive maxRating filters to
	// entries rated at or below it (negative-feedback review).
	List(ctx context.Context, maxRating, limit, offset int) ([]model.Feedback, int64, error)

	Stats(ctx context.Context) (*FeedbackStats, error)
}
