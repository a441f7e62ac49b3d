package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateFeedbackRequest struct {
	Query   string `json:"query" validate:"required,min=1"`
	Answer  string `json:"answer" validate:"required,min=1"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type FeedbackResponse struct {
	Id        uuid.UUID `json:"id"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListFeedbackResponse struct {
	Items []FeedbackResponse `json:"items"`
	Total int64              `json:"total"`
}

type FeedbackStatsResponse struct {
	Total     int64   `json:"total"`
	AvgRating float64 `json:"avg_rating"`
	Negative  int64   `json:"negative"`
}
