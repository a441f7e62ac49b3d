package dto

import (
	"time"

	"github.com/google/uuid"
)

type ConversationResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListConversationsResponse struct {
	Items []ConversationResponse `json:"items"`
	Total int64                  `json:"total"`
}

type MessageResponse struct {
	Id        uuid.UUID      `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
