package contract

import (
	"context"

	"agentic-rag-be/internal/model"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *model.Conversation) error
	FindConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, int64, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, message *model.ChatMessage) error
	// RecentMessages returns the newest messages of a conversation in
	// chronological order.
	RecentMessages(ctx context.Context, conversationId uuid.UUID, limit int) ([]model.ChatMessage, error)
}
