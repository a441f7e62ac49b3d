package implementation

import (
	"context"
	"errors"

	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{db: db}
}

func (r *ConversationRepositoryImpl) CreateConversation(ctx context.Context, conversation *model.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *ConversationRepositoryImpl) FindConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	var m model.Conversation
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *ConversationRepositoryImpl) ListConversations(ctx context.Context, limit, offset int) ([]model.Conversation, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Conversation{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conversations []model.Conversation
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&conversations).Error
	return conversations, total, err
}

func (r *ConversationRepositoryImpl) DeleteConversation(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Conversation{}, "id = ?", id).Error
	})
}

func (r *ConversationRepositoryImpl) CreateMessage(ctx context.Context, message *model.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}
	// Touch the parent so conversation listing sorts by activity.
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", message.ConversationId).
		Update("updated_at", message.CreatedAt).Error
}

func (r *ConversationRepositoryImpl) RecentMessages(ctx context.Context, conversationId uuid.UUID, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
