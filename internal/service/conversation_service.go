package service

import (
	"context"
	"encoding/json"

	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/repository/contract"
	"agentic-rag-be/internal/repository/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IConversationService interface {
	List(ctx context.Context, limit, offset int) (*dto.ListConversationsResponse, error)
	Messages(ctx context.Context, id uuid.UUID, limit int) ([]dto.MessageResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type conversationService struct {
	repo         contract.ConversationRepository
	historyCache *memory.HistoryCache
}

func NewConversationService(repo contract.ConversationRepository, historyCache *memory.HistoryCache) IConversationService {
	return &conversationService{
		repo:         repo,
		historyCache: historyCache,
	}
}

func (s *conversationService) List(ctx context.Context, limit, offset int) (*dto.ListConversationsResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	conversations, total, err := s.repo.ListConversations(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ConversationResponse, len(conversations))
	for i, c := range conversations {
		items[i] = dto.ConversationResponse{
			Id:        c.Id,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
	}
	return &dto.ListConversationsResponse{Items: items, Total: total}, nil
}

func (s *conversationService) Messages(ctx context.Context, id uuid.UUID, limit int) ([]dto.MessageResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	conversation, err := s.repo.FindConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "conversation not found")
	}

	messages, err := s.repo.RecentMessages(ctx, id, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.MessageResponse, len(messages))
	for i, msg := range messages {
		var metadata map[string]any
		if len(msg.Metadata) > 0 {
			_ = json.Unmarshal(msg.Metadata, &metadata)
		}
		items[i] = dto.MessageResponse{
			Id:        msg.Id,
			Role:      msg.Role,
			Content:   msg.Content,
			Metadata:  metadata,
			CreatedAt: msg.CreatedAt,
		}
	}
	return items, nil
}

func (s *conversationService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.historyCache.Invalidate(id.String())
	return nil
}
