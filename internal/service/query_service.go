package service

import (
	"context"
	"encoding/json"
	"time"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/model"
	"agentic-rag-be/internal/pkg/logger"
	"agentic-rag-be/internal/repository/contract"
	"agentic-rag-be/internal/repository/memory"
	"agentic-rag-be/pkg/events"
	"agentic-rag-be/pkg/llm"
	"agentic-rag-be/pkg/metrics"
	pktNats "agentic-rag-be/pkg/nats"
	"agentic-rag-be/pkg/rag/analyze"
	"agentic-rag-be/pkg/rag/executor"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// historyWindow is how many persisted turns flow back into the
// pipeline as conversation context.
const historyWindow = 10

type IQueryService interface {
	Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	AskStream(ctx context.Context, req *dto.QueryRequest, sink executor.EventSink) error
	Analyze(ctx context.Context, req *dto.AnalyzeQueryRequest) *dto.AnalyzeQueryResponse
}

type queryService struct {
	pipeline         *executor.Pipeline
	analyzer         *analyze.Analyzer
	conversationRepo contract.ConversationRepository
	historyCache     *memory.HistoryCache
	tracker          *metrics.Tracker
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewQueryService(
	pipeline *executor.Pipeline,
	analyzer *analyze.Analyzer,
	conversationRepo contract.ConversationRepository,
	historyCache *memory.HistoryCache,
	tracker *metrics.Tracker,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
) IQueryService {
	return &queryService{
		pipeline:         pipeline,
		analyzer:         analyzer,
		conversationRepo: conversationRepo,
		historyCache:     historyCache,
		tracker:          tracker,
		eventPublisher:   eventPublisher,
		logger:           sysLogger,
	}
}

func (s *queryService) Ask(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	conversationId, history, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, req.Query, s.runOptions(req, history))
	if err != nil {
		s.tracker.RecordError()
		s.logger.Error("QueryService", "Pipeline run failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	s.finish(ctx, conversationId, req.Query, history, result)
	return s.toResponse(conversationId, result), nil
}

func (s *queryService) AskStream(ctx context.Context, req *dto.QueryRequest, sink executor.EventSink) error {
	conversationId, history, err := s.resolveConversation(ctx, req)
	if err != nil {
		return err
	}

	result, err := s.pipeline.RunStream(ctx, req.Query, s.runOptions(req, history), sink)
	if err != nil {
		s.tracker.RecordError()
		s.logger.Error("QueryService", "Pipeline stream failed", map[string]interface{}{"error": err.Error()})
		// The pipeline already emitted the terminal error event.
		return nil
	}

	s.finish(ctx, conversationId, req.Query, history, result)
	return nil
}

// Analyze classifies a query without running the pipeline. Used as a
// diagnostics endpoint for tuning retrieval behavior.
func (s *queryService) Analyze(ctx context.Context, req *dto.AnalyzeQueryRequest) *dto.AnalyzeQueryResponse {
	analysis := s.analyzer.Analyze(ctx, req.Query)
	return &dto.AnalyzeQueryResponse{
		Intent:     analysis.Intent,
		Complexity: analysis.Complexity,
		Keywords:   analysis.Keywords,
	}
}

func (s *queryService) runOptions(req *dto.QueryRequest, history []llm.Message) executor.RunOptions {
	opts := executor.DefaultRunOptions()
	opts.History = history
	if req.MaxCorrections != nil {
		opts.MaxCorrections = *req.MaxCorrections
	}
	if req.NumVariations > 0 {
		opts.NumVariations = req.NumVariations
	}
	return opts
}

// resolveConversation loads (or creates) the conversation and its
// recent history. History comes from the in-memory cache when warm.
func (s *queryService) resolveConversation(ctx context.Context, req *dto.QueryRequest) (uuid.UUID, []llm.Message, error) {
	if req.ConversationId == nil {
		conversation := &model.Conversation{
			Id:    uuid.New(),
			Title: truncateTitle(req.Query),
		}
		if err := s.conversationRepo.CreateConversation(ctx, conversation); err != nil {
			return uuid.Nil, nil, err
		}
		return conversation.Id, nil, nil
	}

	id := *req.ConversationId
	if cached, ok := s.historyCache.Get(id.String()); ok {
		return id, cached, nil
	}

	conversation, err := s.conversationRepo.FindConversation(ctx, id)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if conversation == nil {
		// Unknown id: start fresh under the requested id rather than
		// failing the question.
		if err := s.conversationRepo.CreateConversation(ctx, &model.Conversation{
			Id:    id,
			Title: truncateTitle(req.Query),
		}); err != nil {
			return uuid.Nil, nil, err
		}
		return id, nil, nil
	}

	messages, err := s.conversationRepo.RecentMessages(ctx, id, historyWindow)
	if err != nil {
		return uuid.Nil, nil, err
	}

	history := make([]llm.Message, len(messages))
	for i, msg := range messages {
		history[i] = llm.Message{Role: msg.Role, Content: msg.Content}
	}
	s.historyCache.Save(id.String(), history)
	return id, history, nil
}

// finish persists both turns, refreshes the history cache, records
// metrics and emits the answered event. Persistence failures are logged
// but never fail the answered request.
func (s *queryService) finish(ctx context.Context, conversationId uuid.UUID, query string, history []llm.Message, result *executor.Result) {
	s.tracker.RecordQuery(
		time.Duration(result.ElapsedMs)*time.Millisecond,
		result.RetrievalScore,
		result.WasCorrected,
		result.CacheHit,
	)

	userMsg := &model.ChatMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.ChatMessageRoleUser,
		Content:        query,
		CreatedAt:      time.Now(),
	}
	if err := s.conversationRepo.CreateMessage(ctx, userMsg); err != nil {
		s.logger.Warn("QueryService", "Failed to persist user message", map[string]interface{}{"error": err.Error()})
	}

	assistantMsg := &model.ChatMessage{
		Id:             uuid.New(),
		ConversationId: conversationId,
		Role:           constant.ChatMessageRoleModel,
		Content:        result.Answer,
		Metadata:       answerMetadata(result),
		CreatedAt:      time.Now(),
	}
	if err := s.conversationRepo.CreateMessage(ctx, assistantMsg); err != nil {
		s.logger.Warn("QueryService", "Failed to persist answer", map[string]interface{}{"error": err.Error()})
	}

	updated := append(history,
		llm.Message{Role: constant.ChatMessageRoleUser, Content: query},
		llm.Message{Role: constant.ChatMessageRoleModel, Content: result.Answer},
	)
	if len(updated) > historyWindow {
		updated = updated[len(updated)-historyWindow:]
	}
	s.historyCache.Save(conversationId.String(), updated)

	if s.eventPublisher != nil {
		event := events.NewQueryAnsweredEvent(query, float64(result.ElapsedMs), result.WasCorrected, result.CacheHit)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("QueryService", "Failed to publish answered event", map[string]interface{}{"error": err.Error()})
		}
	}
}

func answerMetadata(result *executor.Result) datatypes.JSON {
	payload, err := json.Marshal(map[string]any{
		"correction_attempts": result.CorrectionAttempts,
		"was_corrected":       result.WasCorrected,
		"retrieval_score":     result.RetrievalScore,
		"elapsed_ms":          result.ElapsedMs,
		"cache_hit":           result.CacheHit,
	})
	if err != nil {
		return nil
	}
	return payload
}

func (s *queryService) toResponse(conversationId uuid.UUID, result *executor.Result) *dto.QueryResponse {
	return &dto.QueryResponse{
		Answer:             result.Answer,
		Sources:            result.Sources,
		ConversationId:     conversationId,
		CorrectionAttempts: result.CorrectionAttempts,
		WasCorrected:       result.WasCorrected,
		RetrievalScore:     result.RetrievalScore,
		ElapsedMs:          result.ElapsedMs,
		CacheHit:           result.CacheHit,
		Metadata:           result.Metadata,
	}
}

func truncateTitle(query string) string {
	const maxLen = 80
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen]
}
