package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"agentic-rag-be/internal/dto"
	"agentic-rag-be/internal/pkg/logger"
	"agentic-rag-be/internal/repository/contract"
	"agentic-rag-be/pkg/embedding"
	"agentic-rag-be/pkg/events"
	"agentic-rag-be/pkg/keyword"
	pktNats "agentic-rag-be/pkg/nats"
	"agentic-rag-be/pkg/store"
	"agentic-rag-be/pkg/utils"
	"agentic-rag-be/pkg/vectorstore"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	Stats(ctx context.Context) (*dto.CorpusStatsResponse, error)
	// Bootstrap rebuilds the keyword index from persisted chunks at
	// startup. A nil repository (embedded backend) is a no-op.
	Bootstrap(ctx context.Context) error
}

type documentService struct {
	vectorStore       vectorstore.VectorStore
	keywordIndex      keyword.KeywordIndex
	embeddingProvider embedding.EmbeddingProvider
	embeddingRepo     contract.DocumentEmbeddingRepository
	publisherService  IPublisherService
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger

	chunkSize    int
	chunkOverlap int

	// corpus mirrors every indexed chunk for keyword index rebuilds.
	mu     sync.Mutex
	corpus []store.Document
}

func NewDocumentService(
	vectorStore vectorstore.VectorStore,
	keywordIndex keyword.KeywordIndex,
	embeddingProvider embedding.EmbeddingProvider,
	embeddingRepo contract.DocumentEmbeddingRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	sysLogger logger.ILogger,
	chunkSize int,
	chunkOverlap int,
) IDocumentService {
	return &documentService{
		vectorStore:       vectorStore,
		keywordIndex:      keywordIndex,
		embeddingProvider: embeddingProvider,
		embeddingRepo:     embeddingRepo,
		publisherService:  publisherService,
		eventPublisher:    eventPublisher,
		logger:            sysLogger,
		chunkSize:         chunkSize,
		chunkOverlap:      chunkOverlap,
	}
}

func (s *documentService) Ingest(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	chunks := utils.SplitText(req.Content, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %q produced no indexable chunks", req.Title)
	}

	s.logger.Info("DocumentService", "Indexing document", map[string]interface{}{
		"title":  req.Title,
		"chunks": len(chunks),
	})

	responses, err := s.embeddingProvider.GenerateBatch(chunks, embedding.TaskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embed document %q: %w", req.Title, err)
	}

	docs := make([]store.Document, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		docs[i] = store.Document{
			ID:       uuid.New().String(),
			Title:    req.Title,
			Content:  chunk,
			Metadata: map[string]interface{}{"chunk_index": i},
		}
		vectors[i] = responses[i].Embedding.Values
	}

	if err := s.vectorStore.Add(ctx, docs, vectors); err != nil {
		return nil, fmt.Errorf("index document %q: %w", req.Title, err)
	}

	s.mu.Lock()
	s.corpus = append(s.corpus, docs...)
	s.keywordIndex.Index(s.corpus)
	s.mu.Unlock()

	s.announceUpdate(ctx, req.Title, len(chunks))

	return &dto.IngestDocumentResponse{
		Title:         req.Title,
		ChunksIndexed: len(chunks),
	}, nil
}

// announceUpdate tells the cache invalidation worker (internal bus) and
// external consumers (NATS) that the corpus changed. Both are
// best-effort.
func (s *documentService) announceUpdate(ctx context.Context, title string, chunkCount int) {
	payload, err := json.Marshal(dto.CorpusUpdatedMessage{Title: title, ChunkCount: chunkCount})
	if err == nil {
		if err := s.publisherService.Publish(ctx, payload); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish corpus update", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.eventPublisher != nil {
		if err := s.eventPublisher.Publish(ctx, events.NewCorpusUpdatedEvent(chunkCount)); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish corpus event", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *documentService) Stats(ctx context.Context) (*dto.CorpusStatsResponse, error) {
	vectorCount, err := s.vectorStore.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CorpusStatsResponse{
		VectorChunks:  vectorCount,
		KeywordChunks: s.keywordIndex.Count(),
	}, nil
}

func (s *documentService) Bootstrap(ctx context.Context) error {
	if s.embeddingRepo == nil {
		return nil
	}

	embeddings, err := s.embeddingRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load persisted corpus: %w", err)
	}
	if len(embeddings) == 0 {
		return nil
	}

	docs := make([]store.Document, len(embeddings))
	for i, e := range embeddings {
		docs[i] = store.Document{
			ID:      e.Id.String(),
			Title:   e.Title,
			Content: e.Content,
		}
	}

	s.mu.Lock()
	s.corpus = docs
	s.keywordIndex.Index(s.corpus)
	s.mu.Unlock()

	s.logger.Info("DocumentService", "Keyword index rebuilt from persisted corpus", map[string]interface{}{
		"chunks": len(docs),
	})
	return nil
}
