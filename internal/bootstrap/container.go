package bootstrap

import (
	"context"
	"log"
	"time"

	"agentic-rag-be/internal/config"
	"agentic-rag-be/internal/controller"
	"agentic-rag-be/internal/pkg/logger"
	"agentic-rag-be/internal/repository/contract"
	"agentic-rag-be/internal/repository/implementation"
	"agentic-rag-be/internal/repository/memory"
	"agentic-rag-be/internal/service"
	"agentic-rag-be/pkg/cache"
	"agentic-rag-be/pkg/embedding"
	"agentic-rag-be/pkg/keyword"
	"agentic-rag-be/pkg/llm/factory"
	"agentic-rag-be/pkg/llm/resilient"
	"agentic-rag-be/pkg/metrics"
	pktNats "agentic-rag-be/pkg/nats"
	"agentic-rag-be/pkg/rag/analyze"
	"agentic-rag-be/pkg/rag/executor"
	"agentic-rag-be/pkg/rag/rerank"
	"agentic-rag-be/pkg/rag/response"
	"agentic-rag-be/pkg/rag/retrieve"
	"agentic-rag-be/pkg/rag/rewrite"
	"agentic-rag-be/pkg/rag/validate"
	"agentic-rag-be/pkg/vectorstore"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	QueryController        controller.IQueryController
	DocumentController     controller.IDocumentController
	ConversationController controller.IConversationController
	FeedbackController     controller.IFeedbackController
	MetricsController      controller.IMetricsController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipeLogger := log.Default()

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Model providers
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	baseProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	resilientCfg := resilient.DefaultConfig()
	resilientCfg.MaxRetries = cfg.Ai.MaxRetries
	resilientCfg.BaseTimeout = time.Duration(cfg.Ai.BaseTimeoutSecs) * time.Second
	llmClient := resilient.NewClient(baseProvider, resilientCfg, pipeLogger)

	// 4. Retrieval infrastructure
	requestCache := cache.NewRequestCache(
		cfg.App.RedisURL,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		pipeLogger,
	)

	var vectorStore vectorstore.VectorStore
	var embeddingRepo contract.DocumentEmbeddingRepository
	if cfg.Vector.Backend == "pgvector" {
		embeddingRepo = implementation.NewDocumentEmbeddingRepository(db)
		vectorStore = implementation.NewPgVectorStore(embeddingRepo)
		log.Printf("[INFO] Using vector backend: pgvector")
	} else {
		chromemStore, err := vectorstore.NewChromemStore(cfg.Vector.Path)
		if err != nil {
			log.Fatalf("[FATAL] Failed to open vector store: %v", err)
		}
		vectorStore = chromemStore
		log.Printf("[INFO] Using vector backend: chromem (path=%q)", cfg.Vector.Path)
	}

	keywordIndex := keyword.NewBM25Index()

	// 5. Pipeline stages
	retriever := retrieve.NewHybridRetriever(
		embeddingProvider,
		vectorStore,
		keywordIndex,
		requestCache,
		cfg.Pipeline.FusionAlpha,
		pipeLogger,
	)
	reranker := rerank.NewReranker(rerank.NewOverlapScorer(), cfg.Pipeline.RerankThreshold, pipeLogger)
	rewriter := rewrite.NewRewriter(llmClient, pipeLogger)
	generator := response.NewGenerator(llmClient, pipeLogger)
	validator := validate.NewValidator(llmClient, pipeLogger)
	analyzer := analyze.NewAnalyzer(llmClient, pipeLogger)

	pipeline := executor.NewPipeline(
		rewriter,
		retriever,
		reranker,
		generator,
		validator,
		executor.Options{
			TopKRetrieval:  cfg.Pipeline.TopKRetrieval,
			TopKRerank:     cfg.Pipeline.TopKRerank,
			MaxCorrections: cfg.Pipeline.MaxCorrections,
			NumVariations:  cfg.Pipeline.NumVariations,
		},
		pipeLogger,
	)

	// 6. Messaging and metrics
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	tracker := metrics.NewTracker()

	// 7. Repositories
	conversationRepo := implementation.NewConversationRepository(db)
	feedbackRepo := implementation.NewFeedbackRepository(db)
	historyCache := memory.NewHistoryCache()

	// 8. Services
	publisherService := service.NewPublisherService(cfg.App.CorpusTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.CorpusTopic, requestCache, natsSub)

	documentService := service.NewDocumentService(
		vectorStore,
		keywordIndex,
		embeddingProvider,
		embeddingRepo,
		publisherService,
		natsPub,
		sysLogger,
		cfg.Pipeline.ChunkSize,
		cfg.Pipeline.ChunkOverlap,
	)
	if err := documentService.Bootstrap(context.Background()); err != nil {
		log.Printf("[WARN] Keyword index bootstrap failed: %v", err)
	}

	queryService := service.NewQueryService(
		pipeline,
		analyzer,
		conversationRepo,
		historyCache,
		tracker,
		natsPub,
		sysLogger,
	)
	conversationService := service.NewConversationService(conversationRepo, historyCache)
	feedbackService := service.NewFeedbackService(feedbackRepo)

	// 9. Controllers
	return &Container{
		QueryController:        controller.NewQueryController(queryService),
		DocumentController:     controller.NewDocumentController(documentService),
		ConversationController: controller.NewConversationController(conversationService),
		FeedbackController:     controller.NewFeedbackController(feedbackService),
		MetricsController:      controller.NewMetricsController(tracker),

		ConsumerService: consumerService,
	}
}
