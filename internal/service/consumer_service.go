package service

import (
	"context"
	"encoding/json"
	"log"

	"agentic-rag-be/internal/constant"
	"agentic-rag-be/internal/dto"
	"agentic-rag-be/pkg/cache"
	"agentic-rag-be/pkg/events"
	pktNats "agentic-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService invalidates cached retrieval results whenever the
// corpus changes. Retrieval cache keys are content-derived, so a corpus
// mutation is the only event that makes them stale. Local updates arrive
// over the in-process bus; updates from other instances arrive over NATS
// when a subscriber is configured.
type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	requestCache *cache.RequestCache
	subscriber   *pktNats.Subscriber
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	requestCache *cache.RequestCache,
	subscriber *pktNats.Subscriber,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		requestCache: requestCache,
		subscriber:   subscriber,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	if cs.subscriber != nil {
		err := cs.subscriber.Subscribe("rag.events.CORPUS_UPDATED", "cache-invalidator", func(ctx context.Context, event events.Event) error {
			removed := cs.requestCache.ClearPattern(ctx, constant.CacheNamespaceRetrieval+":*")
			log.Printf("[INFO] Corpus updated on another instance, cleared %d cached retrievals", removed)
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to corpus events over NATS: %v", err)
		}
	}

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.CorpusUpdatedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal corpus update message: %v", err)
		msg.Ack() // malformed messages would retry forever
		return
	}

	removed := cs.requestCache.ClearPattern(ctx, constant.CacheNamespaceRetrieval+":*")
	log.Printf("[INFO] Corpus updated (%q, %d chunks), cleared %d cached retrievals",
		payload.Title, payload.ChunkCount, removed)
	msg.Ack()
}
