package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"agentic-rag-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler processes one delivered event. Returning an error Naks
// the message for redelivery.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber consumes domain events from the NATS bus with a durable
// consumer, so restarts never drop events.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a durable handler for a subject pattern under the
// events stream.
func (s *Subscriber) Subscribe(subject string, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(context.Background(), streamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Data(), &payload); err != nil {
			log.Printf("[ERROR] Undecodable event on %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}

		event := events.BaseEvent{
			Type:       eventTypeFromSubject(msg.Subject()),
			Data:       payload,
			OccurredAt: time.Now(),
		}

		if err := handler(context.Background(), event); err != nil {
			log.Printf("[ERROR] Handler failed for %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	log.Printf("[DEBUG] Subscribed to %s (durable=%s)", subject, durableName)
	return nil
}

// eventTypeFromSubject recovers the event code from the last subject
// token, e.g. "rag.events.QUERY_ANSWERED" -> "QUERY_ANSWERED".
func eventTypeFromSubject(subject string) string {
	parts := strings.Split(subject, ".")
	return parts[len(parts)-1]
}

func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
