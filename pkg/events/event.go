package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed,
// strictly creating valid implementations is preferred though.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewQueryAnsweredEvent is emitted after a pipeline run completes.
// Consumed by external analytics; the pipeline itself never reads it back.
func NewQueryAnsweredEvent(query string, latencyMs float64, wasCorrected bool, cacheHit bool) Event {
	return BaseEvent{
		Type: "QUERY_ANSWERED",
		Data: map[string]interface{}{
			"query":         query,
			"latency_ms":    latencyMs,
			"was_corrected": wasCorrected,
			"cache_hit":     cacheHit,
		},
		OccurredAt: time.Now(),
	}
}

// NewCorpusUpdatedEvent is emitted after documents are indexed,
// so cached retrieval results can be invalidated.
func NewCorpusUpdatedEvent(documentCount int) Event {
	return BaseEvent{
		Type: "CORPUS_UPDATED",
		Data: map[string]interface{}{
			"document_count": documentCount,
		},
		OccurredAt: time.Now(),
	}
}
