package executor

// Event is one element of the streaming protocol. Ordering per run:
// zero or more status/answer_chunk/correction events, then exactly one
// terminal answer (done=true), then exactly one terminal metadata
// (done=true). An unrecoverable failure replaces all of that with a
// single error event.
type Event struct {
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Done    bool           `json:"done,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

const (
	EventStatus      = "status"
	EventAnswerChunk = "answer_chunk"
	EventCorrection  = "correction"
	EventAnswer      = "answer"
	EventMetadata    = "metadata"
	EventError       = "error"
)

// EventSink receives stream events in order. Returning an error signals
// the consumer has disconnected; the pipeline stops emitting but
// finishes its bookkeeping.
type EventSink func(Event) error
