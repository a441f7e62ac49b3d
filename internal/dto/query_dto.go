package dto

import (
	"agentic-rag-be/pkg/store"

	"github.com/google/uuid"
)

type QueryRequest struct {
	Query          string     `json:"query" validate:"required,min=1,max=4000"`
	ConversationId *uuid.UUID `json:"conversation_id,omitempty"`
	// MaxCorrections overrides the configured correction ceiling.
	// 0 requests single-pass mode; nil keeps the server default.
	MaxCorrections *int `json:"max_corrections,omitempty" validate:"omitempty,min=0,max=5"`
	NumVariations  int  `json:"num_variations,omitempty" validate:"omitempty,min=1,max=10"`
}

type AnalyzeQueryRequest struct {
	Query string `json:"query" validate:"required,min=1,max=4000"`
}

type AnalyzeQueryResponse struct {
	Intent     string   `json:"intent"`
	Complexity string   `json:"complexity"`
	Keywords   []string `json:"keywords,omitempty"`
}

type QueryResponse struct {
	Answer             string                 `json:"answer"`
	Sources            []store.ScoredDocument `json:"sources"`
	ConversationId     uuid.UUID              `json:"conversation_id"`
	CorrectionAttempts int                    `json:"correction_attempts"`
	WasCorrected       bool                   `json:"was_corrected"`
	RetrievalScore     float64                `json:"retrieval_score"`
	ElapsedMs          int64                  `json:"elapsed_ms"`
	CacheHit           bool                   `json:"cache_hit"`
	Metadata           map[string]any         `json:"metadata,omitempty"`
}
