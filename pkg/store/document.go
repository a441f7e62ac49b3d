package store

// Document represents a generic document chunk flowing through the RAG pipeline
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ScoredDocument is a document paired with a relevance score from a ranking stage.
// LowConfidence marks documents that survived ranking but fell below the
// configured relevance threshold; downstream may treat them as weak context.
type ScoredDocument struct {
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence,omitempty"`
}
