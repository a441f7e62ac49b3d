package embedding

// EmbeddingProvider defines the interface for generating text embeddings.
// Generation is deterministic for identical input.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
	GenerateBatch(texts []string, taskType string) ([]*EmbeddingResponse, error)
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding
}

type EmbeddingResponseEmbedding struct {
	Values []float32
}

// Task type hints, honored by providers that distinguish query and
// document embeddings.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)
