package dto

type IngestDocumentRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=255"`
	Content string `json:"content" validate:"required,min=1"`
}

type IngestDocumentResponse struct {
	Title         string `json:"title"`
	ChunksIndexed int    `json:"chunks_indexed"`
}

type CorpusStatsResponse struct {
	VectorChunks  int64 `json:"vector_chunks"`
	KeywordChunks int   `json:"keyword_chunks"`
}

// CorpusUpdatedMessage is the internal bus payload emitted after
// indexing, consumed by the cache invalidation worker.
type CorpusUpdatedMessage struct {
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}
