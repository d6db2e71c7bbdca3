package domain

import "time"

// KnowledgeChunk is one retrievable segment of a source's extracted text.
// TenantID is denormalized from the source so retrieval can scan a tenant's
// chunks without joining through sources.
type KnowledgeChunk struct {
	ID             string
	SourceID       string
	TenantID       string
	Seq            int
	Content        string
	TokenCount     int
	Embedding      []float32
	EmbeddingModel string
	CreatedAt      time.Time
}

// RetrievedChunk is a ranked retrieval result. It is never persisted.
type RetrievedChunk struct {
	Content     string
	Score       float64
	SourceTitle string
}
