package service

import (
	"context"
	"sort"

	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/embedding"
	"github.com/shoshlabs/shoshchat/internal/telemetry"
)

// DefaultRetrievalLimit is the number of chunks returned when the caller
// does not ask for a specific count.
const DefaultRetrievalLimit = 3

// RetrievalChunkRepository defines the repository interface for tenant chunk scans
type RetrievalChunkRepository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]*domain.KnowledgeChunk, error)
	SourceTitles(ctx context.Context, tenantID string) (map[string]string, error)
}

// QueryEmbedder turns a retrieval query into a vector using the tenant's
// configured embedding model.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, tenantID, query string) ([]float32, error)
}

// RetrievalService ranks a tenant's chunks against a query by cosine
// similarity.
type RetrievalService struct {
	chunks   RetrievalChunkRepository
	embedder QueryEmbedder
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(chunks RetrievalChunkRepository, embedder QueryEmbedder) *RetrievalService {
	return &RetrievalService{
		chunks:   chunks,
		embedder: embedder,
	}
}

// Retrieve returns the tenant's top chunks for the query, best first.
// Chunks with non-positive similarity are dropped, so an empty result is
// possible even when the tenant has chunks. The query is embedded only
// after the chunk scan comes back non-empty.
func (s *RetrievalService) Retrieve(ctx context.Context, tenantID, query string, limit int) ([]domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		TenantID:  tenantID,
		Operation: "retrieve",
	})
	defer span.End()

	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	chunks, err := s.chunks.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return []domain.RetrievedChunk{}, nil
	}

	queryVec, err := s.embedder.EmbedQuery(ctx, tenantID, query)
	if err != nil {
		return nil, err
	}

	titles, err := s.chunks.SourceTitles(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.RetrievedChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := embedding.CosineSimilarity(queryVec, chunk.Embedding)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, domain.RetrievedChunk{
			Content:     chunk.Content,
			Score:       score,
			SourceTitle: titles[chunk.SourceID],
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
