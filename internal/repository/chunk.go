package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/shoshlabs/shoshchat/internal/domain"
)

// ChunkRepository handles persistence of embedded knowledge chunks.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// ReplaceChunks swaps a source's chunk set in one transaction: existing
// chunks are deleted and the new ones inserted, so readers never observe a
// partial set. An empty slice clears the source's chunks.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, sourceID string, chunks []*domain.KnowledgeChunk) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM knowledge_chunks WHERE source_id = $1`, sourceID); err != nil {
		return err
	}

	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO knowledge_chunks
				(id, source_id, tenant_id, seq, content, token_count, embedding, embedding_model, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, c.SourceID, c.TenantID, c.Seq, c.Content, c.TokenCount,
			pgvector.NewVector(c.Embedding), c.EmbeddingModel, createdAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListByTenant returns every chunk belonging to the tenant, ordered by
// source and sequence.
func (r *ChunkRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domain.KnowledgeChunk, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, source_id, tenant_id, seq, content, token_count, embedding, embedding_model, created_at
		 FROM knowledge_chunks
		 WHERE tenant_id = $1
		 ORDER BY source_id, seq`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.KnowledgeChunk
	for rows.Next() {
		var c domain.KnowledgeChunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.SourceID, &c.TenantID, &c.Seq, &c.Content,
			&c.TokenCount, &vec, &c.EmbeddingModel, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// CountBySource returns the number of chunks persisted for a source.
func (r *ChunkRepository) CountBySource(ctx context.Context, sourceID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM knowledge_chunks WHERE source_id = $1`, sourceID,
	).Scan(&n)
	return n, err
}

// SourceTitles maps the tenant's source IDs to their titles, for attaching
// provenance to retrieval results.
func (r *ChunkRepository) SourceTitles(ctx context.Context, tenantID string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title FROM knowledge_sources WHERE tenant_id = $1`, tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	titles := make(map[string]string)
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}
