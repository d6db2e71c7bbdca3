package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/pagination"
	"github.com/shoshlabs/shoshchat/internal/service"
)

// SourceRepository handles persistence of knowledge sources.
type SourceRepository struct {
	db dbtx
}

func NewSourceRepository(pool *pgxpool.Pool) *SourceRepository {
	return &SourceRepository{db: pool}
}

func NewSourceRepositoryWithTx(tx pgx.Tx) *SourceRepository {
	return &SourceRepository{db: tx}
}

const sourceColumns = `id, tenant_id, title, kind, status, file_key, file_name, url, raw_text, metadata, error_message, created_at, updated_at`

func (r *SourceRepository) Create(ctx context.Context, src *domain.KnowledgeSource) error {
	metadata, err := json.Marshal(src.Metadata)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx,
		`INSERT INTO knowledge_sources (`+sourceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		src.ID, src.TenantID, src.Title, src.Kind, src.Status,
		nullableString(src.FileKey), nullableString(src.FileName), nullableString(src.URL),
		src.RawText, metadata, nullableString(src.ErrorMessage), src.CreatedAt, src.UpdatedAt,
	)
	return err
}

func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeSource, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+sourceColumns+` FROM knowledge_sources WHERE id = $1`, id)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSourceNotFound
		}
		return nil, err
	}
	return src, nil
}

func (r *SourceRepository) ListByTenantWithCursor(ctx context.Context, tenantID string, cursor *pagination.Cursor, limit int) (*service.SourcePage, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+sourceColumns+`
			 FROM knowledge_sources
			 WHERE tenant_id = $1 AND (created_at, id) < ($2, $3::uuid)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $4`,
			tenantID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+sourceColumns+`
			 FROM knowledge_sources
			 WHERE tenant_id = $1
			 ORDER BY created_at DESC, id DESC
			 LIMIT $2`,
			tenantID, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*domain.KnowledgeSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(sources) > limit
	if hasMore {
		sources = sources[:limit]
	}

	var nextCursor string
	if hasMore && len(sources) > 0 {
		last := sources[len(sources)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}

	return &service.SourcePage{
		Items:      sources,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// SetStatus moves a source through its lifecycle and records the failure
// cause when present. The update is guarded by the allowed transitions into
// the target status, so a source skipping the processing step is rejected
// with ErrInvalidStatusTransition.
func (r *SourceRepository) SetStatus(ctx context.Context, id string, status domain.SourceStatus, errorMessage string) error {
	from := domain.TransitionSources(status)
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE knowledge_sources
		 SET status = $1, error_message = $2, updated_at = $3
		 WHERE id = $4 AND status = ANY($5)`,
		status, nullableString(errorMessage), time.Now().UTC(), id, allowed,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM knowledge_sources WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrInvalidStatusTransition
		}
		return domain.ErrSourceNotFound
	}
	return nil
}

// ClaimPending atomically flips up to limit pending sources to processing
// and returns their IDs, oldest first. SKIP LOCKED keeps concurrent workers
// from claiming the same source.
func (r *SourceRepository) ClaimPending(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM knowledge_sources
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE knowledge_sources
		 SET status = $3, updated_at = $4
		 FROM cte
		 WHERE knowledge_sources.id = cte.id
		 RETURNING knowledge_sources.id`,
		domain.SourceStatusPending, limit, domain.SourceStatusProcessing, time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResetClaim returns a claimed source to pending so a later poll can retry
// it, used when the worker shuts down mid-batch.
func (r *SourceRepository) ResetClaim(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE knowledge_sources
		 SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4`,
		domain.SourceStatusPending, time.Now().UTC(), id, domain.SourceStatusProcessing,
	)
	return err
}

func scanSource(row pgx.Row) (*domain.KnowledgeSource, error) {
	var src domain.KnowledgeSource
	var fileKey, fileName, url, errMsg pgtype.Text
	var metadata []byte
	err := row.Scan(
		&src.ID, &src.TenantID, &src.Title, &src.Kind, &src.Status,
		&fileKey, &fileName, &url, &src.RawText, &metadata, &errMsg,
		&src.CreatedAt, &src.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fileKey.Valid {
		src.FileKey = fileKey.String
	}
	if fileName.Valid {
		src.FileName = fileName.String
	}
	if url.Valid {
		src.URL = url.String
	}
	if errMsg.Valid {
		src.ErrorMessage = errMsg.String
	}
	src.Metadata = map[string]string{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &src.Metadata); err != nil {
			return nil, err
		}
	}
	return &src, nil
}
