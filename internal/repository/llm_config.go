package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoshlabs/shoshchat/internal/domain"
)

// LLMConfigRepository handles persistence of per-tenant LLM settings.
type LLMConfigRepository struct {
	db dbtx
}

func NewLLMConfigRepository(pool *pgxpool.Pool) *LLMConfigRepository {
	return &LLMConfigRepository{db: pool}
}

// GetByTenant returns the tenant's LLM config, or ErrLLMConfigNotFound when
// the tenant has none.
func (r *LLMConfigRepository) GetByTenant(ctx context.Context, tenantID string) (*domain.LLMConfig, error) {
	var cfg domain.LLMConfig
	var endpoint, systemPrompt pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, endpoint, model_name, system_prompt, temperature
		 FROM llm_configs WHERE tenant_id = $1`,
		tenantID,
	).Scan(&cfg.ID, &cfg.TenantID, &endpoint, &cfg.ModelName, &systemPrompt, &cfg.Temperature)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLLMConfigNotFound
		}
		return nil, err
	}
	if endpoint.Valid {
		cfg.Endpoint = endpoint.String
	}
	if systemPrompt.Valid {
		cfg.SystemPrompt = systemPrompt.String
	}
	return &cfg, nil
}

// Upsert creates or replaces the tenant's LLM config. Each tenant holds at
// most one row.
func (r *LLMConfigRepository) Upsert(ctx context.Context, cfg *domain.LLMConfig) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO llm_configs (id, tenant_id, endpoint, model_name, system_prompt, temperature)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (tenant_id) DO UPDATE
		 SET endpoint = EXCLUDED.endpoint,
		     model_name = EXCLUDED.model_name,
		     system_prompt = EXCLUDED.system_prompt,
		     temperature = EXCLUDED.temperature`,
		cfg.ID, cfg.TenantID, nullableString(cfg.Endpoint), cfg.ModelName,
		nullableString(cfg.SystemPrompt), cfg.Temperature,
	)
	return err
}
