package embedding

import (
	"context"
	"errors"

	"github.com/shoshlabs/shoshchat/internal/domain"
)

// LLMConfigRepository looks up per-tenant model configuration.
type LLMConfigRepository interface {
	GetByTenant(ctx context.Context, tenantID string) (*domain.LLMConfig, error)
}

// Client generates embeddings through an external backend. ModelName
// identifies the model the backend actually embeds with, which is what gets
// persisted alongside each vector.
type Client interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// Embedder maps text to fixed-dimension vectors. Without a backend it uses
// the deterministic hash fallback; the tenant's configured model name still
// participates in the hash so different models produce different vectors.
// With a backend, the backend chooses the model and its name is reported
// instead of the tenant's configured chat model.
type Embedder struct {
	configs LLMConfigRepository
	backend Client
}

// NewEmbedder creates an Embedder using the hash fallback only.
func NewEmbedder(configs LLMConfigRepository) *Embedder {
	return &Embedder{configs: configs}
}

// NewEmbedderWithBackend creates an Embedder that delegates vector
// generation to an external backend instead of the hash fallback.
func NewEmbedderWithBackend(configs LLMConfigRepository, backend Client) *Embedder {
	return &Embedder{configs: configs, backend: backend}
}

// EmbedText returns the embedding for text and the model name that produced
// it. With a live backend the returned name is the backend's own model. On
// the hash fallback, an empty modelName is resolved from the tenant's LLM
// config; tenants with no config fall back to FallbackModelName.
func (e *Embedder) EmbedText(ctx context.Context, tenantID, text, modelName string) ([]float32, string, error) {
	if e.backend != nil {
		vec, err := e.backend.GenerateEmbedding(ctx, text)
		if err != nil {
			return nil, "", err
		}
		return vec, e.backend.ModelName(), nil
	}

	if modelName == "" {
		name, err := e.resolveModelName(ctx, tenantID)
		if err != nil {
			return nil, "", err
		}
		modelName = name
	}

	return HashVector(modelName, text), modelName, nil
}

// EmbedQuery embeds a retrieval query with tenant-config-driven model choice.
func (e *Embedder) EmbedQuery(ctx context.Context, tenantID, query string) ([]float32, error) {
	vec, _, err := e.EmbedText(ctx, tenantID, query, "")
	return vec, err
}

func (e *Embedder) resolveModelName(ctx context.Context, tenantID string) (string, error) {
	if e.configs == nil {
		return FallbackModelName, nil
	}

	cfg, err := e.configs.GetByTenant(ctx, tenantID)
	if err != nil {
		if errors.Is(err, domain.ErrLLMConfigNotFound) {
			return FallbackModelName, nil
		}
		return "", err
	}
	if cfg == nil || cfg.ModelName == "" {
		return FallbackModelName, nil
	}
	return cfg.ModelName, nil
}
