package openai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/embedding"
)

// DefaultEmbeddingModel is the OpenAI model used when a live backend is wired in.
// text-embedding-3 models accept a requested output dimension, which lets the
// backend match the 256-dim vectors the hash fallback produces.
const DefaultEmbeddingModel = openai.SmallEmbedding3

// ErrEmptyText is returned when text is empty
var ErrEmptyText = errors.New("text cannot be empty")

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// Client wraps an embedding backend and validates its output shape.
type Client struct {
	api        EmbeddingAPI
	model      string
	dimensions int
}

type OpenAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIAdapter(apiKey string, model openai.EmbeddingModel) *OpenAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// CreateEmbeddings calls the OpenAI API to create embeddings
func (a *OpenAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      a.model,
		Dimensions: embedding.Dimension,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, domain.NewEmbeddingFormatError("backend returned no embedding data", nil)
	}

	return resp.Data[0].Embedding, nil
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	dimensions := cfg.EmbeddingDimensions
	if dimensions <= 0 {
		dimensions = embedding.Dimension
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &Client{
		api:        NewOpenAIAdapter(cfg.APIKey, model),
		model:      string(model),
		dimensions: dimensions,
	}
}

// ModelName identifies the model embeddings are generated with.
func (c *Client) ModelName() string {
	return c.model
}

// GenerateEmbedding generates an embedding for the given text
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	vec, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(vec) != c.dimensions {
		return nil, domain.NewEmbeddingFormatError(
			fmt.Sprintf("backend returned %d dimensions, expected %d", len(vec), c.dimensions), nil)
	}

	return vec, nil
}
