package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLLMConfigRepo mocks the tenant config lookup
type MockLLMConfigRepo struct {
	mock.Mock
}

func (m *MockLLMConfigRepo) GetByTenant(ctx context.Context, tenantID string) (*domain.LLMConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMConfig), args.Error(1)
}

// MockBackend mocks an external embedding backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockBackend) ModelName() string {
	args := m.Called()
	return args.String(0)
}

func TestEmbedder_UsesTenantModelName(t *testing.T) {
	configs := new(MockLLMConfigRepo)
	configs.On("GetByTenant", mock.Anything, "tenant-1").Return(&domain.LLMConfig{
		TenantID:  "tenant-1",
		ModelName: "llama-3-8b",
	}, nil)

	e := NewEmbedder(configs)
	vec, model, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	require.NoError(t, err)
	assert.Equal(t, "llama-3-8b", model)
	assert.Equal(t, HashVector("llama-3-8b", "store hours"), vec)
	configs.AssertExpectations(t)
}

func TestEmbedder_FallbackWhenNoConfig(t *testing.T) {
	configs := new(MockLLMConfigRepo)
	configs.On("GetByTenant", mock.Anything, "tenant-1").Return(nil, domain.ErrLLMConfigNotFound)

	e := NewEmbedder(configs)
	vec, model, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	require.NoError(t, err)
	assert.Equal(t, FallbackModelName, model)
	assert.Equal(t, HashVector(FallbackModelName, "store hours"), vec)
}

func TestEmbedder_ExplicitModelSkipsLookup(t *testing.T) {
	configs := new(MockLLMConfigRepo)

	e := NewEmbedder(configs)
	vec, model, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "custom-model")

	require.NoError(t, err)
	assert.Equal(t, "custom-model", model)
	assert.Equal(t, HashVector("custom-model", "store hours"), vec)
	configs.AssertNotCalled(t, "GetByTenant")
}

func TestEmbedder_ConfigLookupError(t *testing.T) {
	configs := new(MockLLMConfigRepo)
	configs.On("GetByTenant", mock.Anything, "tenant-1").Return(nil, errors.New("connection reset"))

	e := NewEmbedder(configs)
	_, _, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	assert.Error(t, err)
}

func TestEmbedder_BackendTakesPrecedence(t *testing.T) {
	configs := new(MockLLMConfigRepo)

	backendVec := make([]float32, Dimension)
	backendVec[0] = 0.5
	backend := new(MockBackend)
	backend.On("GenerateEmbedding", mock.Anything, "store hours").Return(backendVec, nil)
	backend.On("ModelName").Return("text-embedding-3-small")

	e := NewEmbedderWithBackend(configs, backend)
	vec, model, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", model)
	assert.Equal(t, backendVec, vec)
	backend.AssertExpectations(t)
	configs.AssertNotCalled(t, "GetByTenant")
}

func TestEmbedder_BackendModelNameWins(t *testing.T) {
	// The tenant's LLMConfig names its chat model; vectors from a live
	// backend must be recorded under the backend's own model, not that one.
	configs := new(MockLLMConfigRepo)
	configs.On("GetByTenant", mock.Anything, "tenant-1").Return(&domain.LLMConfig{
		TenantID:  "tenant-1",
		ModelName: "gpt-4",
	}, nil)

	backendVec := make([]float32, Dimension)
	backendVec[0] = 0.25
	backend := new(MockBackend)
	backend.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(backendVec, nil)
	backend.On("ModelName").Return("text-embedding-3-small")

	e := NewEmbedderWithBackend(configs, backend)
	_, model, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", model)
	assert.NotEqual(t, "gpt-4", model)
}

func TestEmbedder_BackendError(t *testing.T) {
	configs := new(MockLLMConfigRepo)

	backend := new(MockBackend)
	backend.On("GenerateEmbedding", mock.Anything, mock.Anything).
		Return(nil, domain.NewEmbeddingFormatError("backend returned no embedding data", nil))

	e := NewEmbedderWithBackend(configs, backend)
	_, _, err := e.EmbedText(context.Background(), "tenant-1", "store hours", "")

	var domainErr *domain.DomainError
	require.Error(t, err)
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeEmbeddingFormat, domainErr.Code)
}

func TestEmbedder_EmbedQuery(t *testing.T) {
	configs := new(MockLLMConfigRepo)
	configs.On("GetByTenant", mock.Anything, "tenant-1").Return(nil, domain.ErrLLMConfigNotFound)

	e := NewEmbedder(configs)
	vec, err := e.EmbedQuery(context.Background(), "tenant-1", "When are you open?")

	require.NoError(t, err)
	assert.Equal(t, HashVector(FallbackModelName, "When are you open?"), vec)
}
