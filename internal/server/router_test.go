package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shoshlabs/shoshchat/internal/api/handlers"
	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/service"
)

type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Submit(ctx context.Context, input service.SubmitInput) (*domain.KnowledgeSource, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeSource), args.Error(1)
}

func (m *MockSourceService) GetByID(ctx context.Context, tenantID, id string) (*domain.KnowledgeSource, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeSource), args.Error(1)
}

func (m *MockSourceService) List(ctx context.Context, tenantID, cursor string, limit int) (*service.SourcePage, error) {
	args := m.Called(ctx, tenantID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SourcePage), args.Error(1)
}

type MockRetrievalService struct {
	mock.Mock
}

func (m *MockRetrievalService) Retrieve(ctx context.Context, tenantID, query string, limit int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, tenantID, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func newTestRouter(sources *MockSourceService, retrieval *MockRetrievalService) http.Handler {
	return NewRouter(RouterConfig{
		SourceHandler:   handlers.NewSourceHandler(sources),
		RetrieveHandler: handlers.NewRetrieveHandler(retrieval),
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(new(MockSourceService), new(MockRetrievalService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRouter_TenantRequired(t *testing.T) {
	router := newTestRouter(new(MockSourceService), new(MockRetrievalService))

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/sources"},
		{http.MethodPost, "/sources/upload"},
		{http.MethodGet, "/sources"},
		{http.MethodGet, "/sources/some-id"},
		{http.MethodPost, "/retrieve"},
	}

	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_CreateAndFetchSource(t *testing.T) {
	sources := new(MockSourceService)
	router := newTestRouter(sources, new(MockRetrievalService))

	now := time.Now().UTC()
	src := &domain.KnowledgeSource{
		ID:        "src-1",
		TenantID:  "tenant-1",
		Title:     "Notes",
		Kind:      domain.SourceKindText,
		Status:    domain.SourceStatusPending,
		RawText:   "note text",
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	sources.On("Submit", mock.Anything, mock.Anything).Return(src, nil)
	sources.On("GetByID", mock.Anything, "tenant-1", "src-1").Return(src, nil)

	body, _ := json.Marshal(handlers.CreateSourceRequest{
		Title:   "Notes",
		Kind:    "text",
		RawText: "note text",
	})
	req := httptest.NewRequest(http.MethodPost, "/sources", bytes.NewReader(body))
	req.Header.Set("X-Tenant-ID", "tenant-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/sources/src-1", nil)
	req.Header.Set("X-Tenant-ID", "tenant-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"src-1"`)
}

func TestRouter_Retrieve(t *testing.T) {
	retrieval := new(MockRetrievalService)
	router := newTestRouter(new(MockSourceService), retrieval)

	retrieval.On("Retrieve", mock.Anything, "tenant-1", "refund policy", 0).
		Return([]domain.RetrievedChunk{
			{Content: "refunds within 30 days", Score: 0.8, SourceTitle: "Policy"},
		}, nil)

	body, _ := json.Marshal(handlers.RetrieveRequest{Query: "refund policy"})
	req := httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body))
	req.Header.Set("X-Tenant-ID", "tenant-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refunds within 30 days")
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter(new(MockSourceService), new(MockRetrievalService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
