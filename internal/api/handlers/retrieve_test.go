package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shoshlabs/shoshchat/internal/domain"
)

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

func TestRetrieveHandler_Retrieve(t *testing.T) {
	t.Run("returns ranked results", func(t *testing.T) {
		svc := new(MockRetrievalService)
		h := NewRetrieveHandler(svc)

		svc.On("Retrieve", mock.Anything, "tenant-1", "what is the refund policy", 5).
			Return([]domain.RetrievedChunk{
				{Content: "refunds within 30 days", Score: 0.91, SourceTitle: "Policy Doc"},
				{Content: "contact support first", Score: 0.42, SourceTitle: "FAQ"},
			}, nil)

		body, _ := json.Marshal(RetrieveRequest{Query: "what is the refund policy", TopK: 5})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body)), "tenant-1")
		w := httptest.NewRecorder()

		h.Retrieve(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data RetrieveResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Results, 2)
		assert.Equal(t, "refunds within 30 days", resp.Data.Results[0].Content)
		assert.Equal(t, "Policy Doc", resp.Data.Results[0].SourceTitle)
		assert.InDelta(t, 0.91, resp.Data.Results[0].Score, 1e-9)
	})

	t.Run("empty result is an empty array, not null", func(t *testing.T) {
		svc := new(MockRetrievalService)
		h := NewRetrieveHandler(svc)

		svc.On("Retrieve", mock.Anything, "tenant-1", "anything", 0).
			Return([]domain.RetrievedChunk{}, nil)

		body, _ := json.Marshal(RetrieveRequest{Query: "anything"})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body)), "tenant-1")
		w := httptest.NewRecorder()

		h.Retrieve(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"results":[]`)
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		h := NewRetrieveHandler(new(MockRetrievalService))

		body, _ := json.Marshal(RetrieveRequest{Query: "   "})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body)), "tenant-1")
		w := httptest.NewRecorder()

		h.Retrieve(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing tenant is unauthorized", func(t *testing.T) {
		h := NewRetrieveHandler(new(MockRetrievalService))

		body, _ := json.Marshal(RetrieveRequest{Query: "q"})
		req := httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body))
		w := httptest.NewRecorder()

		h.Retrieve(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("service error maps to 500", func(t *testing.T) {
		svc := new(MockRetrievalService)
		h := NewRetrieveHandler(svc)

		svc.On("Retrieve", mock.Anything, "tenant-1", "q", 0).
			Return(nil, errors.New("connection refused"))

		body, _ := json.Marshal(RetrieveRequest{Query: "q"})
		req := withTenant(httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader(body)), "tenant-1")
		w := httptest.NewRecorder()

		h.Retrieve(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
