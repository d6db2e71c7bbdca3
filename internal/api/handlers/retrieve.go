package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shoshlabs/shoshchat/internal/api"
	"github.com/shoshlabs/shoshchat/internal/api/middleware"
	"github.com/shoshlabs/shoshchat/internal/domain"
)

type RetrievalService interface {
	Retrieve(ctx context.Context, tenantID, query string, limit int) ([]domain.RetrievedChunk, error)
}

type RetrieveHandler struct {
	svc RetrievalService
}

func NewRetrieveHandler(svc RetrievalService) *RetrieveHandler {
	return &RetrieveHandler{svc: svc}
}

type RetrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

type RetrievedChunkResponse struct {
	Content     string  `json:"content"`
	Score       float64 `json:"score"`
	SourceTitle string  `json:"source_title"`
}

type RetrieveResponse struct {
	Results []RetrievedChunkResponse `json:"results"`
}

// Retrieve ranks the tenant's chunks against the query.
func (h *RetrieveHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req RetrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.svc.Retrieve(r.Context(), tenantID, req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := RetrieveResponse{Results: make([]RetrievedChunkResponse, 0, len(results))}
	for _, res := range results {
		out.Results = append(out.Results, RetrievedChunkResponse{
			Content:     res.Content,
			Score:       res.Score,
			SourceTitle: res.SourceTitle,
		})
	}
	api.Success(w, http.StatusOK, out)
}
