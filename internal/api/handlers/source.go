package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shoshlabs/shoshchat/internal/api"
	"github.com/shoshlabs/shoshchat/internal/api/middleware"
	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/service"
)

// maxUploadBytes caps multipart file uploads.
const maxUploadBytes = 32 << 20

type SourceService interface {
	Submit(ctx context.Context, input service.SubmitInput) (*domain.KnowledgeSource, error)
	GetByID(ctx context.Context, tenantID, id string) (*domain.KnowledgeSource, error)
	List(ctx context.Context, tenantID, cursor string, limit int) (*service.SourcePage, error)
}

type SourceHandler struct {
	svc SourceService
}

func NewSourceHandler(svc SourceService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

type CreateSourceRequest struct {
	Title    string            `json:"title"`
	Kind     string            `json:"kind"`
	URL      string            `json:"url,omitempty"`
	RawText  string            `json:"raw_text,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SourceResponse struct {
	ID           string            `json:"id"`
	TenantID     string            `json:"tenant_id"`
	Title        string            `json:"title"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	FileName     string            `json:"file_name,omitempty"`
	URL          string            `json:"url,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

func sourceToResponse(s *domain.KnowledgeSource) *SourceResponse {
	return &SourceResponse{
		ID:           s.ID,
		TenantID:     s.TenantID,
		Title:        s.Title,
		Kind:         string(s.Kind),
		Status:       string(s.Status),
		FileName:     s.FileName,
		URL:          s.URL,
		Metadata:     s.Metadata,
		ErrorMessage: s.ErrorMessage,
		CreatedAt:    s.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    s.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Create accepts url and text sources as JSON.
func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	kind := domain.SourceKind(req.Kind)
	switch kind {
	case domain.SourceKindURL:
		if req.URL == "" {
			api.Error(w, http.StatusBadRequest, "url is required for url sources")
			return
		}
	case domain.SourceKindText:
		// raw_text may be blank; the source becomes ready with zero chunks
	case domain.SourceKindFile:
		api.Error(w, http.StatusBadRequest, "file sources go through /sources/upload")
		return
	default:
		api.Error(w, http.StatusBadRequest, "invalid source kind")
		return
	}

	src, err := h.svc.Submit(r.Context(), service.SubmitInput{
		TenantID: tenantID,
		Title:    req.Title,
		Kind:     kind,
		URL:      req.URL,
		RawText:  req.RawText,
		Metadata: req.Metadata,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sourceToResponse(src))
}

// Upload accepts file sources as multipart form data with a "file" part and
// an optional "title" field (the filename is the fallback title).
func (h *SourceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	src, err := h.svc.Submit(r.Context(), service.SubmitInput{
		TenantID: tenantID,
		Title:    title,
		Kind:     domain.SourceKindFile,
		FileName: header.Filename,
		FileData: data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, sourceToResponse(src))
}

type SourceListResponse struct {
	Sources []*SourceResponse `json:"sources"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

// List returns one page of the tenant's sources, newest first.
func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.svc.List(r.Context(), tenantID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	out := make([]*SourceResponse, 0, len(page.Items))
	for _, s := range page.Items {
		out = append(out, sourceToResponse(s))
	}
	api.Success(w, http.StatusOK, SourceListResponse{
		Sources: out,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}

// Get returns one source, including its ingestion status and failure cause.
func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.GetTenantID(r.Context())
	if tenantID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	src, err := h.svc.GetByID(r.Context(), tenantID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, sourceToResponse(src))
}
