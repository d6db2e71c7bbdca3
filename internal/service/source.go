package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/pagination"
	"github.com/shoshlabs/shoshchat/internal/telemetry"
)

// SourcePage is one page of a tenant's sources, newest first.
type SourcePage struct {
	Items      []*domain.KnowledgeSource
	NextCursor string
	HasMore    bool
}

// SourceRepositoryInterface defines the repository interface for knowledge source persistence
type SourceRepositoryInterface interface {
	Create(ctx context.Context, src *domain.KnowledgeSource) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeSource, error)
	ListByTenantWithCursor(ctx context.Context, tenantID string, cursor *pagination.Cursor, limit int) (*SourcePage, error)
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// BlobUploader stores uploaded file payloads and returns nothing beyond an
// error; the caller chooses the key.
type BlobUploader interface {
	Put(ctx context.Context, key string, data []byte) error
}

// SourceService handles submission and lookup of knowledge sources.
// Submission only records the source in the pending state; the ingest
// worker picks it up from there.
type SourceService struct {
	sources SourceRepositoryInterface
	blobs   BlobUploader
	uuidGen UUIDGenerator
}

// NewSourceService creates a new SourceService instance. blobs may be nil
// when no blob store is configured; file uploads are then rejected.
func NewSourceService(sources SourceRepositoryInterface, blobs BlobUploader) *SourceService {
	return &SourceService{
		sources: sources,
		blobs:   blobs,
		uuidGen: &DefaultUUIDGenerator{},
	}
}

// NewSourceServiceWithUUIDGen creates a new SourceService with custom UUID generator (for testing)
func NewSourceServiceWithUUIDGen(sources SourceRepositoryInterface, blobs BlobUploader, uuidGen UUIDGenerator) *SourceService {
	return &SourceService{
		sources: sources,
		blobs:   blobs,
		uuidGen: uuidGen,
	}
}

// SubmitInput represents the input for submitting a knowledge source
type SubmitInput struct {
	TenantID string
	Title    string
	Kind     domain.SourceKind
	URL      string
	RawText  string
	FileName string
	FileData []byte
	Metadata map[string]string
}

// Submit records a new source in the pending state. File payloads are
// written to the blob store before the row is created, so a pending file
// source always has a fetchable payload.
func (s *SourceService) Submit(ctx context.Context, input SubmitInput) (*domain.KnowledgeSource, error) {
	ctx, span := telemetry.StartSpan(ctx, "SourceService.Submit", telemetry.SpanAttributes{
		TenantID:  input.TenantID,
		Operation: "submit",
	})
	defer span.End()

	now := time.Now().UTC()
	src := domain.NewKnowledgeSource(s.uuidGen.NewString(), input.TenantID, input.Title, input.Kind, now)
	src.URL = input.URL
	src.RawText = input.RawText
	if input.Metadata != nil {
		src.Metadata = input.Metadata
	}

	if input.Kind == domain.SourceKindFile {
		if s.blobs == nil {
			return nil, domain.NewValidationError("file uploads require a configured blob store")
		}
		if len(input.FileData) == 0 {
			return nil, domain.NewValidationError("file payload is empty")
		}
		src.FileName = input.FileName
		src.FileKey = "sources/" + input.TenantID + "/" + src.ID
		if err := s.blobs.Put(ctx, src.FileKey, input.FileData); err != nil {
			return nil, err
		}
	}

	if err := domain.ValidateKnowledgeSource(src); err != nil {
		return nil, err
	}

	if err := s.sources.Create(ctx, src); err != nil {
		return nil, err
	}
	return src, nil
}

// GetByID retrieves a knowledge source scoped to a tenant.
func (s *SourceService) GetByID(ctx context.Context, tenantID, id string) (*domain.KnowledgeSource, error) {
	src, err := s.sources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.TenantID != tenantID {
		return nil, domain.ErrSourceNotFound
	}
	return src, nil
}

// List retrieves one page of a tenant's knowledge sources. An unparseable
// cursor is treated as the first page.
func (s *SourceService) List(ctx context.Context, tenantID, cursorStr string, limit int) (*SourcePage, error) {
	cursor, _ := pagination.DecodeCursor(cursorStr)
	return s.sources.ListByTenantWithCursor(ctx, tenantID, cursor, limit)
}
