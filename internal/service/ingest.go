package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/extract"
	"github.com/shoshlabs/shoshchat/internal/telemetry"
)

// IngestOutcome describes how one ingestion run ended.
type IngestOutcome string

const (
	IngestOutcomeReady             IngestOutcome = "ready"
	IngestOutcomeFailed            IngestOutcome = "failed"
	IngestOutcomeAlreadyProcessing IngestOutcome = "already-processing"
	IngestOutcomeMissing           IngestOutcome = "missing"
)

// IngestSourceRepository defines the repository interface for source lifecycle updates
type IngestSourceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeSource, error)
	SetStatus(ctx context.Context, id string, status domain.SourceStatus, errorMessage string) error
}

// IngestChunkRepository defines the repository interface for chunk persistence
type IngestChunkRepository interface {
	ReplaceChunks(ctx context.Context, sourceID string, chunks []*domain.KnowledgeChunk) error
}

// PayloadStore fetches uploaded file payloads by blob key.
type PayloadStore interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// TextEmbedder turns chunk text into a vector. An empty modelName asks the
// embedder to resolve the tenant's configured model; the resolved name is
// returned alongside the vector.
type TextEmbedder interface {
	EmbedText(ctx context.Context, tenantID, text, modelName string) ([]float32, string, error)
}

// IngestService runs the full pipeline for one knowledge source:
// extract, chunk, embed, persist.
type IngestService struct {
	sources   IngestSourceRepository
	chunks    IngestChunkRepository
	payloads  PayloadStore
	extractor extract.Extractor
	embedder  TextEmbedder
	chunkCfg  ChunkConfig
	uuidGen   UUIDGenerator
}

// NewIngestService creates a new IngestService instance. payloads may be nil
// when no blob store is configured; file sources then fail at ingest time.
func NewIngestService(
	sources IngestSourceRepository,
	chunks IngestChunkRepository,
	payloads PayloadStore,
	extractor extract.Extractor,
	embedder TextEmbedder,
) *IngestService {
	return &IngestService{
		sources:   sources,
		chunks:    chunks,
		payloads:  payloads,
		extractor: extractor,
		embedder:  embedder,
		chunkCfg:  DefaultChunkConfig(),
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// WithChunkConfig overrides the default chunk windowing.
func (s *IngestService) WithChunkConfig(cfg ChunkConfig) *IngestService {
	s.chunkCfg = cfg
	return s
}

// WithUUIDGen overrides the UUID generator (for testing).
func (s *IngestService) WithUUIDGen(gen UUIDGenerator) *IngestService {
	s.uuidGen = gen
	return s
}

// Process ingests one source by ID. Pipeline failures (extraction, embedding,
// persistence) are terminal for the source: the status moves to failed with
// the cause recorded, and the outcome is IngestOutcomeFailed with a nil
// error. A non-nil error means the run could not record an outcome at all.
func (s *IngestService) Process(ctx context.Context, sourceID string) (IngestOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Process", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "ingest",
	})
	defer span.End()

	src, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return IngestOutcomeMissing, nil
		}
		return "", err
	}

	if src.Status == domain.SourceStatusProcessing {
		return IngestOutcomeAlreadyProcessing, nil
	}

	if err := s.sources.SetStatus(ctx, src.ID, domain.SourceStatusProcessing, ""); err != nil {
		return "", err
	}

	return s.run(ctx, src)
}

// ProcessClaimed ingests a source that a worker has already moved to
// processing, skipping the claim step Process performs itself.
func (s *IngestService) ProcessClaimed(ctx context.Context, sourceID string) (IngestOutcome, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.ProcessClaimed", telemetry.SpanAttributes{
		SourceID:  sourceID,
		Operation: "ingest",
	})
	defer span.End()

	src, err := s.sources.GetByID(ctx, sourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return IngestOutcomeMissing, nil
		}
		return "", err
	}
	return s.run(ctx, src)
}

func (s *IngestService) run(ctx context.Context, src *domain.KnowledgeSource) (IngestOutcome, error) {
	payload, err := s.buildPayload(ctx, src)
	if err != nil {
		return s.fail(ctx, src.ID, err)
	}

	text, err := s.extractor.Extract(ctx, payload)
	if err != nil {
		return s.fail(ctx, src.ID, err)
	}

	// Two-pass windowing: segment the normalized text, recombine the
	// segments into one document, then window the combined document. The
	// first pass's overlap regions stay duplicated in the stored text.
	segments := ChunkList(NormalizeText(text), s.chunkCfg)
	combined := NormalizeText(CombineSegments(segments))

	rows, err := s.embedChunks(ctx, src, combined)
	if err != nil {
		return s.fail(ctx, src.ID, err)
	}

	// Replacement happens only after every chunk embedded, so a failed run
	// leaves the previous chunk set intact.
	if err := s.chunks.ReplaceChunks(ctx, src.ID, rows); err != nil {
		return s.fail(ctx, src.ID, err)
	}

	if err := s.sources.SetStatus(ctx, src.ID, domain.SourceStatusReady, ""); err != nil {
		return "", err
	}
	return IngestOutcomeReady, nil
}

func (s *IngestService) buildPayload(ctx context.Context, src *domain.KnowledgeSource) (extract.Payload, error) {
	p := extract.Payload{
		Kind:     src.Kind,
		FileName: src.FileName,
		URL:      src.URL,
		RawText:  src.RawText,
	}
	if src.Kind != domain.SourceKindFile {
		return p, nil
	}
	if s.payloads == nil {
		return p, domain.NewExtractionError("no payload store configured for file sources", nil)
	}
	data, err := s.payloads.Fetch(ctx, src.FileKey)
	if err != nil {
		return p, domain.NewExtractionError("fetching file payload "+src.FileKey, err)
	}
	p.Data = data
	return p, nil
}

func (s *IngestService) embedChunks(ctx context.Context, src *domain.KnowledgeSource, text string) ([]*domain.KnowledgeChunk, error) {
	now := time.Now().UTC()
	rows := make([]*domain.KnowledgeChunk, 0, 8)
	modelName := ""
	for content := range Chunks(text, s.chunkCfg) {
		vector, resolved, err := s.embedder.EmbedText(ctx, src.TenantID, content, modelName)
		if err != nil {
			return nil, err
		}
		modelName = resolved

		rows = append(rows, &domain.KnowledgeChunk{
			ID:             s.uuidGen.NewString(),
			SourceID:       src.ID,
			TenantID:       src.TenantID,
			Seq:            len(rows),
			Content:        content,
			TokenCount:     len(strings.Fields(content)),
			Embedding:      vector,
			EmbeddingModel: resolved,
			CreatedAt:      now,
		})
	}
	return rows, nil
}

func (s *IngestService) fail(ctx context.Context, sourceID string, cause error) (IngestOutcome, error) {
	telemetry.CaptureError(ctx, cause)
	if err := s.sources.SetStatus(ctx, sourceID, domain.SourceStatusFailed, cause.Error()); err != nil {
		return "", err
	}
	return IngestOutcomeFailed, nil
}
