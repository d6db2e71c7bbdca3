package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/shoshlabs/shoshchat/internal/service"
)

// DefaultClaimBatch is how many pending sources one poll claims.
const DefaultClaimBatch = 10

// PendingSourceRepository claims pending sources for ingestion.
type PendingSourceRepository interface {
	// ClaimPending atomically moves up to limit pending sources to
	// processing and returns their IDs.
	ClaimPending(ctx context.Context, limit int) ([]string, error)

	// ResetClaim returns a claimed source to pending.
	ResetClaim(ctx context.Context, id string) error
}

// Ingestor runs the ingestion pipeline for a claimed source.
type Ingestor interface {
	ProcessClaimed(ctx context.Context, sourceID string) (service.IngestOutcome, error)
}

// IngestWorker drains pending knowledge sources through the ingestion
// pipeline. It implements JobProcessor for the polling Worker.
type IngestWorker struct {
	repo     PendingSourceRepository
	ingestor Ingestor
	batch    int
}

// NewIngestWorker creates a new IngestWorker instance
func NewIngestWorker(repo PendingSourceRepository, ingestor Ingestor) *IngestWorker {
	return &IngestWorker{
		repo:     repo,
		ingestor: ingestor,
		batch:    DefaultClaimBatch,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IngestWorker) ProcessJobs(ctx context.Context) error {
	ids, err := w.repo.ClaimPending(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("failed to claim pending sources: %w", err)
	}

	if len(ids) == 0 {
		return nil
	}

	log.Printf("Ingesting %d claimed sources", len(ids))

	for i, id := range ids {
		if ctx.Err() != nil {
			w.releaseClaims(ids[i:])
			return ctx.Err()
		}

		outcome, err := w.ingestor.ProcessClaimed(ctx, id)
		if err != nil {
			log.Printf("Error ingesting source %s: %v", id, err)
			continue
		}
		log.Printf("Ingested source %s: %s", id, outcome)
	}

	return nil
}

// releaseClaims puts unprocessed claims back to pending on shutdown so the
// next poll can pick them up. Uses a fresh context because the worker's is
// already cancelled.
func (w *IngestWorker) releaseClaims(ids []string) {
	ctx := context.Background()
	for _, id := range ids {
		if err := w.repo.ResetClaim(ctx, id); err != nil {
			log.Printf("Error releasing claim on source %s: %v", id, err)
		}
	}
}
