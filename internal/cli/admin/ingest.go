package admin

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shoshlabs/shoshchat/internal/config"
	"github.com/shoshlabs/shoshchat/internal/database"
	"github.com/shoshlabs/shoshchat/internal/domain"
	"github.com/shoshlabs/shoshchat/internal/embedding"
	"github.com/shoshlabs/shoshchat/internal/extract"
	"github.com/shoshlabs/shoshchat/internal/openai"
	"github.com/shoshlabs/shoshchat/internal/repository"
	"github.com/shoshlabs/shoshchat/internal/service"
	"github.com/shoshlabs/shoshchat/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <source-id>",
		Short: "Run the ingestion pipeline for one source",
		Long:  "Extract, chunk and embed a single knowledge source by ID, bypassing the background worker",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sourceID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPoolFromURL(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	sourceRepo := repository.NewSourceRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	llmConfigRepo := repository.NewLLMConfigRepository(pool)

	var payloads service.PayloadStore
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		payloads = s3Client
	}

	var embedder *embedding.Embedder
	if cfg.HasOpenAI() {
		embedder = embedding.NewEmbedderWithBackend(llmConfigRepo, openai.NewClient(cfg.OpenAIAPIKey))
	} else {
		embedder = embedding.NewEmbedder(llmConfigRepo)
	}

	ingestSvc := service.NewIngestService(sourceRepo, chunkRepo, payloads, extract.NewRegistry(nil), embedder).
		WithChunkConfig(service.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})

	outcome, err := ingestSvc.Process(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("ingestion did not complete: %w", err)
	}

	switch outcome {
	case service.IngestOutcomeReady:
		chunkCount, err := chunkRepo.CountBySource(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("failed to count chunks: %w", err)
		}
		fmt.Printf("source %s ingested (%d chunks)\n", sourceID, chunkCount)
	case service.IngestOutcomeFailed:
		src, err := sourceRepo.GetByID(ctx, sourceID)
		if err != nil {
			return fmt.Errorf("failed to load source after failure: %w", err)
		}
		return fmt.Errorf("ingestion failed: %s", src.ErrorMessage)
	case service.IngestOutcomeAlreadyProcessing:
		return fmt.Errorf("source %s is already being processed", sourceID)
	case service.IngestOutcomeMissing:
		return domain.ErrSourceNotFound
	}

	return nil
}
