// Package app assembles the storage backends and analysis pipeline shared by
// the api, worker and CLI binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dharsanguruparan/InsightDrop/internal/config"
	"github.com/dharsanguruparan/InsightDrop/internal/database"
	"github.com/dharsanguruparan/InsightDrop/internal/insight"
	"github.com/dharsanguruparan/InsightDrop/internal/pipeline"
	"github.com/dharsanguruparan/InsightDrop/internal/report"
	"github.com/dharsanguruparan/InsightDrop/internal/repository"
	"github.com/dharsanguruparan/InsightDrop/internal/s3storage"
	"github.com/dharsanguruparan/InsightDrop/internal/storage"
	"github.com/dharsanguruparan/InsightDrop/internal/validation"
)

// Stores groups the record repositories with the blob store.
type Stores struct {
	Users    repository.UserRepository
	Projects repository.ProjectRepository
	Files    repository.FileRepository
	Reports  repository.ReportRepository
	Blobs    storage.BlobStore
}

// OpenStores connects to Postgres, applies pending migrations and prepares
// the object storage bucket. The returned pool must be closed by the caller.
func OpenStores(ctx context.Context, cfg *config.Config) (Stores, *pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return Stores{}, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return Stores{}, nil, fmt.Errorf("ensure schema: %w", err)
	}
	blobs, err := s3storage.New(cfg)
	if err != nil {
		pool.Close()
		return Stores{}, nil, err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		pool.Close()
		return Stores{}, nil, err
	}
	return Stores{
		Users:    repository.NewUserStore(pool),
		Projects: repository.NewProjectStore(pool),
		Files:    repository.NewFileStore(pool),
		Reports:  repository.NewReportStore(pool),
		Blobs:    blobs,
	}, pool, nil
}

// MemoryStores returns process-local stores for offline runs and tests.
func MemoryStores() Stores {
	store := storage.NewMemoryStore()
	return Stores{
		Users:    store.Users(),
		Projects: store.Projects(),
		Files:    store.Files(),
		Reports:  store.Reports(),
		Blobs:    storage.NewMemoryBlobStore(),
	}
}

// NewAggregator uses the remote model when an API key is configured. offline
// forces the deterministic summarizer.
func NewAggregator(cfg *config.Config, offline bool) *insight.Aggregator {
	if offline || !cfg.RemoteEnabled() {
		return insight.NewAggregator(nil)
	}
	return insight.NewAggregator(insight.NewRemoteSummarizer(insight.RemoteConfig{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIModel,
		Timeout:      cfg.RemoteTimeout,
		ContentLimit: cfg.RemoteContentLimit,
	}))
}

func NewPipeline(cfg *config.Config, st Stores, aggregator *insight.Aggregator) *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Constraints: validation.NewFileConstraints(cfg.MaxFileSize, cfg.AllowedTypes, cfg.AllowedExtensions),
		Blobs:       st.Blobs,
		Files:       st.Files,
		Aggregator:  aggregator,
		Assembler:   report.NewAssembler(st.Reports, cfg.StoredContentLimit),
	})
}
