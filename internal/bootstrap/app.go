package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Mubi-byte/thinktank/internal/auth"
	"github.com/Mubi-byte/thinktank/internal/chat"
	"github.com/Mubi-byte/thinktank/internal/documents"
	"github.com/Mubi-byte/thinktank/internal/extract"
	"github.com/Mubi-byte/thinktank/internal/llm/openai"
	"github.com/Mubi-byte/thinktank/internal/search"
	"github.com/Mubi-byte/thinktank/internal/shared/config"
	"github.com/Mubi-byte/thinktank/internal/shared/server"
	"github.com/Mubi-byte/thinktank/internal/shared/storage/db"
	"github.com/Mubi-byte/thinktank/internal/shared/storage/object"
	localstore "github.com/Mubi-byte/thinktank/internal/shared/storage/object/local"
	s3store "github.com/Mubi-byte/thinktank/internal/shared/storage/object/s3"
	"github.com/Mubi-byte/thinktank/internal/shared/telemetry"
	"github.com/Mubi-byte/thinktank/internal/users"
)

// App holds the wired application.
type App struct {
	Router *gin.Engine
	DB     *sql.DB
}

// Build wires providers selected by cfg into a ready-to-serve application.
// Config validation runs before this in cmd/api; Build assumes required
// variables for the selected providers are present.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	store, err := buildObjectStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := buildExtractor(cfg)
	if err != nil {
		return nil, err
	}

	index, err := buildSearchIndex(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	if err != nil {
		return nil, err
	}

	sqlDB, userRepo, err := buildUserRepo(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TOTPIssuer)
	userSvc := users.NewService(userRepo, tokens, cfg.TOTPIssuer)

	sessions := documents.NewSessionStore()
	docSvc := documents.NewService(store, extractor, index, sessions)
	chatSvc := chat.NewService(llmClient, index, sessions)

	router := server.NewRouter(server.RouterDeps{
		Config:    cfg,
		Users:     users.NewHandler(userSvc),
		Documents: documents.NewHandler(docSvc),
		Chat:      chat.NewHandler(chatSvc),
	})

	return &App{Router: router, DB: sqlDB}, nil
}

// Close releases pooled resources.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildObjectStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build s3 store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildExtractor(cfg config.Config) (extract.Extractor, error) {
	switch cfg.ExtractorProvider {
	case "azure":
		return extract.NewAzureExtractor(cfg.ExtractorEndpoint, cfg.ExtractorKey)
	default:
		return extract.NewLocalExtractor(), nil
	}
}

func buildSearchIndex(ctx context.Context, cfg config.Config) (search.Index, error) {
	switch cfg.SearchProvider {
	case "azure":
		index, err := search.NewAzureIndex(cfg.SearchEndpoint, cfg.SearchAdminKey, cfg.SearchIndexName)
		if err != nil {
			return nil, err
		}
		// Remote index schema is created once at startup, not per upload.
		if err := index.EnsureIndex(ctx); err != nil {
			return nil, err
		}
		return index, nil
	case "memory":
		return search.NewMemoryIndex(), nil
	default:
		return search.OpenBleve(cfg.BleveIndexPath)
	}
}

// buildUserRepo connects Postgres when DATABASE_URL is set, falling back to
// the in-memory repo in dev when the database is unreachable. Production
// requires a working database.
func buildUserRepo(ctx context.Context, cfg config.Config) (*sql.DB, users.Repo, error) {
	if cfg.DatabaseURL == "" {
		telemetry.Info("users.repo", map[string]any{"backend": "memory"})
		return nil, users.NewMemoryRepo(), nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
		}
	}
	if err != nil {
		if cfg.IsProduction() {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		telemetry.Warn("users.repo.fallback", map[string]any{"error": err.Error()})
		return nil, users.NewMemoryRepo(), nil
	}

	telemetry.Info("users.repo", map[string]any{"backend": "postgres"})
	return sqlDB, &users.PGRepo{DB: sqlDB}, nil
}
