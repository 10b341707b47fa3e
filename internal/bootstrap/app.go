// Package bootstrap wires configuration, storage, services and handlers
// into a runnable application.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Roshanbtech/Extractify/internal/documents"
	"github.com/Roshanbtech/Extractify/internal/shared/config"
	"github.com/Roshanbtech/Extractify/internal/shared/server"
	"github.com/Roshanbtech/Extractify/internal/shared/server/middleware"
	"github.com/Roshanbtech/Extractify/internal/shared/storage/blob"
	localblob "github.com/Roshanbtech/Extractify/internal/shared/storage/blob/local"
	s3blob "github.com/Roshanbtech/Extractify/internal/shared/storage/blob/s3"
	"github.com/Roshanbtech/Extractify/internal/shared/storage/db"
	"github.com/Roshanbtech/Extractify/internal/shared/telemetry"
	"github.com/Roshanbtech/Extractify/internal/users"
)

// App holds the wired application.
type App struct {
	Config config.Config
	DB     *sql.DB
	Store  blob.Store

	Users     *users.Service
	Documents *documents.Service

	RouterDeps server.RouterDeps
}

// Build wires the application from configuration. Without a DATABASE_URL
// in non-production environments it falls back to in-memory repositories
// so the API runs without any infrastructure.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build blob store: %w", err)
	}
	app.Store = store

	var docRepo documents.CatalogRepo
	var userRepo users.Repo
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.DB = database
		docRepo = documents.NewPGRepo(database)
		userRepo = users.NewPGRepo(database)
	} else {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		telemetry.Warn("bootstrap.memory_repos", map[string]any{
			"env": cfg.Env,
		})
		docRepo = documents.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	app.Users = users.NewService(userRepo)
	app.Documents = documents.NewService(store, docRepo, cfg.SignedURLTTL)

	app.RouterDeps = server.RouterDeps{
		Env:             cfg.Env,
		CORSAllowOrigin: cfg.CORSAllowOrigin,
		Users:           users.NewHandler(app.Users, cfg.Env == "production"),
		Documents:       documents.NewHandler(app.Documents, cfg.MaxUploadBytes),
		RateLimitRules: map[string]middleware.RateLimitRule{
			"EXTRACT": {Rate: 2, Burst: 5},
		},
	}
	return app, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.BlobStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 store")
		}
		return s3blob.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localblob.New(cfg.LocalStoreDir), nil
	}
}
