// Copyright (c) 2026 Dossier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Dossier HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Open the principal and document stores (PostgreSQL + migrations, or memory).
//  4. Connect to Redis when configured.
//  5. Open the blob store and build the tenant index manager.
//  6. Wire services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/dossier/internal/api"
	"github.com/taibuivan/dossier/internal/knowledge/document"
	"github.com/taibuivan/dossier/internal/knowledge/index"
	"github.com/taibuivan/dossier/internal/knowledge/query"
	"github.com/taibuivan/dossier/internal/platform/blob"
	"github.com/taibuivan/dossier/internal/platform/config"
	"github.com/taibuivan/dossier/internal/platform/constants"
	"github.com/taibuivan/dossier/internal/platform/metrics"
	"github.com/taibuivan/dossier/internal/platform/migration"
	pgstore "github.com/taibuivan/dossier/internal/platform/postgres"
	redisstore "github.com/taibuivan/dossier/internal/platform/redis"
	"github.com/taibuivan/dossier/internal/platform/sec"
	"github.com/taibuivan/dossier/internal/users/account"
	"github.com/taibuivan/dossier/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("blob_driver", cfg.BlobDriver),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	var checks []api.Check
	recorder := metrics.New()

	// ── 3. Principal & Document Stores ────────────────────────────────────
	var (
		principals auth.PrincipalRepository
		accounts   account.Repository
		registry   document.Registry
	)

	if cfg.UsesPostgres() {
		pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")
		defer func() {
			log.Info("closing_postgres_pool")
			pool.Close()
		}()

		must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

		principals = auth.NewPrincipalRepository(pool)
		accounts = account.NewAccountRepository(pool)
		registry = document.NewPostgresRegistry(pool)
		checks = append(checks, postgresCheck(pool))
	} else {
		log.Warn("memory_store_enabled", slog.String("hint", "principals and documents are lost on restart"))

		memory := auth.NewMemoryPrincipalRepository()
		principals = memory
		accounts = memory
		registry = document.NewMemoryRegistry()
	}

	// ── 4. Redis (token revocation list) ──────────────────────────────────
	var revocations auth.RevocationList = auth.NewMemoryRevocationList()

	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_error", slog.Any("error", cerr))
			}
		}()

		revocations = auth.NewRevocationList(rdb)
		checks = append(checks, redisCheck(rdb))
	}

	// ── 5. Blob Store & Tenant Indexes ────────────────────────────────────
	blobs, err := newBlobStore(startupCtx, cfg)
	must(log, err, "open blob store")

	embedder, err := newEmbedder(cfg, log)
	must(log, err, "initialize embedder")

	synthesizer, err := newSynthesizer(cfg, log)
	must(log, err, "initialize synthesizer")

	manager, err := index.NewManager(document.NewCorpus(registry), blobs, index.Options{
		Root:        cfg.IndexDir,
		MinScore:    cfg.SearchMinScore,
		Embedder:    embedder,
		Synthesizer: synthesizer,
		Metrics:     recorder,
	})
	must(log, err, "initialize index manager")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	tokens, err := sec.NewTokenService([]byte(cfg.JWTSecret), constants.AuthIssuer, cfg.AccessTokenTTL)
	must(log, err, "initialize token service")

	authService := auth.NewService(principals, revocations, tokens, recorder)
	documentService := document.NewService(registry, blobs, manager, cfg.MaxUploadBytes, recorder)
	accountService := account.NewService(accounts, documentService, manager, authService)
	queryService := query.NewService(manager, recorder)

	liveness, readiness := api.NewHealthHandlers(checks, log)

	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   recorder.Handler(),
		Auth:      auth.NewHandler(authService),
		Account:   account.NewHandler(accountService),
		Documents: document.NewHandler(documentService, cfg.MaxUploadBytes),
		Query:     query.NewHandler(queryService),
	}

	// ── 7. HTTP Server & Graceful Shutdown ────────────────────────────────
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, authService, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger every component receives.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// newBlobStore selects the document byte store from BLOB_DRIVER.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.BlobDriver == config.BlobDriverS3 {
		return blob.NewS3(ctx, blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return blob.NewLocal(cfg.DocumentsDir)
}

// newEmbedder uses a remote embedding endpoint when one is configured.
func newEmbedder(cfg *config.Config, log *slog.Logger) (index.Embedder, error) {
	if cfg.EmbeddingBaseURL == "" {
		log.Info("embedder_selected", slog.String("kind", "hash"), slog.Int("dimensions", index.DefaultHashDimensions))
		return index.NewHashEmbedder(index.DefaultHashDimensions), nil
	}

	log.Info("embedder_selected", slog.String("kind", "remote"), slog.String("model", cfg.EmbeddingModel))
	return index.NewRemoteEmbedder(index.RemoteOptions{
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   cfg.EmbeddingModel,
		APIKey:  cfg.EmbeddingAPIKey,
	})
}

// newSynthesizer disables answer synthesis when no API key is set.
func newSynthesizer(cfg *config.Config, log *slog.Logger) (index.Synthesizer, error) {
	if cfg.LLMAPIKey == "" {
		log.Warn("answer_synthesis_disabled", slog.String("hint", "set LLM_API_KEY to enable"))
		return index.NoSynthesizer{}, nil
	}

	return index.NewLLMSynthesizer(index.LLMOptions{
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		APIKey:  cfg.LLMAPIKey,
	})
}

func postgresCheck(pool *pgxpool.Pool) api.Check {
	return api.Check{Name: "postgres", Probe: func(ctx context.Context) error {
		return pgstore.Ping(ctx, pool)
	}}
}

func redisCheck(client *redis.Client) api.Check {
	return api.Check{Name: "redis", Probe: func(ctx context.Context) error {
		return redisstore.Ping(ctx, client)
	}}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
