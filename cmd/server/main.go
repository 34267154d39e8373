package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/auth"
	"github.com/ayush/travel-journal/backend/internal/config"
	"github.com/ayush/travel-journal/backend/internal/journal"
	"github.com/ayush/travel-journal/backend/internal/logging"
	"github.com/ayush/travel-journal/backend/internal/server"
	"github.com/ayush/travel-journal/backend/internal/store"
	"github.com/ayush/travel-journal/backend/internal/summary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger is configured from cfg, so this one goes to stderr as is.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	defer mongoClient.Disconnect(ctx)
	history := store.NewSummaryHistory(mongoClient.Database(cfg.MongoDB))
	if err := history.EnsureIndexes(ctx); err != nil {
		log.Warn("summary history index", zap.Error(err))
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	covers, err := newCoverStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("minio connect: %w", err)
	}

	// ── Summary generator ────────────────────────────────────
	gen := newGenerator(ctx, cfg.AI, log)

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(auth.NewService(pgStore, log), sessions, log)
	journalHandler := journal.NewHandler(journal.NewService(pgStore, gen, history, covers, log), log)

	router := server.NewRouter(server.Deps{
		Auth:        authHandler,
		Journals:    journalHandler,
		Sessions:    sessions,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Ping:        pgStore.Ping,
	})

	// ── Server ───────────────────────────────────────────────
	// WriteTimeout leaves room for a create that waits on the generator.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// newCoverStore returns a nil CoverStore when no endpoint is configured;
// the cover endpoints then answer 503.
func newCoverStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (journal.CoverStore, error) {
	if cfg.MinioEndpoint == "" {
		log.Warn("no MinIO endpoint configured; cover uploads disabled")
		return nil, nil
	}
	covers, err := store.NewCoverStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		return nil, err
	}
	return covers, nil
}

// newGenerator picks the summary backend. Without an API key every call
// fails with ErrNotConfigured and entries are stored with an empty summary.
func newGenerator(ctx context.Context, ai config.AIConfig, log *zap.Logger) summary.Generator {
	if ai.APIKey == "" {
		log.Warn("no AI API key configured; summaries disabled")
		return summary.Disabled{}
	}
	switch ai.Provider {
	case "gemini":
		g, err := summary.NewGeminiGenerator(ctx, ai.BaseURL, ai.APIKey, ai.Model, ai.Timeout)
		if err != nil {
			log.Error("gemini generator", zap.Error(err))
			return summary.Disabled{}
		}
		return g
	case "openai", "":
		return summary.NewOpenAIGenerator(ai.BaseURL, ai.APIKey, ai.Model, ai.Timeout)
	default:
		log.Error("unknown AI provider; summaries disabled", zap.String("provider", ai.Provider))
		return summary.Disabled{}
	}
}
