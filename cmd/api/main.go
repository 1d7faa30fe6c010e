package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docintake/internal/account"
	"github.com/nikhilbhutani/docintake/internal/analysis"
	"github.com/nikhilbhutani/docintake/internal/api"
	"github.com/nikhilbhutani/docintake/internal/api/handlers"
	"github.com/nikhilbhutani/docintake/internal/auth"
	"github.com/nikhilbhutani/docintake/internal/cache"
	"github.com/nikhilbhutani/docintake/internal/config"
	"github.com/nikhilbhutani/docintake/internal/database"
	"github.com/nikhilbhutani/docintake/internal/document"
	"github.com/nikhilbhutani/docintake/internal/extraction"
	"github.com/nikhilbhutani/docintake/internal/llm"
	"github.com/nikhilbhutani/docintake/internal/queue"
	"github.com/nikhilbhutani/docintake/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db, cfg.Database.MigrationsPath); err != nil {
		slog.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, credential checks will not be cached", "error", err)
	}
	defer rdb.Close()

	registry := llm.NewRegistry(cfg.LLM, llm.WithLogger(logger))
	if !registry.HasActive() {
		slog.Warn("no system AI provider configured, only user keys will work")
	}

	users := store.NewUsers(db)
	analyses := store.NewAnalyses(db)

	cascade := extraction.New(cfg, registry, extraction.WithLogger(logger))
	docSvc := document.NewService(cascade, analysis.NewAnalyzer(registry, logger), registry, analyses, logger)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	memo := cache.NewCredentialMemo(cache.NewCache(rdb, "docintake:"), cfg.Auth.CredentialTTL)
	accountSvc := account.NewService(
		auth.NewGoogleVerifier(cfg.Auth.GoogleClientID, cfg.Auth.TokenInfoURL),
		issuer,
		users,
		registry,
		memo,
		logger,
	)

	qc := queue.NewClient(cfg.Redis)
	defer qc.Close()
	if err := qc.EnqueueScratchSweep(cfg.Scratch); err != nil {
		slog.Warn("could not enqueue scratch sweep", "error", err)
	}

	router := api.NewRouter(cfg, api.Deps{
		Documents:    docSvc,
		Accounts:     accountSvc,
		Providers:    registry,
		Extraction:   cascade,
		Authenticate: auth.NewMiddleware(issuer, users).Authenticate,
		Checks: map[string]handlers.Pinger{
			"database": database.NewReadinessCheck(db),
			"redis":    handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(ctx),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
