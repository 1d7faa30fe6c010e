package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/nikhilbhutani/docintake/internal/config"
	"github.com/nikhilbhutani/docintake/internal/queue"
	"github.com/nikhilbhutani/docintake/internal/queue/workers"
)

const concurrency = 2

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

	srv := queue.NewServer(cfg.Redis, concurrency)

	registry := queue.NewHandlersRegistry()
	scratch := workers.NewScratchWorker(logger)
	registry.Register(queue.TypeScratchSweep, asynq.HandlerFunc(scratch.ProcessTask))

	scheduler, err := queue.NewScheduler(cfg.Redis, cfg.Scratch)
	if err != nil {
		slog.Error("failed to register schedule", "error", err)
		os.Exit(1)
	}

	slog.Info("starting worker", "concurrency", concurrency, "scratch_dir", cfg.Scratch.Dir)
	if err := srv.Start(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler error", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()
	slog.Info("worker stopped")
}
