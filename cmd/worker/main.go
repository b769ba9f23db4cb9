package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/maraichr/ontograph/internal/app"
	"github.com/maraichr/ontograph/internal/config"
)

func main() {
	_ = godotenv.Load()
	logger := app.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg, logger, app.WithSummarize())
	if err != nil {
		logger.Error("failed to build pipeline", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pipeline.Close(context.Background())

	if err := app.RunWorker(ctx, pipeline, logger); err != nil {
		logger.Error("worker failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
