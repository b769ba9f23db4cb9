package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/maraichr/ontograph/internal/api"
	"github.com/maraichr/ontograph/internal/api/handler"
	"github.com/maraichr/ontograph/internal/app"
	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/ingestion"
	vk "github.com/maraichr/ontograph/internal/store/valkey"
)

var version = "dev"

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

	deps := &api.RouterDeps{
		Processor:  pipeline.Controller,
		Ontologies: pipeline.Registry,
		Metrics:    pipeline.Metrics.Handler(),
		Checks:     map[string]handler.Check{},
	}
	if pipeline.Neo4j != nil {
		deps.Checks["neo4j"] = pipeline.Neo4j.Verify
	}

	// Database (optional: enables run records)
	s, pool, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Warn("database unavailable, run records disabled", slog.String("error", err.Error()))
	} else {
		defer pool.Close()
		deps.Runs = s
		deps.Checks["database"] = pool.Ping
		logger.Info("connected to database")
	}

	// MinIO + Valkey (optional: enable async submission)
	mc, err := pipeline.ObjectStore(ctx)
	if err != nil {
		logger.Warn("object storage unavailable, async submission disabled", slog.String("error", err.Error()))
	} else {
		deps.Uploads = mc
	}
	vkClient, err := app.OpenQueue(ctx, cfg.Valkey)
	if err != nil {
		logger.Warn("valkey connection failed, job queue disabled", slog.String("error", err.Error()))
	} else {
		defer vkClient.Close()
		deps.Producer = ingestion.NewProducer(vkClient)
		deps.Checks["valkey"] = func(ctx context.Context) error { return vk.Ping(ctx, vkClient) }
		logger.Info("connected to valkey")
	}

	deps.Info = handler.Info{
		Name:     "ontograph",
		Version:  version,
		Domain:   cfg.Pipeline.Domain,
		Backends: pipeline.Backends.Names(),
		LLM:      pipeline.LLMModel,
		Async:    deps.Runs != nil && deps.Uploads != nil && deps.Producer != nil,
	}

	// Auth (optional: requires AUTH_ENABLED=true + valid issuer URL)
	deps.AuthEnabled = cfg.Auth.Enabled
	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(ctx, cfg.Auth.IssuerURL, cfg.Auth.PublicIssuer, cfg.Auth.Audience)
		if err != nil {
			logger.Error("failed to init OIDC verifier", slog.String("error", err.Error()))
			os.Exit(1)
		}
		deps.Verifier = verifier
		logger.Info("OIDC auth enabled", slog.String("issuer", cfg.Auth.IssuerURL))
	}

	router := api.NewRouter(logger, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("starting API server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
