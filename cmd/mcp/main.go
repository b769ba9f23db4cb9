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
	sdkauth "github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/oauthex"

	"github.com/maraichr/ontograph/internal/app"
	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/mcp"
	"github.com/maraichr/ontograph/internal/mcp/tools"
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

	deps := tools.Deps{
		Ontologies: pipeline.Registry,
		Processor:  pipeline.Controller,
		Logger:     logger,
	}

	// Database (optional: enables run records and get_run)
	s, pool, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		logger.Warn("database unavailable, run tools disabled", slog.String("error", err.Error()))
	} else {
		defer pool.Close()
		deps.Runs = s
		logger.Info("connected to database")
	}

	// Tools are registered here to avoid an import cycle mcp <-> mcp/tools
	sdkServer := mcp.NewServer()
	tools.Register(sdkServer, deps)
	sdkHandler := mcp.NewHTTPHandler(sdkServer)

	mux := http.NewServeMux()

	var mcpHandler http.Handler
	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(ctx, cfg.Auth.IssuerURL, cfg.Auth.PublicIssuer, cfg.Auth.Audience)
		if err != nil {
			logger.Error("failed to init OIDC verifier for MCP", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// SDK auth middleware with RFC 9728 support
		resourceMetadataURL := ""
		if cfg.MCP.BaseURL != "" {
			resourceMetadataURL = cfg.MCP.BaseURL + "/.well-known/oauth-protected-resource"

			authServerURL := cfg.Auth.PublicIssuer
			if authServerURL == "" {
				authServerURL = cfg.Auth.IssuerURL
			}

			prm := &oauthex.ProtectedResourceMetadata{
				Resource:               cfg.MCP.BaseURL,
				AuthorizationServers:   []string{authServerURL},
				ScopesSupported:        []string{"openid", auth.ScopeRead, auth.ScopeWrite},
				BearerMethodsSupported: []string{"header"},
				ResourceName:           "Ontograph MCP Server",
			}
			mux.Handle("/.well-known/oauth-protected-resource", sdkauth.ProtectedResourceMetadataHandler(prm))
			logger.Info("RFC 9728 metadata endpoint enabled", slog.String("url", resourceMetadataURL))
		}

		mcpHandler = sdkauth.RequireBearerToken(auth.NewMCPTokenVerifier(verifier), &sdkauth.RequireBearerTokenOptions{
			ResourceMetadataURL: resourceMetadataURL,
		})(sdkHandler)
		logger.Info("MCP OIDC auth enabled", slog.String("issuer", cfg.Auth.IssuerURL))
	} else {
		mcpHandler = auth.DevModeMiddleware(logger)(sdkHandler)
	}

	mux.Handle("/mcp", mcpHandler)
	mux.Handle("/metrics", pipeline.Metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.MCP.Port)
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("MCP server listening", slog.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("MCP HTTP server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("MCP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("MCP HTTP shutdown", slog.String("error", err.Error()))
	}
	logger.Info("MCP server stopped")
}
