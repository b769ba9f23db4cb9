package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	apihandler "github.com/maraichr/ontograph/internal/api/handler"
	apimw "github.com/maraichr/ontograph/internal/api/middleware"
	"github.com/maraichr/ontograph/internal/auth"
)

// RouterDeps holds the router's collaborators. Processor and Ontologies are
// required; everything else is optional and disables its routes' features
// when nil.
type RouterDeps struct {
	Processor  apihandler.Processor
	Ontologies apihandler.OntologySource
	Runs       apihandler.RunStore
	Uploads    apihandler.Uploader
	Producer   apihandler.Enqueuer
	Metrics    http.Handler
	Checks     map[string]apihandler.Check
	Info       apihandler.Info

	AuthEnabled bool
	Verifier    *auth.Verifier
}

func NewRouter(logger *slog.Logger, deps *RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apimw.Logger(logger))
	r.Use(apimw.CORS)
	r.Use(chimw.Recoverer)

	health := apihandler.NewHealthHandler(deps.Checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	info := apihandler.NewInfoHandler(deps.Info, deps.Ontologies)
	r.Get("/info", info.Info)

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	process := apihandler.NewProcessHandler(logger, deps.Processor, deps.Runs)
	documents := apihandler.NewDocumentHandler(logger, deps.Runs, deps.Uploads, deps.Producer)
	runs := apihandler.NewRunHandler(logger, deps.Runs)
	ontologies := apihandler.NewOntologyHandler(logger, deps.Ontologies)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.AuthEnabled && deps.Verifier != nil {
			r.Use(auth.RequireAuth(deps.Verifier, logger))
		} else {
			r.Use(auth.DevModeMiddleware(logger))
		}

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(auth.ScopeWrite))
			r.Post("/process", process.Process)
			r.Post("/documents", documents.Submit)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireScope(auth.ScopeRead, auth.ScopeWrite))
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", runs.List)
				r.Get("/{runID}", runs.Get)
			})
			r.Route("/ontologies", func(r chi.Router) {
				r.Get("/", ontologies.List)
				r.Get("/{id}", ontologies.Get)
			})
		})
	})

	return r
}
