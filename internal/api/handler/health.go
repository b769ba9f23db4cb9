package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/maraichr/ontograph/pkg/apierr"
)

// Check reports whether a dependency is ready.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler builds the probe handlers. checks is keyed by dependency
// name ("database", "neo4j", ...).
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			if name == "database" {
				writeAPIError(w, r, nil, apierr.DatabaseNotReady())
			} else {
				writeAPIError(w, r, nil, apierr.BackendNotReady(name))
			}
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
