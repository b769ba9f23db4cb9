package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/pkg/apierr"
	"github.com/maraichr/ontograph/pkg/models"
)

// OntologySource is the read side of the ontology registry.
type OntologySource interface {
	List() []*ontology.Ontology
	Lookup(id, iri string) (*ontology.Ontology, bool)
}

type OntologyHandler struct {
	logger   *slog.Logger
	registry OntologySource
}

func NewOntologyHandler(logger *slog.Logger, registry OntologySource) *OntologyHandler {
	return &OntologyHandler{logger: logger, registry: registry}
}

func (h *OntologyHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.registry.List()
	out := make([]*models.OntologySummary, 0, len(records))
	for _, o := range records {
		out = append(out, ingestion.OntologySummary(o, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ontologies": out,
		"total":      len(out),
	})
}

// Get returns one ontology with its Turtle. "?format=turtle" answers with the
// bare document instead of JSON. The id may also be the ontology IRI, passed
// as "?iri=".
func (h *OntologyHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, ok := h.registry.Lookup(chi.URLParam(r, "id"), r.URL.Query().Get("iri"))
	if !ok {
		writeAPIError(w, r, h.logger, apierr.OntologyNotFound())
		return
	}

	if r.URL.Query().Get("format") == "turtle" {
		w.Header().Set("Content-Type", "text/turtle; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(o.Turtle()))
		return
	}
	writeJSON(w, http.StatusOK, ingestion.OntologySummary(o, true))
}
