package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

type echoProcessor struct{}

func (echoProcessor) Process(_ context.Context, doc ingestion.Document, _ ingestion.Limits) *ingestion.Result {
	return &ingestion.Result{DocumentID: doc.ID, Status: ingestion.StatusSuccess, Facts: rdf.NewGraph()}
}

func newTestRouter(deps *RouterDeps) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if deps.Processor == nil {
		deps.Processor = echoProcessor{}
	}
	if deps.Ontologies == nil {
		deps.Ontologies = ontology.NewRegistry(logger)
	}
	return NewRouter(logger, deps)
}

func TestRouterRoutes(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("# metrics")) })
	r := newTestRouter(&RouterDeps{Metrics: metrics})

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", http.StatusOK},
		{http.MethodGet, "/info", "", http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ontologies", "", http.StatusOK},
		{http.MethodGet, "/api/v1/ontologies/none", "", http.StatusNotFound},
		{http.MethodPost, "/api/v1/process", `{"text":"Acme runs a store."}`, http.StatusOK},
		{http.MethodPost, "/api/v1/documents", `{"text":"x"}`, http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/runs", "", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/v1/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestRouterWithoutMetrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&RouterDeps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("got status %d, want 404", rec.Code)
	}
}

func TestRouterInfoCountsOntologies(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&RouterDeps{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if !strings.Contains(rec.Body.String(), `"ontologies":0`) {
		t.Errorf("info = %s", rec.Body.String())
	}
}
