package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/store/postgres"
)

// Processor runs one document through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, doc ingestion.Document, limits ingestion.Limits) *ingestion.Result
}

// RunStore persists processing runs. *store.Store implements it.
type RunStore interface {
	ingestion.RunRecorder
	CreateRun(ctx context.Context, arg postgres.CreateRunParams) (postgres.ProcessingRun, error)
	GetRun(ctx context.Context, id uuid.UUID) (postgres.ProcessingRun, error)
	ListRuns(ctx context.Context, arg postgres.ListRunsParams) ([]postgres.ProcessingRun, error)
}

type ProcessHandler struct {
	logger    *slog.Logger
	processor Processor
	runs      RunStore
}

// NewProcessHandler builds the synchronous handler. runs may be nil, in which
// case no run record is kept.
func NewProcessHandler(logger *slog.Logger, p Processor, runs RunStore) *ProcessHandler {
	return &ProcessHandler{logger: logger, processor: p, runs: runs}
}

// Process runs the document inline and returns its result. Failed documents
// answer 422 with the result body so the failure stage is visible.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	doc, limits, e := readDocument(w, r)
	if e != nil {
		writeAPIError(w, r, h.logger, e)
		return
	}

	recorded := h.startRun(r.Context(), doc)
	res := h.processor.Process(r.Context(), doc, limits.limits()).Model()
	if recorded {
		if err := h.runs.CompleteRun(r.Context(), doc.ID, res); err != nil {
			h.logger.Warn("complete run", slog.String("run_id", doc.ID.String()), slog.String("error", err.Error()))
		}
	}

	status := http.StatusOK
	if res.Status == string(ingestion.StatusFailed) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (h *ProcessHandler) startRun(ctx context.Context, doc ingestion.Document) bool {
	if h.runs == nil {
		return false
	}
	if _, err := h.runs.CreateRun(ctx, postgres.CreateRunParams{
		ID:           doc.ID,
		DocumentName: doc.Name,
		MimeType:     doc.MimeType,
	}); err != nil {
		h.logger.Warn("create run", slog.String("error", err.Error()))
		return false
	}
	if err := h.runs.MarkRunRunning(ctx, doc.ID); err != nil {
		h.logger.Warn("mark run running", slog.String("error", err.Error()))
	}
	return true
}

