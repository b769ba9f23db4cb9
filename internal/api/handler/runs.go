package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/store"
	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/apierr"
	"github.com/maraichr/ontograph/pkg/models"
)

type RunHandler struct {
	logger *slog.Logger
	runs   RunStore
}

func NewRunHandler(logger *slog.Logger, runs RunStore) *RunHandler {
	return &RunHandler{logger: logger, runs: runs}
}

// RunView is the wire form of a processing run.
type RunView struct {
	ID           string                `json:"id"`
	DocumentName string                `json:"document_name,omitempty"`
	MimeType     string                `json:"mime_type,omitempty"`
	ObjectKey    string                `json:"object_key,omitempty"`
	Status       string                `json:"status"`
	ResultStatus string                `json:"result_status,omitempty"`
	TripleCount  int32                 `json:"triple_count"`
	OntologyID   string                `json:"ontology_id,omitempty"`
	Error        string                `json:"error,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	StartedAt    *time.Time            `json:"started_at,omitempty"`
	CompletedAt  *time.Time            `json:"completed_at,omitempty"`
	Result       *models.ProcessResult `json:"result,omitempty"`
}

// NewRunView converts a stored run. The full result is only decoded when
// withResult is set.
func NewRunView(run postgres.ProcessingRun, withResult bool) (RunView, error) {
	v := RunView{
		ID:           run.ID.String(),
		DocumentName: run.DocumentName,
		MimeType:     run.MimeType,
		ObjectKey:    deref(run.ObjectKey),
		Status:       string(run.Status),
		ResultStatus: deref(run.ResultStatus),
		TripleCount:  run.TripleCount,
		OntologyID:   deref(run.OntologyID),
		Error:        deref(run.ErrorMessage),
		CreatedAt:    run.CreatedAt,
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
	}
	if withResult {
		res, err := store.RunResult(run)
		if err != nil {
			return v, err
		}
		v.Result = res
	}
	return v, nil
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeAPIError(w, r, h.logger, apierr.RunsUnavailable())
		return
	}
	limit, offset := pagination(r)
	runs, err := h.runs.ListRuns(r.Context(), postgres.ListRunsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		writeAPIError(w, r, h.logger, apierr.RunListFailed(err))
		return
	}

	views := make([]RunView, 0, len(runs))
	for _, run := range runs {
		v, _ := NewRunView(run, false)
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":   views,
		"total":  len(views),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeAPIError(w, r, h.logger, apierr.RunsUnavailable())
		return
	}
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		writeAPIError(w, r, h.logger, apierr.InvalidRunID())
		return
	}

	run, err := h.runs.GetRun(r.Context(), runID)
	if err != nil {
		if apierr.IsNotFound(err) {
			writeAPIError(w, r, h.logger, apierr.RunNotFound())
		} else {
			writeAPIError(w, r, h.logger, apierr.InternalError(err))
		}
		return
	}

	v, err := NewRunView(run, true)
	if err != nil {
		writeAPIError(w, r, h.logger, apierr.InternalError(err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
