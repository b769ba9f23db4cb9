package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/apierr"
)

// Uploader stores document bodies for the worker. The MinIO client
// implements it.
type Uploader interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64) error
}

// Enqueuer hands a stored document to the worker queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg ingestion.DocumentMessage) (string, error)
}

type DocumentHandler struct {
	logger   *slog.Logger
	runs     RunStore
	uploads  Uploader
	producer Enqueuer
}

func NewDocumentHandler(logger *slog.Logger, runs RunStore, uploads Uploader, producer Enqueuer) *DocumentHandler {
	return &DocumentHandler{logger: logger, runs: runs, uploads: uploads, producer: producer}
}

type submitResponse struct {
	RunID     string `json:"run_id"`
	ObjectKey string `json:"object_key"`
	StreamID  string `json:"stream_id"`
	Status    string `json:"status"`
}

// Submit stores the document, records a queued run and enqueues it.
func (h *DocumentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil || h.producer == nil {
		writeAPIError(w, r, h.logger, apierr.QueueUnavailable())
		return
	}
	if h.runs == nil {
		writeAPIError(w, r, h.logger, apierr.RunsUnavailable())
		return
	}

	doc, limits, e := readDocument(w, r)
	if e != nil {
		writeAPIError(w, r, h.logger, e)
		return
	}

	key := objectKey(doc)
	if err := h.uploads.UploadFile(r.Context(), key, bytes.NewReader(doc.Data), int64(len(doc.Data))); err != nil {
		writeAPIError(w, r, h.logger, apierr.UploadFailed(err))
		return
	}

	run, err := h.runs.CreateRun(r.Context(), postgres.CreateRunParams{
		ID:           doc.ID,
		DocumentName: doc.Name,
		MimeType:     doc.MimeType,
		ObjectKey:    &key,
	})
	if err != nil {
		writeAPIError(w, r, h.logger, apierr.RunCreateFailed(err))
		return
	}

	streamID, err := h.producer.Enqueue(r.Context(), ingestion.DocumentMessage{
		RunID:                   run.ID,
		ObjectKey:               key,
		Name:                    doc.Name,
		MimeType:                doc.MimeType,
		MaxVisits:               limits.MaxVisits,
		MaxChunks:               limits.MaxChunks,
		SkipOntologyDevelopment: limits.SkipOntologyDevelopment,
	})
	if err != nil {
		_ = h.runs.FailRun(r.Context(), run.ID, "enqueue: "+err.Error())
		writeAPIError(w, r, h.logger, apierr.EnqueueFailed(err))
		return
	}

	h.logger.Info("document queued",
		slog.String("run_id", run.ID.String()),
		slog.String("object_key", key),
		slog.String("stream_id", streamID))

	writeJSON(w, http.StatusAccepted, submitResponse{
		RunID:     run.ID.String(),
		ObjectKey: key,
		StreamID:  streamID,
		Status:    string(postgres.RunStatusQueued),
	})
}

func objectKey(doc ingestion.Document) string {
	name := path.Base(doc.Name)
	if name == "" || name == "." || name == "/" {
		name = "document"
	}
	return "uploads/" + doc.ID.String() + "/" + name
}
