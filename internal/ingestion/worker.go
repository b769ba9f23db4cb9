package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/pkg/models"
)

// DocumentStore returns uploaded document bodies.
type DocumentStore interface {
	DownloadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
}

// RunRecorder tracks processing runs.
type RunRecorder interface {
	MarkRunRunning(ctx context.Context, id uuid.UUID) error
	CompleteRun(ctx context.Context, id uuid.UUID, res models.ProcessResult) error
	FailRun(ctx context.Context, id uuid.UUID, reason string) error
}

// Worker handles queued documents: it downloads the body, runs the
// controller and records the outcome.
type Worker struct {
	controller *Controller
	documents  DocumentStore
	runs       RunRecorder
	logger     *slog.Logger
}

func NewWorker(c *Controller, documents DocumentStore, runs RunRecorder, logger *slog.Logger) *Worker {
	return &Worker{controller: c, documents: documents, runs: runs, logger: logger}
}

// Handle processes one message. Document-level outcomes, including failures,
// are recorded on the run and acknowledged; only infrastructure errors are
// returned so the message stays pending.
func (w *Worker) Handle(ctx context.Context, msg DocumentMessage) error {
	w.logger.Info("run started",
		slog.String("run_id", msg.RunID.String()),
		slog.String("object_key", msg.ObjectKey))

	if err := w.runs.MarkRunRunning(ctx, msg.RunID); err != nil {
		return fmt.Errorf("mark run running: %w", err)
	}

	data, err := w.download(ctx, msg.ObjectKey)
	if err != nil {
		if ferr := w.runs.FailRun(ctx, msg.RunID, err.Error()); ferr != nil {
			w.logger.Error("fail run",
				slog.String("run_id", msg.RunID.String()),
				slog.String("error", ferr.Error()))
		}
		return err
	}

	res := w.controller.Process(ctx, Document{
		ID:       msg.RunID,
		Name:     msg.Name,
		MimeType: msg.MimeType,
		Data:     data,
	}, msg.Limits())

	if err := w.runs.CompleteRun(ctx, msg.RunID, res.Model()); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}

	w.logger.Info("run completed",
		slog.String("run_id", msg.RunID.String()),
		slog.String("status", string(res.Status)))
	return nil
}

func (w *Worker) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := w.documents.DownloadFile(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}
