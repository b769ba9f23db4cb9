package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/mcp"
)

// GetRunParams are the parameters for the get_run tool.
type GetRunParams struct {
	RunID string `json:"run_id"`
}

// GetRunHandler implements the get_run MCP tool.
type GetRunHandler struct {
	runs   RunStore
	logger *slog.Logger
}

func NewGetRunHandler(runs RunStore, logger *slog.Logger) *GetRunHandler {
	return &GetRunHandler{runs: runs, logger: logger}
}

func (h *GetRunHandler) Handle(ctx context.Context, params GetRunParams) (string, error) {
	if err := requireScope(ctx, auth.ScopeRead, auth.ScopeWrite); err != nil {
		return "", err
	}
	id, err := uuid.Parse(strings.TrimSpace(params.RunID))
	if err != nil {
		return "", fmt.Errorf("invalid run_id")
	}

	run, err := h.runs.GetRun(ctx, id)
	if err != nil {
		return "", wrapRunError(err)
	}

	rb := mcp.NewResponseBuilder(2000)
	rb.AddHeader(fmt.Sprintf("## Run `%s`", run.ID))
	rb.AddLine(fmt.Sprintf("- **Status:** %s", run.Status))
	if run.DocumentName != "" {
		rb.AddLine(fmt.Sprintf("- **Document:** %s (%s)", run.DocumentName, run.MimeType))
	}
	if run.ResultStatus != nil {
		rb.AddLine(fmt.Sprintf("- **Result:** %s, %d triples", *run.ResultStatus, run.TripleCount))
	}
	if run.OntologyID != nil {
		rb.AddLine(fmt.Sprintf("- **Ontology:** `%s`", *run.OntologyID))
	}
	if run.ErrorMessage != nil {
		rb.AddLine(fmt.Sprintf("- **Error:** %s", *run.ErrorMessage))
	}
	rb.AddLine(fmt.Sprintf("- **Created:** %s", run.CreatedAt.UTC().Format("2006-01-02 15:04:05Z")))
	if run.CompletedAt != nil {
		rb.AddLine(fmt.Sprintf("- **Completed:** %s", run.CompletedAt.UTC().Format("2006-01-02 15:04:05Z")))
	}
	return rb.Finalize(1, 1), nil
}
