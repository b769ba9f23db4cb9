package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/mcp"
	"github.com/maraichr/ontograph/internal/store/postgres"
)

const maxTextBytes = 1 << 20

// ProcessTextParams are the parameters for the process_text tool.
type ProcessTextParams struct {
	Text                    string `json:"text"`
	Name                    string `json:"name,omitempty"`
	MimeType                string `json:"mime_type,omitempty"`
	MaxVisits               int    `json:"max_visits,omitempty"`
	MaxChunks               int    `json:"max_chunks,omitempty"`
	SkipOntologyDevelopment *bool  `json:"skip_ontology_development,omitempty"`
	MaxResponseTokens       int    `json:"max_response_tokens,omitempty"`
}

// ProcessTextHandler implements the process_text MCP tool.
type ProcessTextHandler struct {
	processor Processor
	runs      RunStore
	logger    *slog.Logger
}

func NewProcessTextHandler(p Processor, runs RunStore, logger *slog.Logger) *ProcessTextHandler {
	return &ProcessTextHandler{processor: p, runs: runs, logger: logger}
}

func (h *ProcessTextHandler) Handle(ctx context.Context, params ProcessTextParams) (string, error) {
	if err := requireScope(ctx, auth.ScopeWrite); err != nil {
		return "", err
	}
	if strings.TrimSpace(params.Text) == "" {
		return "", fmt.Errorf("text is required")
	}
	if len(params.Text) > maxTextBytes {
		return "", fmt.Errorf("text exceeds %d bytes", maxTextBytes)
	}
	if params.MaxVisits < 0 || params.MaxChunks < 0 {
		return "", fmt.Errorf("max_visits and max_chunks must not be negative")
	}

	mimeType := params.MimeType
	if mimeType == "" {
		mimeType = "text/plain"
	}
	doc := ingestion.Document{
		ID:       uuid.New(),
		Name:     params.Name,
		MimeType: mimeType,
		Data:     []byte(params.Text),
	}
	recorded := h.startRun(ctx, doc)

	res := h.processor.Process(ctx, doc, ingestion.Limits{
		MaxVisits:               params.MaxVisits,
		MaxChunks:               params.MaxChunks,
		SkipOntologyDevelopment: params.SkipOntologyDevelopment,
	}).Model()

	if recorded {
		if err := h.runs.CompleteRun(ctx, doc.ID, res); err != nil {
			h.logger.Warn("complete run", slog.String("run_id", doc.ID.String()), slog.String("error", err.Error()))
		}
	}

	rb := mcp.NewResponseBuilder(params.MaxResponseTokens)
	rb.AddHeader(fmt.Sprintf("## Document `%s`", res.DocumentID))
	rb.AddRawText(mcp.FormatResultSummary(&res))
	if res.TripleCount > 0 {
		rb.AddLine("")
		rb.AddCodeBlock("turtle", res.Facts)
	}
	return rb.Finalize(1, 1), nil
}

func (h *ProcessTextHandler) startRun(ctx context.Context, doc ingestion.Document) bool {
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
