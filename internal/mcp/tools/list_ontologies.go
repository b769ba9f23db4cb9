package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/mcp"
)

// ListOntologiesParams are the parameters for the list_ontologies tool.
type ListOntologiesParams struct {
	Limit int `json:"limit,omitempty"`
}

// ListOntologiesHandler implements the list_ontologies MCP tool.
type ListOntologiesHandler struct {
	ontologies OntologySource
	logger     *slog.Logger
}

func NewListOntologiesHandler(o OntologySource, logger *slog.Logger) *ListOntologiesHandler {
	return &ListOntologiesHandler{ontologies: o, logger: logger}
}

func (h *ListOntologiesHandler) Handle(ctx context.Context, params ListOntologiesParams) (string, error) {
	if err := requireScope(ctx, auth.ScopeRead, auth.ScopeWrite); err != nil {
		return "", err
	}
	if params.Limit <= 0 {
		params.Limit = 50
	}

	all := h.ontologies.List()
	if len(all) == 0 {
		return "No ontologies found.", nil
	}

	rb := mcp.NewResponseBuilder(4000)
	rb.AddHeader(fmt.Sprintf("**Ontologies** (%d found)", len(all)))

	returned := 0
	for _, o := range all {
		if returned >= params.Limit {
			break
		}
		if !rb.AddLine(mcp.FormatOntologyLine(ingestion.OntologySummary(o, false))) {
			break
		}
		returned++
	}

	return rb.Finalize(len(all), returned), nil
}
