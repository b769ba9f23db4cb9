package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/mcp"
)

// GetOntologyParams are the parameters for the get_ontology tool.
type GetOntologyParams struct {
	OntologyID        string `json:"ontology_id,omitempty"`
	IRI               string `json:"iri,omitempty"`
	IncludeTurtle     bool   `json:"include_turtle,omitempty"`
	MaxResponseTokens int    `json:"max_response_tokens,omitempty"`
}

// GetOntologyHandler implements the get_ontology MCP tool.
type GetOntologyHandler struct {
	ontologies OntologySource
	logger     *slog.Logger
}

func NewGetOntologyHandler(o OntologySource, logger *slog.Logger) *GetOntologyHandler {
	return &GetOntologyHandler{ontologies: o, logger: logger}
}

func (h *GetOntologyHandler) Handle(ctx context.Context, params GetOntologyParams) (string, error) {
	if err := requireScope(ctx, auth.ScopeRead, auth.ScopeWrite); err != nil {
		return "", err
	}
	if params.OntologyID == "" && params.IRI == "" {
		return "", fmt.Errorf("ontology_id or iri is required")
	}

	o, ok := h.ontologies.Lookup(params.OntologyID, params.IRI)
	if !ok {
		return "", fmt.Errorf("ontology not found")
	}
	s := ingestion.OntologySummary(o, params.IncludeTurtle)

	rb := mcp.NewResponseBuilder(params.MaxResponseTokens)
	rb.AddHeader(fmt.Sprintf("## Ontology `%s`", s.ID))
	rb.AddRawText(mcp.FormatOntologyCard(s))
	if params.IncludeTurtle {
		rb.AddLine("")
		rb.AddCodeBlock("turtle", s.Turtle)
	}
	return rb.Finalize(1, 1), nil
}
