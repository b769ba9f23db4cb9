package tools

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/models"
)

// OntologySource is the read side of the ontology registry.
type OntologySource interface {
	List() []*ontology.Ontology
	Lookup(id, iri string) (*ontology.Ontology, bool)
}

// Processor runs one document through the extraction pipeline.
type Processor interface {
	Process(ctx context.Context, doc ingestion.Document, limits ingestion.Limits) *ingestion.Result
}

// RunStore is the subset of the run store used by the tools.
type RunStore interface {
	CreateRun(ctx context.Context, arg postgres.CreateRunParams) (postgres.ProcessingRun, error)
	MarkRunRunning(ctx context.Context, id uuid.UUID) error
	CompleteRun(ctx context.Context, id uuid.UUID, res models.ProcessResult) error
	GetRun(ctx context.Context, id uuid.UUID) (postgres.ProcessingRun, error)
}

// Deps holds what the tools need. Runs may be nil; get_run is then not
// registered and process_text keeps no record.
type Deps struct {
	Ontologies OntologySource
	Processor  Processor
	Runs       RunStore
	Logger     *slog.Logger
}

// Register adds every tool to s.
func Register(s *sdkmcp.Server, d Deps) {
	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "list_ontologies",
		Description: "List the ontologies in the registry. Returns ID, IRI, title, version and triple count.",
	}, WrapHandler[ListOntologiesParams](NewListOntologiesHandler(d.Ontologies, d.Logger)))

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "get_ontology",
		Description: "Get one ontology by ontology_id or iri. Set include_turtle to return its Turtle serialization.",
	}, WrapHandler[GetOntologyParams](NewGetOntologyHandler(d.Ontologies, d.Logger)))

	sdkmcp.AddTool(s, &sdkmcp.Tool{
		Name:        "process_text",
		Description: "Extract an RDF knowledge graph from a text document. Selects or develops an ontology, extracts facts per chunk and returns the aggregated facts as Turtle.",
	}, WrapHandler[ProcessTextParams](NewProcessTextHandler(d.Processor, d.Runs, d.Logger)))

	if d.Runs != nil {
		sdkmcp.AddTool(s, &sdkmcp.Tool{
			Name:        "get_run",
			Description: "Get the status of a processing run submitted through the API or process_text.",
		}, WrapHandler[GetRunParams](NewGetRunHandler(d.Runs, d.Logger)))
	}
}
