package triplestore

import (
	"context"
	"log/slog"
	"sort"

	"github.com/maraichr/ontograph/internal/graph"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// GraphStore is the subset of the Neo4j client the backend needs.
type GraphStore interface {
	WriteGraph(ctx context.Context, name, kind string, g *rdf.Graph) error
	ReadGraphs(ctx context.Context, kind string) (map[string]*rdf.Graph, error)
}

// Neo4j stores each ontology and each fact graph as a named graph.
type Neo4j struct {
	store  GraphStore
	domain string
	logger *slog.Logger
}

func NewNeo4j(store GraphStore, domain string, logger *slog.Logger) *Neo4j {
	return &Neo4j{store: store, domain: domain, logger: logger}
}

func (n *Neo4j) Name() string { return BackendNeo4j }

func (n *Neo4j) FetchOntologies(ctx context.Context) ([]*ontology.Ontology, error) {
	graphs, err := n.store.ReadGraphs(ctx, graph.KindOntology)
	if err != nil {
		return nil, err
	}
	iris := make([]string, 0, len(graphs))
	for iri := range graphs {
		iris = append(iris, iri)
	}
	sort.Strings(iris)

	out := make([]*ontology.Ontology, 0, len(iris))
	for _, iri := range iris {
		o := ontology.New(ontology.Properties{IRI: iri}, graphs[iri], n.domain)
		if o.IsNull() {
			n.logger.Warn("skipping ontology graph", slog.String("graph", iri))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (n *Neo4j) SerializeOntology(ctx context.Context, o *ontology.Ontology) error {
	return n.store.WriteGraph(ctx, o.IRI, graph.KindOntology, o.Graph)
}

func (n *Neo4j) SerializeFacts(ctx context.Context, g *rdf.Graph, namespace string) error {
	return n.store.WriteGraph(ctx, namespace, graph.KindFacts, g)
}
