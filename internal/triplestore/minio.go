package triplestore

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

const (
	ontologyPrefix = "ontologies/"
	factsPrefix    = "facts/"
	turtleType     = "text/turtle"
)

// ObjectStore is the subset of the MinIO client the backend needs.
type ObjectStore interface {
	PutText(ctx context.Context, objectName, contentType, body string) error
	ReadFile(ctx context.Context, objectName string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// MinIO keeps ontologies under ontologies/<id>.ttl and fact graphs under
// facts/<name>.ttl.
type MinIO struct {
	store  ObjectStore
	domain string
	logger *slog.Logger
}

func NewMinIO(store ObjectStore, domain string, logger *slog.Logger) *MinIO {
	return &MinIO{store: store, domain: domain, logger: logger}
}

func (m *MinIO) Name() string { return BackendMinIO }

func (m *MinIO) FetchOntologies(ctx context.Context) ([]*ontology.Ontology, error) {
	names, err := m.store.ListObjects(ctx, ontologyPrefix)
	if err != nil {
		return nil, err
	}
	var out []*ontology.Ontology
	for _, name := range names {
		if !strings.HasSuffix(name, ".ttl") {
			continue
		}
		data, err := m.store.ReadFile(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", name, err)
		}
		o, err := decodeOntology(string(data), strings.TrimSuffix(path.Base(name), ".ttl"), m.domain)
		if err != nil {
			m.logger.Warn("skipping ontology object", slog.String("object", name), slog.String("error", err.Error()))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MinIO) SerializeOntology(ctx context.Context, o *ontology.Ontology) error {
	return m.store.PutText(ctx, ontologyPrefix+o.ID+".ttl", turtleType, o.Turtle())
}

func (m *MinIO) SerializeFacts(ctx context.Context, g *rdf.Graph, namespace string) error {
	return m.store.PutText(ctx, factsPrefix+FactsName(namespace)+".ttl", turtleType, FactsTurtle(g, namespace))
}
