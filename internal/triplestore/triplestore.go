// Package triplestore persists ontologies and fact graphs to one or more
// backends.
package triplestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// Backend names.
const (
	BackendNeo4j      = "neo4j"
	BackendMinIO      = "minio"
	BackendFilesystem = "filesystem"
)

// preference orders backends when choosing the one that seeds the registry.
var preference = map[string]int{
	BackendNeo4j:      0,
	BackendMinIO:      1,
	BackendFilesystem: 2,
}

// ErrNoBackends is returned by Manager reads when nothing is configured.
var ErrNoBackends = errors.New("no triple store backends configured")

// Backend stores ontologies and fact graphs.
type Backend interface {
	Name() string
	FetchOntologies(ctx context.Context) ([]*ontology.Ontology, error)
	SerializeOntology(ctx context.Context, o *ontology.Ontology) error
	SerializeFacts(ctx context.Context, g *rdf.Graph, namespace string) error
}

// Manager fans writes out to every backend and reads from the preferred one.
type Manager struct {
	backends []Backend
	logger   *slog.Logger
}

// NewManager orders backends by preference (neo4j, minio, filesystem, then
// anything else by name).
func NewManager(logger *slog.Logger, backends ...Backend) *Manager {
	sorted := make([]Backend, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			sorted = append(sorted, b)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, iok := preference[sorted[i].Name()]
		pj, jok := preference[sorted[j].Name()]
		switch {
		case iok && jok:
			return pi < pj
		case iok != jok:
			return iok
		default:
			return sorted[i].Name() < sorted[j].Name()
		}
	})
	return &Manager{backends: sorted, logger: logger}
}

// Preferred returns the backend that seeds the registry, or nil.
func (m *Manager) Preferred() Backend {
	if len(m.backends) == 0 {
		return nil
	}
	return m.backends[0]
}

// Names lists the configured backends in preference order.
func (m *Manager) Names() []string {
	out := make([]string, len(m.backends))
	for i, b := range m.backends {
		out[i] = b.Name()
	}
	return out
}

// FetchOntologies reads from the preferred backend.
func (m *Manager) FetchOntologies(ctx context.Context) ([]*ontology.Ontology, error) {
	b := m.Preferred()
	if b == nil {
		return nil, ErrNoBackends
	}
	records, err := b.FetchOntologies(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}
	m.logger.Info("ontologies fetched",
		slog.String("backend", b.Name()),
		slog.Int("count", len(records)))
	return records, nil
}

// SerializeOntology writes o to every backend and joins their errors.
func (m *Manager) SerializeOntology(ctx context.Context, o *ontology.Ontology) error {
	return m.fanOut(ctx, "serialize ontology", func(ctx context.Context, b Backend) error {
		return b.SerializeOntology(ctx, o)
	})
}

// SerializeFacts writes g to every backend and joins their errors.
func (m *Manager) SerializeFacts(ctx context.Context, g *rdf.Graph, namespace string) error {
	return m.fanOut(ctx, "serialize facts", func(ctx context.Context, b Backend) error {
		return b.SerializeFacts(ctx, g, namespace)
	})
}

func (m *Manager) fanOut(ctx context.Context, op string, fn func(context.Context, Backend) error) error {
	if len(m.backends) == 0 {
		return nil
	}
	errs := make([]error, len(m.backends))
	var wg sync.WaitGroup
	for i, b := range m.backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, b); err != nil {
				m.logger.Error(op+" failed",
					slog.String("backend", b.Name()),
					slog.String("error", err.Error()))
				errs[i] = fmt.Errorf("%s %s: %w", b.Name(), op, err)
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

// FactsName derives a stable object name from a fact graph namespace. For a
// document namespace "<domain>/doc/<hash>#" it is the hash.
func FactsName(namespace string) string {
	trimmed := strings.TrimRight(namespace, "#/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	name := unsafeName.ReplaceAllString(strings.ToLower(trimmed), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "facts"
	}
	return name
}

// FactsTurtle serializes a fact graph with the standard prefixes and cd: bound
// to its namespace.
func FactsTurtle(g *rdf.Graph, namespace string) string {
	prefixes := make(map[string]string, len(rdf.StandardPrefixes)+1)
	for k, v := range rdf.StandardPrefixes {
		prefixes[k] = v
	}
	if namespace != "" {
		prefixes["cd"] = namespace
	}
	return g.Turtle(prefixes)
}

// decodeOntology parses one stored ontology. fallbackID names records whose
// graph does not declare an owl:Ontology.
func decodeOntology(src, fallbackID, domain string) (*ontology.Ontology, error) {
	g, err := rdf.ParseTurtle(src)
	if err != nil {
		return nil, err
	}
	o := ontology.New(ontology.Properties{ID: fallbackID}, g, domain)
	if o.IsNull() {
		return nil, fmt.Errorf("ontology %s has no identity", fallbackID)
	}
	return o, nil
}
