package triplestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maraichr/ontograph/internal/graph"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const docNS = "https://example.com/doc/0a1b2c3d4e5f#"

func retail() *ontology.Ontology {
	g := rdf.NewGraph(rdf.T(rdf.IRI("https://example.com/retail#Store"), rdf.IRI(rdf.RDFType), rdf.IRI(rdf.NSRDFS+"Class")))
	return ontology.New(ontology.Properties{ID: "retail", Title: "Retail", Version: "1.0.0"}, g, "https://example.com")
}

func facts() *rdf.Graph {
	return rdf.NewGraph(rdf.T(rdf.IRI(docNS+"acme"), rdf.IRI(rdf.RDFType), rdf.IRI("https://example.com/retail#Store")))
}

type recordingBackend struct {
	name       string
	err        error
	ontologies []*ontology.Ontology

	mu    sync.Mutex
	wrote []string
}

func (b *recordingBackend) Name() string { return b.name }

func (b *recordingBackend) FetchOntologies(context.Context) ([]*ontology.Ontology, error) {
	return b.ontologies, b.err
}

func (b *recordingBackend) SerializeOntology(_ context.Context, o *ontology.Ontology) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wrote = append(b.wrote, "ontology:"+o.ID)
	return b.err
}

func (b *recordingBackend) SerializeFacts(_ context.Context, _ *rdf.Graph, ns string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wrote = append(b.wrote, "facts:"+ns)
	return b.err
}

func TestManagerPreferenceOrder(t *testing.T) {
	m := NewManager(discard,
		&recordingBackend{name: "custom"},
		&recordingBackend{name: BackendFilesystem},
		nil,
		&recordingBackend{name: BackendNeo4j},
		&recordingBackend{name: BackendMinIO},
	)
	assert.Equal(t, []string{BackendNeo4j, BackendMinIO, BackendFilesystem, "custom"}, m.Names())
	assert.Equal(t, BackendNeo4j, m.Preferred().Name())
}

func TestManagerFetchUsesPreferred(t *testing.T) {
	fs := &recordingBackend{name: BackendFilesystem, ontologies: []*ontology.Ontology{ontology.New(ontology.Properties{ID: "fs"}, nil, "")}}
	mn := &recordingBackend{name: BackendMinIO, ontologies: []*ontology.Ontology{retail()}}
	got, err := NewManager(discard, fs, mn).FetchOntologies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "retail", got[0].ID)

	_, err = NewManager(discard).FetchOntologies(context.Background())
	assert.ErrorIs(t, err, ErrNoBackends)
}

func TestManagerFanOutJoinsErrors(t *testing.T) {
	errA := errors.New("disk full")
	errB := errors.New("bucket gone")
	ok := &recordingBackend{name: BackendNeo4j}
	a := &recordingBackend{name: BackendFilesystem, err: errA}
	b := &recordingBackend{name: BackendMinIO, err: errB}
	m := NewManager(discard, ok, a, b)

	err := m.SerializeFacts(context.Background(), facts(), docNS)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "filesystem serialize facts")

	for _, be := range []*recordingBackend{ok, a, b} {
		assert.Equal(t, []string{"facts:" + docNS}, be.wrote, be.name)
	}

	require.NoError(t, NewManager(discard, ok).SerializeOntology(context.Background(), retail()))
	assert.Contains(t, ok.wrote, "ontology:retail")
}

func TestFactsName(t *testing.T) {
	tests := map[string]string{
		docNS:                                    "0a1b2c3d4e5f",
		"https://example.com/doc/abc/chunk/XY9#": "xy9",
		"urn:weird name!":                        "urn_weird_name",
		"":                                       "facts",
	}
	for in, want := range tests {
		assert.Equal(t, want, FactsName(in), in)
	}
}

func TestFilesystemRoundTrip(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFilesystem(filepath.Join(root, "ontologies"), filepath.Join(root, "facts"), "https://example.com", discard)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.SerializeOntology(ctx, retail()))
	require.NoError(t, fs.SerializeFacts(ctx, facts(), docNS))

	data, err := os.ReadFile(filepath.Join(root, "facts", "facts_0a1b2c3d4e5f.ttl"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "@prefix cd: <"+docNS+">")
	back, err := rdf.ParseTurtle(string(data))
	require.NoError(t, err)
	assert.True(t, back.Equal(facts()))

	got, err := fs.FetchOntologies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "retail", got[0].ID)
	assert.Equal(t, "Retail", got[0].Title)
	assert.True(t, got[0].Graph.Equal(retail().Graph))
}

func TestFilesystemSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.ttl"), []byte("<a> <b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "inv.ttl"),
		[]byte("<https://example.com/inv#Item> <"+rdf.RDFType+"> <"+rdf.NSRDFS+"Class> .\n"), 0o644))

	fs, err := NewFilesystem(dir, "", "https://example.com", discard)
	require.NoError(t, err)
	got, err := fs.FetchOntologies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "inv", got[0].ID, "file name names ontologies without a declaration")
	assert.Equal(t, "https://example.com/inv", got[0].IRI)
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memObjects) PutText(_ context.Context, name, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string]string)
	}
	m.objects[name] = body
	return nil
}

func (m *memObjects) ReadFile(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.objects[name]
	if !ok {
		return nil, errors.New("no such object")
	}
	return []byte(body), nil
}

func (m *memObjects) ListObjects(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func TestMinIORoundTrip(t *testing.T) {
	store := &memObjects{}
	b := NewMinIO(store, "https://example.com", discard)
	ctx := context.Background()

	require.NoError(t, b.SerializeOntology(ctx, retail()))
	require.NoError(t, b.SerializeFacts(ctx, facts(), docNS))
	assert.Contains(t, store.objects, "ontologies/retail.ttl")
	assert.Contains(t, store.objects, "facts/0a1b2c3d4e5f.ttl")

	got, err := b.FetchOntologies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "facts objects are not ontologies")
	assert.Equal(t, "retail", got[0].ID)
}

type memGraphs struct {
	graphs map[string]map[string]*rdf.Graph
}

func (m *memGraphs) WriteGraph(_ context.Context, name, kind string, g *rdf.Graph) error {
	if m.graphs == nil {
		m.graphs = make(map[string]map[string]*rdf.Graph)
	}
	if m.graphs[kind] == nil {
		m.graphs[kind] = make(map[string]*rdf.Graph)
	}
	m.graphs[kind][name] = g.Clone()
	return nil
}

func (m *memGraphs) ReadGraphs(_ context.Context, kind string) (map[string]*rdf.Graph, error) {
	return m.graphs[kind], nil
}

func TestNeo4jBackend(t *testing.T) {
	store := &memGraphs{}
	b := NewNeo4j(store, "https://example.com", discard)
	ctx := context.Background()

	require.NoError(t, b.SerializeOntology(ctx, retail()))
	require.NoError(t, b.SerializeFacts(ctx, facts(), docNS))
	assert.Contains(t, store.graphs[graph.KindFacts], docNS)

	got, err := b.FetchOntologies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "retail", got[0].ID)
	assert.Equal(t, "Retail", got[0].Title)
}
