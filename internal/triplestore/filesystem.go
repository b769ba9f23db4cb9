package triplestore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// Filesystem keeps ontologies as <ontologyDir>/<id>.ttl and fact graphs as
// <workingDir>/facts_<name>.ttl.
type Filesystem struct {
	ontologyDir string
	workingDir  string
	domain      string
	logger      *slog.Logger
}

func NewFilesystem(ontologyDir, workingDir, domain string, logger *slog.Logger) (*Filesystem, error) {
	for _, dir := range []string{ontologyDir, workingDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &Filesystem{ontologyDir: ontologyDir, workingDir: workingDir, domain: domain, logger: logger}, nil
}

func (f *Filesystem) Name() string { return BackendFilesystem }

// FetchOntologies loads every *.ttl file of the ontology directory. Files that
// do not parse are skipped with a warning.
func (f *Filesystem) FetchOntologies(_ context.Context) ([]*ontology.Ontology, error) {
	if f.ontologyDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(f.ontologyDir)
	if err != nil {
		return nil, fmt.Errorf("read ontology directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var out []*ontology.Ontology
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".ttl") {
			continue
		}
		path := filepath.Join(f.ontologyDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		o, err := decodeOntology(string(data), strings.TrimSuffix(e.Name(), ".ttl"), f.domain)
		if err != nil {
			f.logger.Warn("skipping ontology file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *Filesystem) SerializeOntology(_ context.Context, o *ontology.Ontology) error {
	if f.ontologyDir == "" {
		return nil
	}
	return writeAtomic(filepath.Join(f.ontologyDir, o.ID+".ttl"), o.Turtle())
}

func (f *Filesystem) SerializeFacts(_ context.Context, g *rdf.Graph, namespace string) error {
	if f.workingDir == "" {
		return nil
	}
	path := filepath.Join(f.workingDir, "facts_"+FactsName(namespace)+".ttl")
	return writeAtomic(path, FactsTurtle(g, namespace))
}

// writeAtomic writes through a temporary file so readers never see a partial
// document.
func writeAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
