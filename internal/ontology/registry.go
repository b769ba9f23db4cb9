package ontology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/maraichr/ontograph/internal/rdf"
)

var (
	// ErrUnknownOntology is returned when an update targets an id the registry
	// does not hold.
	ErrUnknownOntology = errors.New("unknown ontology")
	// ErrDuplicateOntology is returned when adding an id that already exists.
	ErrDuplicateOntology = errors.New("duplicate ontology id")
)

// Fetcher supplies the initial contents of a registry.
type Fetcher interface {
	FetchOntologies(ctx context.Context) ([]*Ontology, error)
}

// Registry is the process-wide, ordered collection of known ontologies.
// Lookups return clones. Mutations of one id are serialized by a per-id lock
// that Commit also holds across its persist callback.
type Registry struct {
	mu         sync.RWMutex
	ontologies []*Ontology
	ids        sync.Map // id -> *sync.Mutex
	logger     *slog.Logger
}

func (r *Registry) lockID(id string) func() {
	l, _ := r.ids.LoadOrStore(id, &sync.Mutex{})
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// NewRegistry creates a registry holding copies of the given records.
func NewRegistry(logger *slog.Logger, initial ...*Ontology) *Registry {
	r := &Registry{logger: logger}
	for _, o := range initial {
		if err := r.Add(o); err != nil {
			logger.Warn("skipping ontology", slog.String("id", o.ID), slog.String("error", err.Error()))
		}
	}
	return r
}

// Load appends every ontology returned by f. Duplicates are skipped with a
// warning.
func (r *Registry) Load(ctx context.Context, f Fetcher) (int, error) {
	records, err := f.FetchOntologies(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch ontologies: %w", err)
	}
	n := 0
	for _, o := range records {
		if err := r.Add(o); err != nil {
			r.logger.Warn("skipping ontology", slog.String("id", o.ID), slog.String("error", err.Error()))
			continue
		}
		n++
	}
	return n, nil
}

// Add appends a copy of o.
func (r *Registry) Add(o *Ontology) error {
	if o.IsNull() {
		return fmt.Errorf("add ontology: null ontology cannot be registered")
	}
	defer r.lockID(o.ID)()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexLocked(o.ID) >= 0 {
		return fmt.Errorf("add ontology %s: %w", o.ID, ErrDuplicateOntology)
	}
	r.ontologies = append(r.ontologies, o.Clone())
	return nil
}

// Lookup finds an ontology by id and/or IRI. When both are given the id wins;
// an IRI whose derived id disagrees is logged.
func (r *Registry) Lookup(id, iri string) (*Ontology, bool) {
	if id != "" && iri != "" {
		if derived := DeriveID(iri); derived != id {
			r.logger.Warn("ontology lookup id does not match iri",
				slog.String("id", id),
				slog.String("iri", iri),
				slog.String("derived_id", derived))
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.ontologies {
		if id != "" && o.ID == id {
			return o.Clone(), true
		}
	}
	if iri != "" {
		for _, o := range r.ontologies {
			if o.IRI == iri {
				return o.Clone(), true
			}
		}
	}
	return nil, false
}

// Get is Lookup with the null ontology standing in for a miss.
func (r *Registry) Get(id, iri string) *Ontology {
	if o, ok := r.Lookup(id, iri); ok {
		return o
	}
	return Null()
}

// UpdateOntology merges an addendum graph into the ontology with the given id.
func (r *Registry) UpdateOntology(id string, addendum *rdf.Graph) error {
	defer r.lockID(id)()
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("update ontology %s: %w", id, ErrUnknownOntology)
	}
	r.ontologies[i] = MergeGraph(r.ontologies[i], addendum)
	return nil
}

// FillProperties applies SetProperties to the record with the given id.
func (r *Registry) FillProperties(id string, props Properties) error {
	defer r.lockID(id)()
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("fill properties %s: %w", id, ErrUnknownOntology)
	}
	c := r.ontologies[i].Clone()
	props.ID, props.IRI = "", ""
	c.SetProperties(props)
	r.ontologies[i] = c
	return nil
}

// Upsert merges o into the record with the same id, or appends it. It returns
// the stored result.
func (r *Registry) Upsert(o *Ontology) (*Ontology, error) {
	if o.IsNull() {
		return nil, fmt.Errorf("upsert ontology: null ontology cannot be registered")
	}
	defer r.lockID(o.ID)()
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(o.ID); i >= 0 {
		r.ontologies[i] = Merge(r.ontologies[i], o)
		return r.ontologies[i].Clone(), nil
	}
	r.ontologies = append(r.ontologies, o.Clone())
	return o.Clone(), nil
}

// Commit merges o into the record with the same id, or adds it, and passes
// the result to persist before the registry takes it. The id stays locked
// from the read to the write, so persist always sees every earlier commit of
// that id. When persist fails the registry is unchanged. persist may be nil.
func (r *Registry) Commit(o *Ontology, persist func(*Ontology) error) (*Ontology, error) {
	if o.IsNull() {
		return nil, fmt.Errorf("commit ontology: null ontology cannot be registered")
	}
	defer r.lockID(o.ID)()

	r.mu.RLock()
	merged := o.Clone()
	if i := r.indexLocked(o.ID); i >= 0 {
		merged = Merge(r.ontologies[i], o)
	}
	r.mu.RUnlock()

	if persist != nil {
		if err := persist(merged.Clone()); err != nil {
			return nil, fmt.Errorf("persist ontology %s: %w", o.ID, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(o.ID); i >= 0 {
		r.ontologies[i] = merged
	} else {
		r.ontologies = append(r.ontologies, merged)
	}
	return merged.Clone(), nil
}

// List returns copies of all records in registry order.
func (r *Registry) List() []*Ontology {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Ontology, len(r.ontologies))
	for i, o := range r.ontologies {
		out[i] = o.Clone()
	}
	return out
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ontologies)
}

func (r *Registry) indexLocked(id string) int {
	for i, o := range r.ontologies {
		if o.ID == id {
			return i
		}
	}
	return -1
}
