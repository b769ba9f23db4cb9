// Package ontology keeps ontology metadata and ontology graphs consistent and
// provides the process-wide registry of known ontologies.
package ontology

import (
	"log/slog"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/maraichr/ontograph/internal/rdf"
)

// DefaultDomain is used when a record is created without a domain.
const DefaultDomain = "https://example.com"

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used for consistency warnings.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// Properties are the caller-supplied descriptive fields of an ontology. Empty
// strings mean "unknown".
type Properties struct {
	ID          string `json:"ontology_id,omitempty" yaml:"id"`
	Title       string `json:"title,omitempty" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Version     string `json:"version,omitempty" yaml:"version"`
	IRI         string `json:"iri,omitempty" yaml:"iri"`
}

// Ontology pairs structured metadata with the ontology's RDF graph. Records
// handed out by the registry are clones; use Merge and MergeGraph to combine
// records instead of editing shared values.
type Ontology struct {
	ID          string
	Title       string
	Description string
	Version     string
	IRI         string
	Domain      string
	Graph       *rdf.Graph
}

var null = &Ontology{ID: NullID, IRI: NullIRI, Domain: DefaultDomain, Graph: rdf.NewGraph()}

// Null returns a copy of the null ontology, the record standing for "no
// ontology selected".
func Null() *Ontology {
	return null.Clone()
}

// IsNull reports whether o is nil or the null ontology.
func (o *Ontology) IsNull() bool {
	return o == nil || o.ID == NullID
}

// New builds a record from properties and a graph, running the full
// graph-first synchronization. The graph is copied.
func New(props Properties, graph *rdf.Graph, domain string) *Ontology {
	if domain == "" {
		domain = DefaultDomain
	}
	o := &Ontology{
		ID:          props.ID,
		Title:       props.Title,
		Description: props.Description,
		Version:     props.Version,
		IRI:         props.IRI,
		Domain:      strings.TrimRight(domain, "/"),
		Graph:       graph.Clone(),
	}
	o.resolve()
	return o
}

// Clone returns a deep copy.
func (o *Ontology) Clone() *Ontology {
	if o == nil {
		return nil
	}
	c := *o
	c.Graph = o.Graph.Clone()
	return &c
}

// Properties returns the descriptive fields.
func (o *Ontology) Properties() Properties {
	return Properties{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Version:     o.Version,
		IRI:         o.IRI,
	}
}

// MissingProperties reports whether title, description or version is unset.
func (o *Ontology) MissingProperties() bool {
	return o.Title == "" || o.Description == "" || o.Version == ""
}

// SetProperties fills the fields that are currently empty from props and
// re-synchronizes the graph. Fields that already hold a value are kept.
func (o *Ontology) SetProperties(props Properties) {
	fillIfEmpty(&o.ID, props.ID)
	fillIfEmpty(&o.Title, props.Title)
	fillIfEmpty(&o.Description, props.Description)
	fillIfEmpty(&o.Version, props.Version)
	if o.IRI == "" || o.IRI == NullIRI {
		o.IRI = props.IRI
	}
	o.resolve()
}

// Namespace returns the namespace under which the ontology's terms live.
func (o *Ontology) Namespace() string {
	if o.IRI == "" {
		return ""
	}
	if strings.HasSuffix(o.IRI, "#") || strings.HasSuffix(o.IRI, "/") {
		return o.IRI
	}
	return o.IRI + "#"
}

// fallbackPrefix is bound to the ontology namespace when the id is not a
// legal Turtle prefix name.
const fallbackPrefix = "ns1"

var prefixNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Prefix returns the Turtle prefix for the ontology's namespace: the id when
// it is a valid prefix name, otherwise fallbackPrefix.
func (o *Ontology) Prefix() string {
	if prefixNameRe.MatchString(o.ID) {
		return o.ID
	}
	return fallbackPrefix
}

// Prefixes returns the standard prefixes plus the ontology's own. A standard
// prefix is never rebound.
func (o *Ontology) Prefixes() map[string]string {
	prefixes := make(map[string]string, len(rdf.StandardPrefixes)+1)
	for k, v := range rdf.StandardPrefixes {
		prefixes[k] = v
	}
	if !o.IsNull() && o.ID != "" && o.Namespace() != "" {
		if _, taken := prefixes[o.Prefix()]; !taken {
			prefixes[o.Prefix()] = o.Namespace()
		}
	}
	return prefixes
}

// Turtle serializes the ontology graph with Prefixes.
func (o *Ontology) Turtle() string {
	return o.Graph.Turtle(o.Prefixes())
}

func fillIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
