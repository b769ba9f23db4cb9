package ontology

import "github.com/maraichr/ontograph/internal/rdf"

// Merge returns a new record whose graph is the union of both graphs and whose
// descriptive fields are taken wholesale from the addendum b. Neither input is
// modified.
func Merge(a, b *Ontology) *Ontology {
	if b == nil {
		return a.Clone()
	}
	var base *rdf.Graph
	if a != nil {
		base = a.Graph
	}
	domain := b.Domain
	if domain == "" && a != nil {
		domain = a.Domain
	}
	return &Ontology{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Version:     b.Version,
		IRI:         b.IRI,
		Domain:      domain,
		Graph:       rdf.Union(base, b.Graph),
	}
}

// MergeGraph returns a copy of o with g's triples added. Properties are kept.
func MergeGraph(o *Ontology, g *rdf.Graph) *Ontology {
	c := o.Clone()
	c.Graph.AddAll(g)
	return c
}
