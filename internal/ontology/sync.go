package ontology

import (
	"log/slog"
	"strings"

	"github.com/maraichr/ontograph/internal/rdf"
)

var (
	typePred    = rdf.IRI(rdf.RDFType)
	ontologyCls = rdf.IRI(rdf.OWLOntology)
	labelPred   = rdf.IRI(rdf.RDFSLabel)
	commentPred = rdf.IRI(rdf.RDFSComment)
	titlePred   = rdf.IRI(rdf.DCTermsTitle)
	descPred    = rdf.IRI(rdf.DCTermsDesc)
	versionPred = rdf.IRI(rdf.OWLVersionInfo)
)

// resolve runs the two-phase synchronization: graph-declared identity first,
// caller identity as fallback, then write everything back to the graph.
func (o *Ontology) resolve() {
	if o.Graph == nil {
		o.Graph = rdf.NewGraph()
	}
	if !o.syncFromGraph() {
		o.fixIdentity()
	}
	o.syncToGraph()
}

// syncFromGraph reads identity and descriptive fields from the owl:Ontology
// subject. It reports whether the graph supplied a valid (id, iri) pair.
func (o *Ontology) syncFromGraph() bool {
	subj, ok := o.ontologySubject()
	if !ok {
		return false
	}

	o.IRI = subj.Value
	o.ID = DeriveID(subj.Value)

	if o.Title == "" {
		o.Title = o.literal(subj, labelPred, titlePred)
	}
	if o.Description == "" {
		o.Description = o.literal(subj, descPred, commentPred)
	}
	if o.Version == "" {
		o.Version = o.literal(subj, versionPred)
	}
	return o.ID != NullID && o.IRI != "" && o.IRI != NullIRI
}

// fixIdentity enforces iri == domain/id when the graph did not decide. A
// caller-supplied id is cleaned the same way derived ids are.
func (o *Ontology) fixIdentity() {
	if o.ID != "" && o.ID != NullID {
		o.ID = cleanID(o.ID)
	}
	switch {
	case o.ID != "" && o.ID != NullID && (o.IRI == "" || o.IRI == NullIRI):
		o.IRI = o.Domain + "/" + o.ID
	case o.ID != "" && o.ID != NullID && o.IRI != "":
		want := o.Domain + "/" + o.ID
		if strings.TrimRight(o.IRI, "/#") != want {
			logger().Warn("ontology iri does not match id, correcting",
				slog.String("id", o.ID),
				slog.String("iri", o.IRI),
				slog.String("corrected_iri", want))
			o.IRI = want
		}
	case o.ID == "" && o.IRI != "" && o.IRI != NullIRI:
		o.ID = DeriveID(o.IRI)
	}
}

// syncToGraph makes sure the graph declares the ontology and carries the
// descriptive fields. Existing statements are never replaced.
func (o *Ontology) syncToGraph() {
	if o.IsNull() || o.IRI == "" || o.IRI == NullIRI {
		return
	}

	subj, ok := o.ontologySubject()
	if !ok {
		subj = rdf.IRI(o.IRI)
		o.Graph.Add(rdf.T(subj, typePred, ontologyCls))
	}

	o.addIfMissing(subj, labelPred, o.Title)
	o.addIfMissing(subj, titlePred, o.ID)
	o.addIfMissing(subj, descPred, o.Description)
	o.addIfMissing(subj, commentPred, o.Description)
	o.addIfMissing(subj, versionPred, o.Version)
}

// ontologySubject returns the owl:Ontology subject. When several are declared
// the one equal to the current IRI wins, otherwise the first in stable order.
func (o *Ontology) ontologySubject() (rdf.Term, bool) {
	subjects := o.Graph.Subjects(typePred, ontologyCls)
	var first rdf.Term
	found := false
	for _, s := range subjects {
		if !s.IsIRI() {
			continue
		}
		if s.Value == o.IRI {
			return s, true
		}
		if !found {
			first, found = s, true
		}
	}
	return first, found
}

func (o *Ontology) literal(subj rdf.Term, preds ...rdf.Term) string {
	for _, p := range preds {
		if v, ok := o.Graph.Object(subj, p); ok && v.IsLiteral() && v.Value != "" {
			return v.Value
		}
	}
	return ""
}

func (o *Ontology) addIfMissing(subj, pred rdf.Term, value string) {
	if value == "" || o.Graph.HasPredicate(subj, pred) {
		return
	}
	o.Graph.Add(rdf.T(subj, pred, rdf.Literal(value)))
}
