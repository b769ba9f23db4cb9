package aggregate

import (
	"strings"

	"github.com/maraichr/ontograph/internal/rdf"
)

// Sanitize returns a copy of g without malformed triples and without
// references to blank nodes that are never described. It also returns how
// many triples were dropped.
func Sanitize(g *rdf.Graph) (*rdf.Graph, int) {
	out := rdf.NewGraph()
	if g == nil {
		return out, 0
	}
	for _, t := range g.Triples() {
		if wellFormed(t) {
			out.Add(t)
		}
	}

	// Dropping a triple can orphan another blank node, so iterate.
	for {
		described := make(map[rdf.Term]bool)
		for _, t := range out.Triples() {
			if t.S.IsBlank() {
				described[t.S] = true
			}
		}
		changed := false
		for _, t := range out.Triples() {
			if t.O.IsBlank() && !described[t.O] {
				out.Remove(t)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return out, g.Len() - out.Len()
}

func wellFormed(t rdf.Triple) bool {
	switch {
	case t.S.IsIRI():
		if !rdf.ValidIRI(t.S.Value) {
			return false
		}
	case t.S.IsBlank():
		if t.S.Value == "" {
			return false
		}
	default:
		return false
	}

	if !t.P.IsIRI() || !rdf.ValidIRI(t.P.Value) {
		return false
	}

	switch {
	case t.O.IsIRI():
		return rdf.ValidIRI(t.O.Value)
	case t.O.IsBlank():
		return t.O.Value != ""
	case t.O.IsLiteral():
		return strings.TrimSpace(t.O.Value) != ""
	}
	return false
}
