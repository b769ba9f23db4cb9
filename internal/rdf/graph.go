package rdf

import "sort"

// Graph is a set of triples. The zero value is not usable; use NewGraph.
// A Graph is not safe for concurrent mutation.
type Graph struct {
	triples map[Triple]struct{}
}

// NewGraph returns a graph containing the given triples.
func NewGraph(ts ...Triple) *Graph {
	g := &Graph{triples: make(map[Triple]struct{}, len(ts))}
	for _, t := range ts {
		g.triples[t] = struct{}{}
	}
	return g
}

// Add inserts a triple. It reports whether the triple was new.
func (g *Graph) Add(t Triple) bool {
	if _, ok := g.triples[t]; ok {
		return false
	}
	g.triples[t] = struct{}{}
	return true
}

// Remove deletes a triple if present.
func (g *Graph) Remove(t Triple) {
	delete(g.triples, t)
}

// Has reports set membership.
func (g *Graph) Has(t Triple) bool {
	if g == nil {
		return false
	}
	_, ok := g.triples[t]
	return ok
}

// Len returns the number of triples. A nil graph is empty.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.triples)
}

// Triples returns all triples in a stable order.
func (g *Graph) Triples() []Triple {
	if g == nil {
		return nil
	}
	out := make([]Triple, 0, len(g.triples))
	for t := range g.triples {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return lessTriple(out[i], out[j]) })
	return out
}

// AddAll inserts every triple of other into g and returns the number added.
func (g *Graph) AddAll(other *Graph) int {
	if other == nil {
		return 0
	}
	n := 0
	for t := range other.triples {
		if g.Add(t) {
			n++
		}
	}
	return n
}

// Clone returns an independent copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{triples: make(map[Triple]struct{}, g.Len())}
	if g != nil {
		for t := range g.triples {
			c.triples[t] = struct{}{}
		}
	}
	return c
}

// Union returns a new graph holding the triples of both graphs.
func Union(a, b *Graph) *Graph {
	out := a.Clone()
	out.AddAll(b)
	return out
}

// Equal reports whether both graphs contain the same triples.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	if g == nil {
		return true
	}
	for t := range g.triples {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// Match returns the triples matching the pattern. A zero Term matches anything.
func (g *Graph) Match(s, p, o Term) []Triple {
	var out []Triple
	for _, t := range g.Triples() {
		if !s.IsZero() && t.S != s {
			continue
		}
		if !p.IsZero() && t.P != p {
			continue
		}
		if !o.IsZero() && t.O != o {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Subjects returns the distinct subjects having predicate p with object o.
func (g *Graph) Subjects(p, o Term) []Term {
	seen := make(map[Term]bool)
	var out []Term
	for _, t := range g.Match(Term{}, p, o) {
		if !seen[t.S] {
			seen[t.S] = true
			out = append(out, t.S)
		}
	}
	return out
}

// Object returns the first object of (s, p, ?) in stable order.
func (g *Graph) Object(s, p Term) (Term, bool) {
	ms := g.Match(s, p, Term{})
	if len(ms) == 0 {
		return Term{}, false
	}
	return ms[0].O, true
}

// HasPredicate reports whether s has at least one value for p.
func (g *Graph) HasPredicate(s, p Term) bool {
	if g == nil {
		return false
	}
	for t := range g.triples {
		if t.S == s && t.P == p {
			return true
		}
	}
	return false
}

// Map returns a new graph with fn applied to every term.
func (g *Graph) Map(fn func(Term) Term) *Graph {
	out := NewGraph()
	if g == nil {
		return out
	}
	for t := range g.triples {
		out.Add(Triple{S: fn(t.S), P: fn(t.P), O: fn(t.O)})
	}
	return out
}

func lessTriple(a, b Triple) bool {
	if a.S != b.S {
		return lessTerm(a.S, b.S)
	}
	if a.P != b.P {
		return lessTerm(a.P, b.P)
	}
	return lessTerm(a.O, b.O)
}

func lessTerm(a, b Term) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	if a.Datatype != b.Datatype {
		return a.Datatype < b.Datatype
	}
	return a.Lang < b.Lang
}
