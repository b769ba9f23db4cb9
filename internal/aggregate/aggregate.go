// Package aggregate merges chunk-level fact graphs into one document graph.
package aggregate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// ChunkGraph is the extraction output of one chunk.
type ChunkGraph struct {
	Index     int
	Namespace string // namespace the chunk minted entities under
	Graph     *rdf.Graph
}

// Input describes one aggregation.
type Input struct {
	Chunks       []ChunkGraph
	DocNamespace string
	Ontology     *ontology.Ontology
}

// Result is the merged document graph plus counters for observability.
type Result struct {
	Graph       *rdf.Graph
	TripleCount int
	Remapped    int // document IRIs replaced by an existing vocabulary IRI
	Collapsed   int // truncated literal duplicates removed
	Dropped     int // triples removed by sanitization
}

// Aggregator merges chunk graphs. It holds no per-document state and is safe
// for concurrent use.
type Aggregator struct {
	vocabularies []string
	logger       *slog.Logger
}

// New creates an Aggregator that treats the standard vocabularies plus extra
// as canonical namespaces.
func New(logger *slog.Logger, extra ...string) *Aggregator {
	vocab := append(rdf.StandardNamespaces(), extra...)
	sort.Strings(vocab)
	return &Aggregator{vocabularies: vocab, logger: logger}
}

// Aggregate sanitizes, disambiguates and unions the chunk graphs. The result
// does not depend on the order of in.Chunks.
func (a *Aggregator) Aggregate(in Input) Result {
	var res Result
	prepared := make([]*rdf.Graph, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		clean, dropped := Sanitize(c.Graph)
		res.Dropped += dropped
		g := skolemize(clean, c.Index, in.DocNamespace)
		g = rehome(g, c.Namespace, in.DocNamespace)
		prepared = append(prepared, g)
	}

	canon := a.canonicalIndex(prepared, in.Ontology, in.DocNamespace)
	mapping := make(map[string]string)
	merged := rdf.NewGraph()
	for _, g := range prepared {
		merged.AddAll(g.Map(func(t rdf.Term) rdf.Term {
			if !t.IsIRI() || !strings.HasPrefix(t.Value, in.DocNamespace) || in.DocNamespace == "" {
				return t
			}
			target, ok := canon[strings.ToLower(rdf.LocalName(t.Value))]
			if !ok || target == t.Value {
				return t
			}
			mapping[t.Value] = target
			return rdf.IRI(target)
		}))
	}
	res.Remapped = len(mapping)

	res.Collapsed = collapseTruncated(merged)
	res.Graph = merged
	res.TripleCount = merged.Len()

	a.logger.Debug("aggregated facts",
		slog.Int("chunks", len(in.Chunks)),
		slog.Int("triples", res.TripleCount),
		slog.Int("remapped", res.Remapped),
		slog.Int("collapsed", res.Collapsed),
		slog.Int("dropped", res.Dropped))
	return res
}

// canonicalIndex maps lower-cased local names to the preferred existing IRI.
// Ontology IRIs beat vocabulary IRIs; ties go to the lexicographically
// smallest IRI.
func (a *Aggregator) canonicalIndex(graphs []*rdf.Graph, onto *ontology.Ontology, docNS string) map[string]string {
	type cand struct {
		iri  string
		rank int
	}
	best := make(map[string]cand)
	offer := func(iri string, rank int) {
		if docNS != "" && strings.HasPrefix(iri, docNS) {
			return
		}
		local := rdf.LocalName(iri)
		if local == "" {
			return
		}
		key := strings.ToLower(local)
		cur, ok := best[key]
		if !ok || rank < cur.rank || (rank == cur.rank && iri < cur.iri) {
			best[key] = cand{iri: iri, rank: rank}
		}
	}

	if onto != nil && !onto.IsNull() {
		ns := onto.Namespace()
		for _, t := range onto.Graph.Triples() {
			for _, term := range []rdf.Term{t.S, t.P, t.O} {
				if term.IsIRI() && (strings.HasPrefix(term.Value, ns) || strings.HasPrefix(term.Value, onto.IRI)) {
					offer(term.Value, 0)
				}
			}
		}
	}
	for _, g := range graphs {
		for _, t := range g.Triples() {
			for _, term := range []rdf.Term{t.S, t.P, t.O} {
				if term.IsIRI() && a.isVocabulary(term.Value) {
					offer(term.Value, 1)
				}
			}
		}
	}

	out := make(map[string]string, len(best))
	for k, c := range best {
		out[k] = c.iri
	}
	return out
}

func (a *Aggregator) isVocabulary(iri string) bool {
	for _, ns := range a.vocabularies {
		if strings.HasPrefix(iri, ns) {
			return true
		}
	}
	return false
}

// skolemize replaces blank nodes with document IRIs derived from the chunk
// index and label, so graphs from different chunks cannot collide.
func skolemize(g *rdf.Graph, index int, docNS string) *rdf.Graph {
	if docNS == "" {
		return g
	}
	return g.Map(func(t rdf.Term) rdf.Term {
		if !t.IsBlank() {
			return t
		}
		sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", index, t.Value)))
		return rdf.IRI(docNS + "genid-" + hex.EncodeToString(sum[:8]))
	})
}

// rehome moves IRIs minted under the chunk namespace into the document
// namespace.
func rehome(g *rdf.Graph, from, to string) *rdf.Graph {
	if from == "" || to == "" || from == to {
		return g
	}
	return g.Map(func(t rdf.Term) rdf.Term {
		if t.IsIRI() && strings.HasPrefix(t.Value, from) && len(t.Value) > len(from) {
			return rdf.IRI(to + t.Value[len(from):])
		}
		return t
	})
}

// collapseTruncated removes string literals that are a strict prefix or
// suffix of another literal on the same subject and predicate. It returns
// the number removed.
func collapseTruncated(g *rdf.Graph) int {
	type key struct{ s, p rdf.Term }
	groups := make(map[key][]rdf.Term)
	for _, t := range g.Triples() {
		if t.O.IsLiteral() && t.O.Datatype == "" {
			k := key{t.S, t.P}
			groups[k] = append(groups[k], t.O)
		}
	}

	removed := 0
	for k, lits := range groups {
		if len(lits) < 2 {
			continue
		}
		for _, short := range lits {
			for _, long := range lits {
				if long.Lang != short.Lang || len(long.Value) <= len(short.Value) {
					continue
				}
				if strings.HasPrefix(long.Value, short.Value) || strings.HasSuffix(long.Value, short.Value) {
					g.Remove(rdf.T(k.s, k.p, short))
					removed++
					break
				}
			}
		}
	}
	return removed
}
