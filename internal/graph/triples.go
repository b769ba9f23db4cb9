package graph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/maraichr/ontograph/internal/rdf"
)

const batchSize = 500

// Kinds of named graphs.
const (
	KindOntology = "ontology"
	KindFacts    = "facts"
)

// WriteGraph replaces the statements of the named graph with g.
func (c *Client) WriteGraph(ctx context.Context, name, kind string, g *rdf.Graph) error {
	session := c.Session(ctx)
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, UpsertNamedGraph, map[string]any{"graph": name, "kind": kind}); err != nil {
			return struct{}{}, err
		}
		_, err := tx.Run(ctx, DeleteGraphTriples, map[string]any{"graph": name})
		return struct{}{}, err
	})
	if err != nil {
		return fmt.Errorf("reset graph %s: %w", name, err)
	}

	resources, literals := tripleParams(name, g.Triples())
	if err := c.writeBatches(ctx, session, name, UpsertResourceTriples, resources); err != nil {
		return fmt.Errorf("write resource triples: %w", err)
	}
	if err := c.writeBatches(ctx, session, name, UpsertLiteralTriples, literals); err != nil {
		return fmt.Errorf("write literal triples: %w", err)
	}
	return nil
}

func (c *Client) writeBatches(ctx context.Context, session neo4j.SessionWithContext, name, query string, params []map[string]any) error {
	for i := 0; i < len(params); i += batchSize {
		end := min(i+batchSize, len(params))
		batch := params[i:end]
		_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, query, map[string]any{"graph": name, "triples": batch})
			return struct{}{}, err
		})
		if err != nil {
			return fmt.Errorf("batch %d: %w", i/batchSize, err)
		}
	}
	return nil
}

// ReadGraphs returns every named graph of the given kind keyed by graph IRI.
func (c *Client) ReadGraphs(ctx context.Context, kind string) (map[string]*rdf.Graph, error) {
	session := c.readSession(ctx)
	defer session.Close(ctx)

	names, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]string, error) {
		res, err := tx.Run(ctx, ListNamedGraphs, map[string]any{"kind": kind})
		if err != nil {
			return nil, err
		}
		var out []string
		for res.Next(ctx) {
			if iri, ok := res.Record().Get("iri"); ok {
				if s, ok := iri.(string); ok {
					out = append(out, s)
				}
			}
		}
		return out, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list %s graphs: %w", kind, err)
	}

	graphs := make(map[string]*rdf.Graph, len(names))
	for _, name := range names {
		g, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (*rdf.Graph, error) {
			res, err := tx.Run(ctx, GraphTriples, map[string]any{"graph": name})
			if err != nil {
				return nil, err
			}
			g := rdf.NewGraph()
			for res.Next(ctx) {
				if t, ok := recordTriple(res.Record().AsMap()); ok {
					g.Add(t)
				}
			}
			return g, res.Err()
		})
		if err != nil {
			return nil, fmt.Errorf("read graph %s: %w", name, err)
		}
		graphs[name] = g
	}
	return graphs, nil
}

// tripleParams splits triples into resource-object and literal-object query
// parameters.
func tripleParams(graphName string, triples []rdf.Triple) (resources, literals []map[string]any) {
	for _, t := range triples {
		p := map[string]any{
			"s":      resourceKey(graphName, t.S),
			"sIRI":   iriOrNil(t.S),
			"sLabel": blankLabel(t.S),
			"p":      t.P.Value,
		}
		if t.O.IsLiteral() {
			p["value"] = t.O.Value
			p["datatype"] = t.O.Datatype
			p["lang"] = t.O.Lang
			literals = append(literals, p)
			continue
		}
		p["o"] = resourceKey(graphName, t.O)
		p["oIRI"] = iriOrNil(t.O)
		p["oLabel"] = blankLabel(t.O)
		resources = append(resources, p)
	}
	return resources, literals
}

// resourceKey scopes blank nodes to their graph so labels from different
// documents never collide.
func resourceKey(graphName string, t rdf.Term) string {
	if t.IsBlank() {
		sum := sha256.Sum256([]byte(graphName))
		return "_:" + hex.EncodeToString(sum[:6]) + ":" + t.Value
	}
	return t.Value
}

func iriOrNil(t rdf.Term) any {
	if t.IsIRI() {
		return t.Value
	}
	return nil
}

func blankLabel(t rdf.Term) any {
	if t.IsBlank() {
		return t.Value
	}
	return nil
}

// recordTriple rebuilds a triple from a GraphTriples row.
func recordTriple(row map[string]any) (rdf.Triple, bool) {
	subj, ok := recordResource(row["sIRI"], row["sLabel"])
	if !ok {
		return rdf.Triple{}, false
	}
	pred, _ := row["p"].(string)
	if pred == "" {
		return rdf.Triple{}, false
	}

	var obj rdf.Term
	if value, isLit := row["value"].(string); isLit {
		datatype, _ := row["datatype"].(string)
		lang, _ := row["lang"].(string)
		switch {
		case lang != "":
			obj = rdf.LangLiteral(value, lang)
		case datatype != "":
			obj = rdf.TypedLiteral(value, datatype)
		default:
			obj = rdf.Literal(value)
		}
	} else if obj, ok = recordResource(row["oIRI"], row["oLabel"]); !ok {
		return rdf.Triple{}, false
	}
	return rdf.T(subj, rdf.IRI(pred), obj), true
}

func recordResource(iri, label any) (rdf.Term, bool) {
	if s, ok := iri.(string); ok && s != "" {
		return rdf.IRI(s), true
	}
	if s, ok := label.(string); ok && s != "" {
		return rdf.Blank(s), true
	}
	return rdf.Term{}, false
}
