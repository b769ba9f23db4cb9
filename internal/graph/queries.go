package graph

// Cypher query constants for Neo4j operations.
//
// Triples are stored per named graph: IRIs and blank nodes become :Resource
// nodes keyed by "key", literals become :Literal nodes, and every statement is
// a :TRIPLE relationship carrying its predicate and graph IRI.
const (
	CreateConstraintResourceKey   = `CREATE CONSTRAINT resource_key IF NOT EXISTS FOR (r:Resource) REQUIRE r.key IS UNIQUE`
	CreateConstraintNamedGraphIRI = `CREATE CONSTRAINT named_graph_iri IF NOT EXISTS FOR (g:NamedGraph) REQUIRE g.iri IS UNIQUE`

	// UpsertNamedGraph records a graph and its kind ("ontology" or "facts").
	UpsertNamedGraph = `
MERGE (g:NamedGraph {iri: $graph})
SET g.kind = $kind,
    g.updatedAt = datetime()
`

	// DeleteGraphTriples removes the statements of one graph. Nodes are kept
	// since other graphs may reference them.
	DeleteGraphTriples = `
MATCH ()-[r:TRIPLE {graph: $graph}]->()
DELETE r
`

	// UpsertResourceTriples merges statements whose object is a resource.
	UpsertResourceTriples = `
UNWIND $triples AS t
MERGE (s:Resource {key: t.s})
  ON CREATE SET s.iri = t.sIRI, s.label = t.sLabel
MERGE (o:Resource {key: t.o})
  ON CREATE SET o.iri = t.oIRI, o.label = t.oLabel
MERGE (s)-[:TRIPLE {predicate: t.p, graph: $graph}]->(o)
`

	// UpsertLiteralTriples merges statements whose object is a literal.
	UpsertLiteralTriples = `
UNWIND $triples AS t
MERGE (s:Resource {key: t.s})
  ON CREATE SET s.iri = t.sIRI, s.label = t.sLabel
MERGE (l:Literal {value: t.value, datatype: t.datatype, lang: t.lang})
MERGE (s)-[:TRIPLE {predicate: t.p, graph: $graph}]->(l)
`

	// ListNamedGraphs returns the graphs of one kind.
	ListNamedGraphs = `
MATCH (g:NamedGraph {kind: $kind})
RETURN g.iri AS iri
ORDER BY iri
`

	// GraphTriples returns every statement of one graph.
	GraphTriples = `
MATCH (s:Resource)-[r:TRIPLE {graph: $graph}]->(o)
RETURN s.iri AS sIRI, s.label AS sLabel, r.predicate AS p,
       o.iri AS oIRI, o.label AS oLabel,
       o.value AS value, o.datatype AS datatype, o.lang AS lang
`
)
