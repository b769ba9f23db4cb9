package agent

import (
	"fmt"
	"strings"

	"github.com/maraichr/ontograph/internal/ontology"
)

const selectSystemPrompt = `You match text excerpts to domain ontologies. Reply with ONLY a JSON object: {"answer_index": <number>}. No explanation, no markdown.`

const developSystemPrompt = `You are an ontology engineer. You design OWL/RDFS domain ontologies in Turtle.
Reply with ONLY a JSON object with the keys:
  "ontology_id": short lowercase identifier, e.g. "fin" for a finance ontology
  "title": human readable title
  "description": one paragraph describing the ontology's scope
  "version": semantic version, e.g. "1.0.0"
  "iri": the ontology IRI
  "ttl": the complete ontology in Turtle as a single string
No explanation outside the JSON.`

const freshInstruction = `Propose a new domain ontology based on the document below. The document is only an example: the ontology name, identifier and scope must be at least one level of abstraction above it.

1. Link every new class or property to the basic vocabularies (rdfs:Class, rdfs:subClassOf, rdf:Property, rdfs:domain, owl:Restriction, schema:Person, schema:Organization and so on).
2. Choose a succinct abbreviation as "ontology_id".
3. Derive the IRI from the identifier under the domain %s, for example %s/abc.
4. Declare @prefix co: <IRI#> and place all new terms in the co: namespace.`

const updateInstruction = `Complement the domain ontology <%s> below with abstract entities and relations that can be inferred from the document. You may improve the title and description, but keep "ontology_id" = %q and "iri" = %q.

%s

` + "```ttl\n%s\n```" + `

Link every new class or property to terms of <%s> or of the basic vocabularies. Add constraints and axioms where needed.`

const ontologyRules = `Rules:
1. Declare every prefix you use (rdf, rdfs, owl, schema and so on).
2. Reuse well known domain ontologies where you know them (for example FIBO in finance).
3. Do not add facts or concrete entities from the document.
4. Describe every new entity by its properties.
5. Bump the version using semantic versioning when you change the ontology.`

const critiqueSystemPrompt = `You are a strict reviewer of knowledge graph artifacts.
Reply with ONLY a JSON object:
  "success": true if the artifact is satisfactory, false otherwise
  "score": 0-100, 100 is best
  "critique": when not satisfactory, a concrete and specific list of the issues to fix
No explanation outside the JSON.`

const factsSystemPrompt = `You extract facts from text as RDF triples in Turtle.
Reply with ONLY a JSON object with the keys:
  "ttl": the facts in Turtle as a single string, prefixes declared, no comments
  "ontology_relevance_score": 0-100, how well the ontology covers the text
  "triples_generation_score": 0-100, how well the triples represent the text
No explanation outside the JSON.`

const factsInstruction = `Generate triples for the facts (concrete entities, not abstract classes) in the text.

1. Define facts in the namespace <%s> using @prefix cd: <%s> .
2. Use the domain ontology <%s> (prefix %s:) and the standard vocabularies to type and relate entities.
3. Every cd: entity must have an rdf:type from the domain ontology or a basic vocabulary.
4. Prefer ontology IRIs: never mint a cd: IRI for a term the ontologies already define.
5. Decompose complex facts into atomic statements.
6. Type literals with xsd datatypes. Dates are ISO 8601, numbers are typed, amounts carry schema:priceCurrency.
7. Describe tables with CSV on the Web (csvw).`

const summarizeSystemPrompt = `You summarize ontologies. Reply with ONLY a JSON object with the keys "title", "description" and "version". No explanation, no markdown.`

func describeOntology(o *ontology.Ontology) string {
	return fmt.Sprintf("Ontology id: %s\nTitle: %s\nDescription: %s\nOntology IRI: %s", o.ID, o.Title, o.Description, o.IRI)
}

func numberedOntologies(candidates []*ontology.Ontology) string {
	var sb strings.Builder
	for i, o := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n\n", i+1, describeOntology(o))
	}
	fmt.Fprintf(&sb, "%d. None of the ontologies matches the text", len(candidates)+1)
	return sb.String()
}

func withFeedback(prompt, stage, feedback string) string {
	if feedback == "" {
		return prompt
	}
	return prompt + fmt.Sprintf(`

IMPORTANT: the previous attempt failed at the stage %s.

%s

Address ALL the issues raised above.`, stage, feedback)
}

func documentBlock(text string) string {
	return "Here is the document:\n\n```\n" + text + "\n```"
}
