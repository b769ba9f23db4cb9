package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

type factsReply struct {
	Turtle          string  `json:"ttl"`
	RelevanceScore  float64 `json:"ontology_relevance_score"`
	GenerationScore float64 `json:"triples_generation_score"`
}

// ExtractFacts turns the chunk into a fact graph in the chunk's namespace.
func (a *Agent) ExtractFacts(ctx context.Context, req ingestion.FactsRequest) (*ingestion.Facts, error) {
	messages := []llm.Message{
		llm.System(factsSystemPrompt),
		llm.User(withFeedback(factsPrompt(req), string(ingestion.StageCritiqueFacts), req.Feedback)),
	}
	var reply factsReply
	if err := llm.CompleteJSON(ctx, a.llm, messages, &reply); err != nil {
		return nil, invalid(fmt.Errorf("extract facts: %w", err))
	}
	graph, err := rdf.ParseTurtle(reply.Turtle)
	if err != nil {
		return nil, invalid(fmt.Errorf("parse facts turtle: %w", err))
	}
	return &ingestion.Facts{
		Graph:           graph,
		RelevanceScore:  reply.RelevanceScore,
		GenerationScore: reply.GenerationScore,
	}, nil
}

func factsPrompt(req ingestion.FactsRequest) string {
	o := req.Ontology
	if o == nil {
		o = ontology.Null()
	}
	prefix, ns := o.Prefix(), o.Namespace()
	if o.IsNull() {
		prefix, ns = "schema", rdf.NSSchema
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, factsInstruction, req.Chunk.Namespace, req.Chunk.Namespace, ns, prefix)
	if !o.IsNull() {
		fmt.Fprintf(&sb, "\n\nDomain ontology:\n\n```ttl\n%s\n```", o.Turtle())
	}
	sb.WriteString("\n\n")
	sb.WriteString(documentBlock(req.Chunk.Text))
	return sb.String()
}

// CritiqueFacts reviews an extracted fact graph against the chunk.
func (a *Agent) CritiqueFacts(ctx context.Context, req ingestion.FactsRequest, facts *ingestion.Facts) (ingestion.Verdict, error) {
	var g *rdf.Graph
	if facts != nil {
		g = facts.Graph
	}
	if g == nil {
		g = rdf.NewGraph()
	}
	prefixes := map[string]string{}
	if o := req.Ontology; !o.IsNull() {
		prefixes = o.Prefixes()
	} else {
		for k, v := range rdf.StandardPrefixes {
			prefixes[k] = v
		}
	}
	prefixes["cd"] = req.Chunk.Namespace

	user := fmt.Sprintf("Extracted facts:\n\n```ttl\n%s\n```\n\n"+
		"Judge whether the triples represent every fact of the document, are atomic, correctly typed and use ontology terms where they exist.\n\n%s",
		g.Turtle(prefixes), documentBlock(req.Chunk.Text))

	var reply critiqueReply
	messages := []llm.Message{llm.System(critiqueSystemPrompt), llm.User(user)}
	if err := llm.CompleteJSON(ctx, a.llm, messages, &reply); err != nil {
		return ingestion.Verdict{}, invalid(fmt.Errorf("critique facts: %w", err))
	}
	return reply.verdict(), nil
}
