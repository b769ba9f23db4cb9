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

type ontologyReply struct {
	ontology.Properties
	Turtle string `json:"ttl"`
}

// DevelopOntology asks for a fresh ontology, or for an update of the current
// one when it is not null. Updates keep the current identity.
func (a *Agent) DevelopOntology(ctx context.Context, req ingestion.OntologyRequest) (*ontology.Ontology, error) {
	messages := []llm.Message{
		llm.System(developSystemPrompt),
		llm.User(withFeedback(developPrompt(req), string(ingestion.StageCritiqueOntology), req.Feedback)),
	}
	var reply ontologyReply
	if err := llm.CompleteJSON(ctx, a.llm, messages, &reply); err != nil {
		return nil, invalid(fmt.Errorf("develop ontology: %w", err))
	}

	graph, err := rdf.ParseTurtle(reply.Turtle)
	if err != nil {
		return nil, invalid(fmt.Errorf("parse ontology turtle: %w", err))
	}

	props := reply.Properties
	cur := req.Current
	if !cur.IsNull() {
		props.ID, props.IRI = cur.ID, cur.IRI
	}

	o := ontology.New(props, graph, req.Domain)
	if o.IsNull() || o.ID == "" {
		return nil, fmt.Errorf("%w: ontology without identifier", ingestion.ErrInvalidOutput)
	}
	if !cur.IsNull() && o.ID != cur.ID {
		return nil, fmt.Errorf("%w: update declares ontology %s, expected %s", ingestion.ErrInvalidOutput, o.IRI, cur.IRI)
	}
	return o, nil
}

func developPrompt(req ingestion.OntologyRequest) string {
	var instruction string
	if cur := req.Current; cur.IsNull() {
		instruction = fmt.Sprintf(freshInstruction, req.Domain, req.Domain)
	} else {
		instruction = fmt.Sprintf(updateInstruction,
			cur.IRI, cur.ID, cur.IRI, describeOntology(cur), cur.Turtle(), cur.Namespace())
	}
	return instruction + "\n\n" + ontologyRules + "\n\n" + documentBlock(req.Chunk.Text)
}

// CritiqueOntology reviews a candidate update against the chunk it came from.
func (a *Agent) CritiqueOntology(ctx context.Context, req ingestion.OntologyRequest, candidate *ontology.Ontology) (ingestion.Verdict, error) {
	var sb strings.Builder
	if cur := req.Current; !cur.IsNull() {
		fmt.Fprintf(&sb, "Original ontology:\n\n```ttl\n%s\n```\n\n", cur.Turtle())
	}
	fmt.Fprintf(&sb, "Proposed ontology (%s):\n\n```ttl\n%s\n```\n\n", candidate.ID, candidate.Turtle())
	sb.WriteString("Judge whether the proposed ontology faithfully and completely captures the abstract entities and relations of the document, ")
	sb.WriteString("links new terms to existing vocabularies and contains no concrete facts.\n\n")
	sb.WriteString(documentBlock(req.Chunk.Text))

	var reply critiqueReply
	messages := []llm.Message{llm.System(critiqueSystemPrompt), llm.User(sb.String())}
	if err := llm.CompleteJSON(ctx, a.llm, messages, &reply); err != nil {
		return ingestion.Verdict{}, invalid(fmt.Errorf("critique ontology: %w", err))
	}
	return reply.verdict(), nil
}
