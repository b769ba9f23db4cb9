package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// scripted replays canned replies and records the prompts it was given.
type scripted struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (s *scripted) Complete(_ context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, messages[len(messages)-1].Content)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply left")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scripted) Model() string { return "scripted" }

func (s *scripted) lastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompts[len(s.prompts)-1]
}

func reply(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return "```json\n" + string(b) + "\n```"
}

func newAgent(c llm.Completer) *Agent {
	return New(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testChunk() *ingestion.Chunk {
	return &ingestion.Chunk{
		Index:     0,
		Text:      "Acme Corp opened a store in Lyon on 2024-01-15.",
		IRI:       "https://example.com/doc/abc/chunk/def",
		Namespace: "https://example.com/doc/abc/chunk/def#",
	}
}

const retailTTL = `@prefix owl: <http://www.w3.org/2002/07/owl#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .
@prefix co: <https://example.com/retail#> .
<https://example.com/retail> a owl:Ontology .
co:Store a rdfs:Class .
`

func retail(t *testing.T) *ontology.Ontology {
	t.Helper()
	g, err := rdf.ParseTurtle(retailTTL)
	require.NoError(t, err)
	return ontology.New(ontology.Properties{Title: "Retail", Description: "Shops", Version: "1.0.0"}, g, "https://example.com")
}

func TestSelectOntology(t *testing.T) {
	candidates := []*ontology.Ontology{
		ontology.New(ontology.Properties{ID: "fin", Description: "finance"}, nil, ""),
		ontology.New(ontology.Properties{ID: "retail", Description: "shops"}, nil, ""),
	}

	tests := []struct {
		name    string
		reply   string
		want    int
		invalid bool
	}{
		{"second", `{"answer_index": 2}`, 1, false},
		{"none option", `{"answer_index": 3}`, -1, false},
		{"out of range", `{"answer_index": 0}`, -1, true},
		{"garbage", `I think the second one`, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scripted{replies: []string{tt.reply}}
			got, err := newAgent(c).SelectOntology(context.Background(), testChunk(), candidates)
			if tt.invalid {
				require.ErrorIs(t, err, ingestion.ErrInvalidOutput)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Contains(t, c.lastPrompt(), "3. None of the ontologies matches the text")
			assert.Contains(t, c.lastPrompt(), "1. Ontology id: fin")
		})
	}
}

func TestSelectOntologyNoCandidates(t *testing.T) {
	c := &scripted{}
	got, err := newAgent(c).SelectOntology(context.Background(), testChunk(), nil)
	require.NoError(t, err)
	assert.Equal(t, -1, got)
	assert.Empty(t, c.prompts)
}

func TestSelectOntologyTransportError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := newAgent(&scripted{err: boom}).SelectOntology(context.Background(), testChunk(), []*ontology.Ontology{retail(t)})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ingestion.ErrInvalidOutput)
}

func TestExcerpt(t *testing.T) {
	short := "short text"
	assert.Equal(t, short, excerpt(short))

	long := strings.Repeat("é", excerptLength)
	got := excerpt(long)
	assert.True(t, strings.HasSuffix(got, " ..."))
	assert.LessOrEqual(t, len(got), excerptLength+4)
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(got, " ...")))
}

func TestDevelopOntologyFresh(t *testing.T) {
	c := &scripted{replies: []string{reply(t, map[string]any{
		"title":       "Retail Ontology",
		"description": "Stores and their openings",
		"version":     "0.1.0",
		"ttl":         retailTTL,
	})}}
	req := ingestion.OntologyRequest{Chunk: testChunk(), Current: ontology.Null(), Domain: "https://example.com"}

	o, err := newAgent(c).DevelopOntology(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "retail", o.ID)
	assert.Equal(t, "https://example.com/retail", o.IRI)
	assert.Equal(t, "Retail Ontology", o.Title)
	assert.True(t, o.Graph.Has(rdf.T(rdf.IRI("https://example.com/retail#Store"), rdf.IRI(rdf.RDFType), rdf.IRI(rdf.NSRDFS+"Class"))))
	assert.Contains(t, c.lastPrompt(), "Propose a new domain ontology")
	assert.NotContains(t, c.lastPrompt(), "previous attempt failed")
}

func TestDevelopOntologyUpdateKeepsIdentity(t *testing.T) {
	cur := retail(t)
	update := retailTTL + "co:Shelf a rdfs:Class .\n"
	c := &scripted{replies: []string{reply(t, map[string]any{
		"ontology_id": "shop",
		"iri":         "https://example.com/shop",
		"ttl":         update,
	})}}
	req := ingestion.OntologyRequest{Chunk: testChunk(), Current: cur, Domain: "https://example.com", Feedback: "missing shelves"}

	o, err := newAgent(c).DevelopOntology(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "retail", o.ID)
	assert.Equal(t, cur.IRI, o.IRI)
	assert.Contains(t, c.lastPrompt(), "Complement the domain ontology <https://example.com/retail>")
	assert.Contains(t, c.lastPrompt(), "missing shelves")
	assert.Contains(t, c.lastPrompt(), "critique_ontology")
}

func TestDevelopOntologyRejectsForeignDeclaration(t *testing.T) {
	ttl := strings.ReplaceAll(retailTTL, "https://example.com/retail>", "https://example.com/other>")
	c := &scripted{replies: []string{reply(t, map[string]any{"ttl": ttl})}}
	req := ingestion.OntologyRequest{Chunk: testChunk(), Current: retail(t), Domain: "https://example.com"}

	_, err := newAgent(c).DevelopOntology(context.Background(), req)
	require.ErrorIs(t, err, ingestion.ErrInvalidOutput)
}

func TestDevelopOntologyInvalidOutput(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "here is your ontology"},
		{"bad turtle", `{"ontology_id": "x", "ttl": "<a> <b"}`},
		{"no identity", `{"ttl": "<https://example.com/a> <https://example.com/b> <https://example.com/c> ."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ingestion.OntologyRequest{Chunk: testChunk(), Current: ontology.Null(), Domain: "https://example.com"}
			_, err := newAgent(&scripted{replies: []string{tt.reply}}).DevelopOntology(context.Background(), req)
			require.ErrorIs(t, err, ingestion.ErrInvalidOutput)
		})
	}
}

func TestCritiqueOntology(t *testing.T) {
	c := &scripted{replies: []string{`{"success": false, "score": 35, "critique": "  no properties  "}`}}
	req := ingestion.OntologyRequest{Chunk: testChunk(), Current: ontology.Null(), Domain: "https://example.com"}

	v, err := newAgent(c).CritiqueOntology(context.Background(), req, retail(t))
	require.NoError(t, err)
	assert.Equal(t, ingestion.Verdict{Success: false, Score: 35, Critique: "no properties"}, v)
	assert.Contains(t, c.lastPrompt(), "Proposed ontology (retail)")
	assert.NotContains(t, c.lastPrompt(), "Original ontology")
}

func TestExtractFacts(t *testing.T) {
	ttl := `@prefix cd: <https://example.com/doc/abc/chunk/def#> .
@prefix co: <https://example.com/retail#> .
cd:acme a co:Store .
`
	c := &scripted{replies: []string{reply(t, map[string]any{
		"ttl":                      ttl,
		"ontology_relevance_score": 80,
		"triples_generation_score": 70.5,
	})}}
	req := ingestion.FactsRequest{Chunk: testChunk(), Ontology: retail(t)}

	facts, err := newAgent(c).ExtractFacts(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, facts.Graph.Len())
	assert.Equal(t, 80.0, facts.RelevanceScore)
	assert.Equal(t, 70.5, facts.GenerationScore)

	prompt := c.lastPrompt()
	assert.Contains(t, prompt, "@prefix cd: <https://example.com/doc/abc/chunk/def#>")
	assert.Contains(t, prompt, "(prefix retail:)")
	assert.Contains(t, prompt, "Domain ontology:")
}

func TestExtractFactsNullOntology(t *testing.T) {
	c := &scripted{replies: []string{reply(t, map[string]any{"ttl": ""})}}
	req := ingestion.FactsRequest{Chunk: testChunk(), Ontology: ontology.Null()}

	facts, err := newAgent(c).ExtractFacts(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, facts.Graph.Len())
	assert.Contains(t, c.lastPrompt(), "(prefix schema:)")
	assert.NotContains(t, c.lastPrompt(), "Domain ontology:")
}

func TestCritiqueFacts(t *testing.T) {
	c := &scripted{replies: []string{`{"success": true, "score": 92}`}}
	g := rdf.NewGraph(rdf.T(rdf.IRI(testChunk().Namespace+"acme"), rdf.IRI(rdf.RDFType), rdf.IRI("https://example.com/retail#Store")))
	req := ingestion.FactsRequest{Chunk: testChunk(), Ontology: retail(t)}

	v, err := newAgent(c).CritiqueFacts(context.Background(), req, &ingestion.Facts{Graph: g})
	require.NoError(t, err)
	assert.True(t, v.Success)
	assert.Equal(t, 92.0, v.Score)
	assert.Contains(t, c.lastPrompt(), "cd:acme")
}

func TestCritiqueFactsMalformed(t *testing.T) {
	req := ingestion.FactsRequest{Chunk: testChunk(), Ontology: ontology.Null()}
	_, err := newAgent(&scripted{replies: []string{"looks fine to me"}}).CritiqueFacts(context.Background(), req, &ingestion.Facts{})
	require.ErrorIs(t, err, ingestion.ErrInvalidOutput)
}

func TestSummarize(t *testing.T) {
	bare := ontology.New(ontology.Properties{ID: "inv"}, nil, "https://example.com")
	complete := retail(t)
	reg := ontology.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)), bare, complete)

	c := &scripted{replies: []string{`{"title": "Inventory", "description": "Stock keeping", "version": "1.2.0", "ontology_id": "ignored"}`}}
	n := newAgent(c).Summarize(context.Background(), reg)
	assert.Equal(t, 1, n)
	assert.Len(t, c.prompts, 1)

	got, ok := reg.Lookup("inv", "")
	require.True(t, ok)
	assert.Equal(t, "inv", got.ID)
	assert.Equal(t, "Inventory", got.Title)
	assert.Equal(t, "Stock keeping", got.Description)
	assert.Equal(t, "1.2.0", got.Version)
}

func TestSummarizeFailureIsSkipped(t *testing.T) {
	reg := ontology.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)),
		ontology.New(ontology.Properties{ID: "inv"}, nil, ""))
	n := newAgent(&scripted{replies: []string{"no idea"}}).Summarize(context.Background(), reg)
	assert.Equal(t, 0, n)
	got, _ := reg.Lookup("inv", "")
	assert.Empty(t, got.Title)
}
