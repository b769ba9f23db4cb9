package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	sdkauth "github.com/modelcontextprotocol/go-sdk/auth"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/maraichr/ontograph/internal/auth"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/models"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testRegistry(t *testing.T) *ontology.Registry {
	t.Helper()
	g := rdf.NewGraph(rdf.T(rdf.IRI("https://example.com/retail#Store"), rdf.IRI(rdf.RDFType), rdf.IRI(rdf.NSRDFS+"Class")))
	reg := ontology.NewRegistry(testLogger)
	if err := reg.Add(ontology.New(ontology.Properties{ID: "retail", Title: "Retail", Version: "1.0"}, g, "https://example.com")); err != nil {
		t.Fatal(err)
	}
	return reg
}

type fakeProcessor struct {
	docs   []ingestion.Document
	limits []ingestion.Limits
	facts  *rdf.Graph
}

func (p *fakeProcessor) Process(_ context.Context, doc ingestion.Document, limits ingestion.Limits) *ingestion.Result {
	p.docs = append(p.docs, doc)
	p.limits = append(p.limits, limits)
	facts := p.facts
	if facts == nil {
		facts = rdf.NewGraph()
	}
	return &ingestion.Result{
		DocumentID:      doc.ID,
		Name:            doc.Name,
		Status:          ingestion.StatusSuccess,
		Facts:           facts,
		ChunksProcessed: 1,
		NodeVisits:      map[ingestion.StageID]int{ingestion.StageExtractFacts: 1},
	}
}

type memRuns struct {
	runs      map[uuid.UUID]postgres.ProcessingRun
	completed map[uuid.UUID]models.ProcessResult
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[uuid.UUID]postgres.ProcessingRun{}, completed: map[uuid.UUID]models.ProcessResult{}}
}

func (m *memRuns) CreateRun(_ context.Context, arg postgres.CreateRunParams) (postgres.ProcessingRun, error) {
	r := postgres.ProcessingRun{ID: arg.ID, DocumentName: arg.DocumentName, MimeType: arg.MimeType, Status: postgres.RunStatusQueued, CreatedAt: time.Now()}
	m.runs[arg.ID] = r
	return r, nil
}

func (m *memRuns) MarkRunRunning(_ context.Context, id uuid.UUID) error {
	r := m.runs[id]
	r.Status = postgres.RunStatusRunning
	m.runs[id] = r
	return nil
}

func (m *memRuns) CompleteRun(_ context.Context, id uuid.UUID, res models.ProcessResult) error {
	r := m.runs[id]
	r.Status = postgres.RunStatusCompleted
	r.ResultStatus = &res.Status
	r.TripleCount = int32(res.TripleCount)
	m.runs[id] = r
	m.completed[id] = res
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id uuid.UUID) (postgres.ProcessingRun, error) {
	r, ok := m.runs[id]
	if !ok {
		return postgres.ProcessingRun{}, pgx.ErrNoRows
	}
	return r, nil
}

func readOnly(ctx context.Context) context.Context {
	return auth.WithPrincipal(ctx, &auth.Principal{Sub: "reader", Scopes: map[string]bool{auth.ScopeRead: true}})
}

func TestListOntologies(t *testing.T) {
	h := NewListOntologiesHandler(testRegistry(t), testLogger)
	out, err := h.Handle(readOnly(context.Background()), ListOntologiesParams{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "**Ontologies** (1 found)") || !strings.Contains(out, "`retail`") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestListOntologies_Empty(t *testing.T) {
	h := NewListOntologiesHandler(ontology.NewRegistry(testLogger), testLogger)
	out, err := h.Handle(context.Background(), ListOntologiesParams{})
	if err != nil {
		t.Fatal(err)
	}
	if out != "No ontologies found." {
		t.Errorf("got %q", out)
	}
}

func TestGetOntology(t *testing.T) {
	h := NewGetOntologyHandler(testRegistry(t), testLogger)

	out, err := h.Handle(context.Background(), GetOntologyParams{OntologyID: "retail", IncludeTurtle: true})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "## Ontology `retail`") {
		t.Errorf("missing header: %s", out)
	}
	if !strings.Contains(out, "```turtle") || !strings.Contains(out, "retail#Store") {
		t.Errorf("missing turtle: %s", out)
	}

	if _, err := h.Handle(context.Background(), GetOntologyParams{}); err == nil {
		t.Error("expected error without id or iri")
	}
	if _, err := h.Handle(context.Background(), GetOntologyParams{OntologyID: "absent"}); err == nil || err.Error() != "ontology not found" {
		t.Errorf("err = %v", err)
	}
}

func TestProcessText_RecordsRun(t *testing.T) {
	p := &fakeProcessor{facts: rdf.NewGraph(rdf.T(rdf.IRI("https://example.com/s"), rdf.IRI("https://example.com/p"), rdf.Literal("o")))}
	runs := newMemRuns()
	h := NewProcessTextHandler(p, runs, testLogger)

	skip := true
	out, err := h.Handle(context.Background(), ProcessTextParams{Text: "Acme sells widgets.", Name: "memo", MaxVisits: 2, SkipOntologyDevelopment: &skip})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(p.docs) != 1 || p.docs[0].MimeType != "text/plain" {
		t.Fatalf("docs = %+v", p.docs)
	}
	if p.limits[0].MaxVisits != 2 || p.limits[0].SkipOntologyDevelopment == nil || !*p.limits[0].SkipOntologyDevelopment {
		t.Errorf("limits = %+v", p.limits[0])
	}
	if !strings.Contains(out, "- **Status:** success") || !strings.Contains(out, "```turtle") {
		t.Errorf("unexpected output: %s", out)
	}

	run, ok := runs.runs[p.docs[0].ID]
	if !ok || run.Status != postgres.RunStatusCompleted {
		t.Errorf("run = %+v", run)
	}
	if runs.completed[p.docs[0].ID].TripleCount != 1 {
		t.Errorf("completed = %+v", runs.completed[p.docs[0].ID])
	}
}

func TestProcessText_Validation(t *testing.T) {
	h := NewProcessTextHandler(&fakeProcessor{}, nil, testLogger)
	tests := []struct {
		name   string
		params ProcessTextParams
	}{
		{"empty", ProcessTextParams{Text: "  "}},
		{"negative visits", ProcessTextParams{Text: "x", MaxVisits: -1}},
		{"too large", ProcessTextParams{Text: strings.Repeat("x", maxTextBytes+1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := h.Handle(context.Background(), tt.params); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestProcessText_RequiresWriteScope(t *testing.T) {
	p := &fakeProcessor{}
	h := NewProcessTextHandler(p, nil, testLogger)
	_, err := h.Handle(readOnly(context.Background()), ProcessTextParams{Text: "x"})
	if !errors.Is(err, errForbidden) {
		t.Fatalf("err = %v, want errForbidden", err)
	}
	if len(p.docs) != 0 {
		t.Error("processor should not run")
	}
}

func TestGetRun(t *testing.T) {
	runs := newMemRuns()
	id := uuid.New()
	if _, err := runs.CreateRun(context.Background(), postgres.CreateRunParams{ID: id, DocumentName: "memo.txt", MimeType: "text/plain"}); err != nil {
		t.Fatal(err)
	}
	h := NewGetRunHandler(runs, testLogger)

	out, err := h.Handle(context.Background(), GetRunParams{RunID: id.String()})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.Contains(out, "- **Status:** queued") || !strings.Contains(out, "memo.txt (text/plain)") {
		t.Errorf("unexpected output: %s", out)
	}

	if _, err := h.Handle(context.Background(), GetRunParams{RunID: "nope"}); err == nil || err.Error() != "invalid run_id" {
		t.Errorf("err = %v", err)
	}
	if _, err := h.Handle(context.Background(), GetRunParams{RunID: uuid.NewString()}); err == nil || err.Error() != "run not found" {
		t.Errorf("err = %v", err)
	}
}

type echoPrincipal struct{}

func (echoPrincipal) Handle(ctx context.Context, _ struct{}) (string, error) {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		return "anonymous", nil
	}
	return p.Sub, nil
}

type failing struct{}

func (failing) Handle(context.Context, struct{}) (string, error) {
	return "", errors.New("boom")
}

func TestWrapHandler_PrincipalFromTokenInfo(t *testing.T) {
	p := &auth.Principal{Sub: "user-1", Scopes: map[string]bool{auth.ScopeRead: true}}
	req := &sdkmcp.CallToolRequest{Extra: &sdkmcp.RequestExtra{
		TokenInfo: &sdkauth.TokenInfo{UserID: p.Sub, Extra: map[string]any{"principal": p}},
	}}

	res, _, err := WrapHandler[struct{}](echoPrincipal{})(context.Background(), req, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Content[0].(*sdkmcp.TextContent).Text; got != "user-1" {
		t.Errorf("principal = %q", got)
	}

	res, _, _ = WrapHandler[struct{}](echoPrincipal{})(context.Background(), nil, nil)
	if got := res.Content[0].(*sdkmcp.TextContent).Text; got != "anonymous" {
		t.Errorf("principal = %q", got)
	}
}

func TestWrapHandler_Error(t *testing.T) {
	res, _, err := WrapHandler[struct{}](failing{})(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || res.Content[0].(*sdkmcp.TextContent).Text != "boom" {
		t.Errorf("result = %+v", res)
	}
}
