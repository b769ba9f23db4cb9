package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/apierr"
	"github.com/maraichr/ontograph/pkg/models"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeProcessor struct {
	status ingestion.Status
	docs   []ingestion.Document
	limits []ingestion.Limits
}

func (p *fakeProcessor) Process(_ context.Context, doc ingestion.Document, limits ingestion.Limits) *ingestion.Result {
	p.docs = append(p.docs, doc)
	p.limits = append(p.limits, limits)
	status := p.status
	if status == "" {
		status = ingestion.StatusSuccess
	}
	res := &ingestion.Result{
		DocumentID: doc.ID,
		Name:       doc.Name,
		Status:     status,
		Facts:      rdf.NewGraph(),
		NodeVisits: map[ingestion.StageID]int{},
	}
	if status == ingestion.StatusFailed {
		res.FailureStage = ingestion.FailureFactsCritique
		res.FailureReason = "critique rejected"
	}
	return res
}

type memRuns struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]postgres.ProcessingRun
	results map[uuid.UUID]models.ProcessResult
	listErr error
}

func newMemRuns() *memRuns {
	return &memRuns{runs: map[uuid.UUID]postgres.ProcessingRun{}, results: map[uuid.UUID]models.ProcessResult{}}
}

func (m *memRuns) CreateRun(_ context.Context, arg postgres.CreateRunParams) (postgres.ProcessingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := postgres.ProcessingRun{
		ID:           arg.ID,
		DocumentName: arg.DocumentName,
		MimeType:     arg.MimeType,
		ObjectKey:    arg.ObjectKey,
		Status:       postgres.RunStatusQueued,
		CreatedAt:    time.Now(),
	}
	m.runs[arg.ID] = run
	return run, nil
}

func (m *memRuns) MarkRunRunning(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Status = postgres.RunStatusRunning
	m.runs[id] = run
	return nil
}

func (m *memRuns) CompleteRun(_ context.Context, id uuid.UUID, res models.ProcessResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Status = postgres.RunStatusCompleted
	run.ResultStatus = &res.Status
	run.Result, _ = json.Marshal(res)
	m.runs[id] = run
	m.results[id] = res
	return nil
}

func (m *memRuns) FailRun(_ context.Context, id uuid.UUID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Status = postgres.RunStatusFailed
	run.ErrorMessage = &reason
	m.runs[id] = run
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id uuid.UUID) (postgres.ProcessingRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return postgres.ProcessingRun{}, pgx.ErrNoRows
	}
	return run, nil
}

func (m *memRuns) ListRuns(_ context.Context, arg postgres.ListRunsParams) ([]postgres.ProcessingRun, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []postgres.ProcessingRun
	for _, run := range m.runs {
		out = append(out, run)
	}
	if int(arg.Limit) < len(out) {
		out = out[:arg.Limit]
	}
	return out, nil
}

type memUploads map[string][]byte

func (m memUploads) UploadFile(_ context.Context, name string, r io.Reader, _ int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m[name] = data
	return nil
}

type fakeProducer struct {
	msgs []ingestion.DocumentMessage
	err  error
}

func (p *fakeProducer) Enqueue(_ context.Context, msg ingestion.DocumentMessage) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.msgs = append(p.msgs, msg)
	return "1-0", nil
}

func decodeError(t *testing.T, body io.Reader) apierr.Code {
	t.Helper()
	var resp apierr.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error.Code
}

func jsonRequest(t *testing.T, target string, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProcessHandler_JSON(t *testing.T) {
	p := &fakeProcessor{}
	runs := newMemRuns()
	h := NewProcessHandler(testLogger, p, runs)

	w := httptest.NewRecorder()
	h.Process(w, jsonRequest(t, "/api/v1/process", map[string]any{
		"text":       "Acme runs a store in Lyon.",
		"name":       "acme.txt",
		"max_visits": 2,
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res models.ProcessResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Status != "success" || res.Name != "acme.txt" {
		t.Errorf("result = %+v", res)
	}
	if len(p.docs) != 1 || p.docs[0].MimeType != "text/plain" {
		t.Fatalf("processed = %+v", p.docs)
	}
	if p.limits[0].MaxVisits != 2 {
		t.Errorf("max visits = %d, want 2", p.limits[0].MaxVisits)
	}
	if _, ok := runs.results[p.docs[0].ID]; !ok {
		t.Error("run result not recorded")
	}
}

func TestProcessHandler_WithoutRuns(t *testing.T) {
	p := &fakeProcessor{}
	h := NewProcessHandler(testLogger, p, nil)
	w := httptest.NewRecorder()
	h.Process(w, jsonRequest(t, "/api/v1/process", map[string]any{"text": "hello"}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestProcessHandler_FailedDocument(t *testing.T) {
	h := NewProcessHandler(testLogger, &fakeProcessor{status: ingestion.StatusFailed}, nil)
	w := httptest.NewRecorder()
	h.Process(w, jsonRequest(t, "/api/v1/process", map[string]any{"text": "hello"}))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var res models.ProcessResult
	json.NewDecoder(w.Body).Decode(&res)
	if res.FailureStage != string(ingestion.FailureFactsCritique) {
		t.Errorf("failure stage = %q", res.FailureStage)
	}
}

func TestProcessHandler_BadRequests(t *testing.T) {
	tests := []struct {
		name     string
		req      func() *http.Request
		status   int
		wantCode apierr.Code
	}{
		{
			name: "invalid json",
			req: func() *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/v1/process", strings.NewReader("invalid"))
			},
			status:   http.StatusBadRequest,
			wantCode: apierr.CodeInvalidRequestBody,
		},
		{
			name:     "empty text",
			req:      func() *http.Request { return jsonRequest(t, "/", map[string]any{"text": "  "}) },
			status:   http.StatusBadRequest,
			wantCode: apierr.CodeDocumentRequired,
		},
		{
			name: "unsupported format",
			req: func() *http.Request {
				return jsonRequest(t, "/", map[string]any{"text": "x", "mime_type": "application/pdf"})
			},
			status:   http.StatusUnsupportedMediaType,
			wantCode: apierr.CodeUnsupportedFormat,
		},
		{
			name:     "negative limits",
			req:      func() *http.Request { return jsonRequest(t, "/", map[string]any{"text": "x", "max_chunks": -1}) },
			status:   http.StatusBadRequest,
			wantCode: apierr.CodeInvalidRequestBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProcessor{}
			w := httptest.NewRecorder()
			NewProcessHandler(testLogger, p, nil).Process(w, tt.req())
			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			if code := decodeError(t, w.Body); code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, code)
			}
			if len(p.docs) != 0 {
				t.Error("processor should not run")
			}
		})
	}
}

func multipartRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestProcessHandler_Multipart(t *testing.T) {
	p := &fakeProcessor{}
	w := httptest.NewRecorder()
	NewProcessHandler(testLogger, p, nil).Process(w, multipartRequest(t, "notes.md", "# Acme\n\nA store.", map[string]string{
		"max_chunks":                "5",
		"skip_ontology_development": "true",
	}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	doc := p.docs[0]
	if doc.Name != "notes.md" || doc.MimeType != "text/markdown" {
		t.Errorf("doc = %s %s", doc.Name, doc.MimeType)
	}
	if string(doc.Data) != "# Acme\n\nA store." {
		t.Errorf("data = %q", doc.Data)
	}
	l := p.limits[0]
	if l.MaxChunks != 5 || l.SkipOntologyDevelopment == nil || !*l.SkipOntologyDevelopment {
		t.Errorf("limits = %+v", l)
	}
}

func TestProcessHandler_MultipartMissingFile(t *testing.T) {
	w := httptest.NewRecorder()
	NewProcessHandler(testLogger, &fakeProcessor{}, nil).Process(w, multipartRequest(t, "", "", map[string]string{"name": "x"}))
	if code := decodeError(t, w.Body); code != apierr.CodeDocumentRequired {
		t.Errorf("expected %s, got %s", apierr.CodeDocumentRequired, code)
	}
}

func TestDocumentHandler_QueueUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	NewDocumentHandler(testLogger, newMemRuns(), nil, nil).Submit(w, jsonRequest(t, "/", map[string]any{"text": "x"}))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
	if code := decodeError(t, w.Body); code != apierr.CodeQueueUnavailable {
		t.Errorf("code = %s", code)
	}
}

func TestDocumentHandler_Submit(t *testing.T) {
	runs := newMemRuns()
	uploads := memUploads{}
	producer := &fakeProducer{}
	h := NewDocumentHandler(testLogger, runs, uploads, producer)

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, "/", map[string]any{
		"text":       "<html><title>Acme</title><body>A store.</body></html>",
		"name":       "../../etc/acme.html",
		"mime_type":  "text/html; charset=utf-8",
		"max_visits": 4,
	}))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp submitResponse
	json.NewDecoder(w.Body).Decode(&resp)

	if len(producer.msgs) != 1 {
		t.Fatalf("enqueued = %d", len(producer.msgs))
	}
	msg := producer.msgs[0]
	if msg.RunID.String() != resp.RunID || msg.ObjectKey != resp.ObjectKey {
		t.Errorf("message %+v does not match response %+v", msg, resp)
	}
	if msg.MimeType != "text/html" || msg.MaxVisits != 4 {
		t.Errorf("message = %+v", msg)
	}
	if !strings.HasPrefix(resp.ObjectKey, "uploads/"+resp.RunID+"/") || !strings.HasSuffix(resp.ObjectKey, "/acme.html") {
		t.Errorf("object key = %q", resp.ObjectKey)
	}
	if _, ok := uploads[resp.ObjectKey]; !ok {
		t.Error("document not uploaded")
	}
	if run := runs.runs[msg.RunID]; run.Status != postgres.RunStatusQueued {
		t.Errorf("run status = %s", run.Status)
	}
}

func TestDocumentHandler_EnqueueFailureFailsRun(t *testing.T) {
	runs := newMemRuns()
	h := NewDocumentHandler(testLogger, runs, memUploads{}, &fakeProducer{err: errors.New("valkey down")})

	w := httptest.NewRecorder()
	h.Submit(w, jsonRequest(t, "/", map[string]any{"text": "x"}))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	for _, run := range runs.runs {
		if run.Status != postgres.RunStatusFailed {
			t.Errorf("run status = %s, want failed", run.Status)
		}
	}
}

func runRouter(h *RunHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/runs", h.List)
	r.Get("/runs/{runID}", h.Get)
	return r
}

func TestRunHandler_Get(t *testing.T) {
	runs := newMemRuns()
	id := uuid.New()
	runs.CreateRun(context.Background(), postgres.CreateRunParams{ID: id, DocumentName: "a.txt"})
	runs.CompleteRun(context.Background(), id, models.ProcessResult{DocumentID: id.String(), Status: "success", TripleCount: 3})
	srv := runRouter(NewRunHandler(testLogger, runs))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+id.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var v RunView
	json.NewDecoder(w.Body).Decode(&v)
	if v.Status != "completed" || v.ResultStatus != "success" {
		t.Errorf("view = %+v", v)
	}
	if v.Result == nil || v.Result.TripleCount != 3 {
		t.Errorf("result = %+v", v.Result)
	}
}

func TestRunHandler_GetErrors(t *testing.T) {
	srv := runRouter(NewRunHandler(testLogger, newMemRuns()))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/not-a-uuid", nil))
	if code := decodeError(t, w.Body); code != apierr.CodeInvalidRunID {
		t.Errorf("code = %s", code)
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs/"+uuid.NewString(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if code := decodeError(t, w.Body); code != apierr.CodeRunNotFound {
		t.Errorf("code = %s", code)
	}
}

func TestRunHandler_List(t *testing.T) {
	runs := newMemRuns()
	for i := 0; i < 3; i++ {
		runs.CreateRun(context.Background(), postgres.CreateRunParams{ID: uuid.New()})
	}
	srv := runRouter(NewRunHandler(testLogger, runs))

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs?limit=2", nil))
	var body struct {
		Runs  []RunView `json:"runs"`
		Total int       `json:"total"`
		Limit int       `json:"limit"`
	}
	json.NewDecoder(w.Body).Decode(&body)
	if body.Total != 2 || body.Limit != 2 || len(body.Runs) != 2 {
		t.Errorf("body = %+v", body)
	}

	runs.listErr = errors.New("db gone")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if code := decodeError(t, w.Body); code != apierr.CodeRunListFailed {
		t.Errorf("code = %s", code)
	}
}

func TestRunHandler_Unconfigured(t *testing.T) {
	w := httptest.NewRecorder()
	runRouter(NewRunHandler(testLogger, nil)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func testRegistry(t *testing.T) *ontology.Registry {
	t.Helper()
	g := rdf.NewGraph(rdf.T(rdf.IRI("https://example.com/retail#Store"), rdf.IRI(rdf.RDFType), rdf.IRI(rdf.NSRDFS+"Class")))
	reg := ontology.NewRegistry(testLogger)
	if err := reg.Add(ontology.New(ontology.Properties{ID: "retail", Title: "Retail"}, g, "https://example.com")); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestOntologyHandler(t *testing.T) {
	h := NewOntologyHandler(testLogger, testRegistry(t))
	r := chi.NewRouter()
	r.Get("/ontologies", h.List)
	r.Get("/ontologies/{id}", h.Get)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ontologies", nil))
	var list struct {
		Ontologies []models.OntologySummary `json:"ontologies"`
	}
	json.NewDecoder(w.Body).Decode(&list)
	if len(list.Ontologies) != 1 || list.Ontologies[0].ID != "retail" || list.Ontologies[0].Turtle != "" {
		t.Errorf("list = %+v", list)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ontologies/retail", nil))
	var one models.OntologySummary
	json.NewDecoder(w.Body).Decode(&one)
	if one.IRI != "https://example.com/retail" || !strings.Contains(one.Turtle, "owl:Ontology") {
		t.Errorf("ontology = %+v", one)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ontologies/retail?format=turtle", nil))
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/turtle") {
		t.Errorf("content type = %q", ct)
	}
	if _, err := rdf.ParseTurtle(w.Body.String()); err != nil {
		t.Errorf("turtle does not parse: %v", err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ontologies/missing", nil))
	if code := decodeError(t, w.Body); code != apierr.CodeOntologyNotFound {
		t.Errorf("code = %s", code)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("down") }

	w := httptest.NewRecorder()
	NewHealthHandler(map[string]Check{"database": ok, "neo4j": ok}).Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	NewHealthHandler(map[string]Check{"database": down}).Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if code := decodeError(t, w.Body); code != apierr.CodeDatabaseNotReady {
		t.Errorf("code = %s", code)
	}

	w = httptest.NewRecorder()
	NewHealthHandler(map[string]Check{"neo4j": down}).Readyz(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestInfoHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewInfoHandler(Info{Name: "ontograph", Domain: "https://example.com"}, testRegistry(t)).Info(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	var body map[string]any
	json.NewDecoder(w.Body).Decode(&body)
	if body["name"] != "ontograph" || body["ontologies"] != float64(1) {
		t.Errorf("info = %v", body)
	}
}
