package store

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/models"
)

type captureDB struct {
	sql  string
	args []interface{}
}

func (c *captureDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.CommandTag{}, nil
}

func (c *captureDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	panic("not used")
}

func (c *captureDB) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	panic("not used")
}

func TestCompleteRunDenormalizes(t *testing.T) {
	db := &captureDB{}
	id := uuid.New()
	res := models.ProcessResult{
		DocumentID:  id.String(),
		Status:      "success",
		TripleCount: 4,
		Ontology:    &models.OntologySummary{ID: "retail", IRI: "https://example.com/retail"},
	}
	if err := completeRun(context.Background(), postgres.New(db), id, res); err != nil {
		t.Fatalf("completeRun: %v", err)
	}
	if !strings.Contains(db.sql, "CompleteRun") {
		t.Fatalf("unexpected query %q", db.sql)
	}
	if db.args[0] != id || db.args[1] != "success" || db.args[2] != int32(4) {
		t.Errorf("args = %v", db.args[:3])
	}
	if oid, _ := db.args[3].(*string); oid == nil || *oid != "retail" {
		t.Errorf("ontology id = %v", db.args[3])
	}
	if msg, _ := db.args[5].(*string); msg != nil {
		t.Errorf("error message = %q, want nil for success", *msg)
	}

	var back models.ProcessResult
	if err := json.Unmarshal(db.args[4].([]byte), &back); err != nil {
		t.Fatal(err)
	}
	if back.TripleCount != 4 || back.Ontology.ID != "retail" {
		t.Errorf("stored result = %+v", back)
	}
}

func TestCompleteRunKeepsFailureReason(t *testing.T) {
	db := &captureDB{}
	res := models.ProcessResult{Status: "failed", FailureStage: "ConvertToText", FailureReason: "unsupported format"}
	if err := completeRun(context.Background(), postgres.New(db), uuid.New(), res); err != nil {
		t.Fatal(err)
	}
	if db.args[3].(*string) != nil {
		t.Error("expected nil ontology id")
	}
	if msg := db.args[5].(*string); msg == nil || *msg != "unsupported format" {
		t.Errorf("error message = %v", db.args[5])
	}
}

func TestRunResult(t *testing.T) {
	if res, err := RunResult(postgres.ProcessingRun{}); err != nil || res != nil {
		t.Fatalf("pending run: %v %v", res, err)
	}
	body, _ := json.Marshal(models.ProcessResult{Status: "counts_exceeded", Steps: 1000})
	res, err := RunResult(postgres.ProcessingRun{Result: body})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != "counts_exceeded" || res.Steps != 1000 {
		t.Errorf("result = %+v", res)
	}
	if _, err := RunResult(postgres.ProcessingRun{Result: []byte("{")}); err == nil {
		t.Error("expected decode error")
	}
}
