package postgres

import (
	"context"

	"github.com/google/uuid"
)

const runColumns = `id, document_name, mime_type, object_key, status, result_status,
	triple_count, ontology_id, result, error_message, created_at, started_at, completed_at`

func scanRun(row interface{ Scan(...any) error }) (ProcessingRun, error) {
	var i ProcessingRun
	err := row.Scan(
		&i.ID,
		&i.DocumentName,
		&i.MimeType,
		&i.ObjectKey,
		&i.Status,
		&i.ResultStatus,
		&i.TripleCount,
		&i.OntologyID,
		&i.Result,
		&i.ErrorMessage,
		&i.CreatedAt,
		&i.StartedAt,
		&i.CompletedAt,
	)
	return i, err
}

const createRun = `-- name: CreateRun :one
INSERT INTO processing_runs (id, document_name, mime_type, object_key, status)
VALUES ($1, $2, $3, $4, 'queued')
RETURNING ` + runColumns

type CreateRunParams struct {
	ID           uuid.UUID
	DocumentName string
	MimeType     string
	ObjectKey    *string
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) (ProcessingRun, error) {
	row := q.db.QueryRow(ctx, createRun, arg.ID, arg.DocumentName, arg.MimeType, arg.ObjectKey)
	return scanRun(row)
}

const markRunRunning = `-- name: MarkRunRunning :exec
UPDATE processing_runs
SET status = 'running', started_at = now()
WHERE id = $1
`

func (q *Queries) MarkRunRunning(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markRunRunning, id)
	return err
}

const completeRun = `-- name: CompleteRun :exec
UPDATE processing_runs
SET status = 'completed', result_status = $2, triple_count = $3, ontology_id = $4,
    result = $5, error_message = $6, completed_at = now()
WHERE id = $1
`

type CompleteRunParams struct {
	ID           uuid.UUID
	ResultStatus string
	TripleCount  int32
	OntologyID   *string
	Result       []byte
	ErrorMessage *string
}

func (q *Queries) CompleteRun(ctx context.Context, arg CompleteRunParams) error {
	_, err := q.db.Exec(ctx, completeRun,
		arg.ID,
		arg.ResultStatus,
		arg.TripleCount,
		arg.OntologyID,
		arg.Result,
		arg.ErrorMessage,
	)
	return err
}

const failRun = `-- name: FailRun :exec
UPDATE processing_runs
SET status = 'failed', error_message = $2, completed_at = now()
WHERE id = $1
`

func (q *Queries) FailRun(ctx context.Context, id uuid.UUID, errorMessage string) error {
	_, err := q.db.Exec(ctx, failRun, id, errorMessage)
	return err
}

const getRun = `-- name: GetRun :one
SELECT ` + runColumns + `
FROM processing_runs
WHERE id = $1
`

func (q *Queries) GetRun(ctx context.Context, id uuid.UUID) (ProcessingRun, error) {
	row := q.db.QueryRow(ctx, getRun, id)
	return scanRun(row)
}

const listRuns = `-- name: ListRuns :many
SELECT ` + runColumns + `
FROM processing_runs
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`

type ListRunsParams struct {
	Limit  int32
	Offset int32
}

func (q *Queries) ListRuns(ctx context.Context, arg ListRunsParams) ([]ProcessingRun, error) {
	rows, err := q.db.Query(ctx, listRuns, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProcessingRun
	for rows.Next() {
		i, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
