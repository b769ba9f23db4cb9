package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maraichr/ontograph/internal/store/postgres"
	"github.com/maraichr/ontograph/pkg/models"
)

type Store struct {
	*postgres.Queries
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Queries: postgres.New(pool),
		pool:    pool,
	}
}

func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) WithTx(ctx context.Context, fn func(*postgres.Queries) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CompleteRun stores a document result on its run. The full result is kept
// as JSON; status, triple count and ontology are denormalized for listing.
func (s *Store) CompleteRun(ctx context.Context, id uuid.UUID, res models.ProcessResult) error {
	return completeRun(ctx, s.Queries, id, res)
}

func completeRun(ctx context.Context, q *postgres.Queries, id uuid.UUID, res models.ProcessResult) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	params := postgres.CompleteRunParams{
		ID:           id,
		ResultStatus: res.Status,
		TripleCount:  int32(res.TripleCount),
		Result:       body,
	}
	if res.Ontology != nil {
		params.OntologyID = &res.Ontology.ID
	}
	if res.FailureReason != "" {
		params.ErrorMessage = &res.FailureReason
	}
	return q.CompleteRun(ctx, params)
}

// RunResult decodes the stored result of a completed run. It returns nil for
// runs that have not completed.
func RunResult(run postgres.ProcessingRun) (*models.ProcessResult, error) {
	if len(run.Result) == 0 {
		return nil, nil
	}
	var res models.ProcessResult
	if err := json.Unmarshal(run.Result, &res); err != nil {
		return nil, fmt.Errorf("decode run result: %w", err)
	}
	return &res, nil
}
