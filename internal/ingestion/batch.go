package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of documents processed at once.
const DefaultConcurrency = 4

// Source yields documents lazily. Returning an error from fn stops the walk.
type Source interface {
	Documents(ctx context.Context, fn func(Document) error) error
}

// Batch processes many documents concurrently with one Controller. A failing
// document never fails the batch.
type Batch struct {
	controller  *Controller
	concurrency int
	logger      *slog.Logger
}

func NewBatch(c *Controller, concurrency int, logger *slog.Logger) *Batch {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Batch{controller: c, concurrency: concurrency, logger: logger}
}

// Run processes docs and returns their results in input order.
func (b *Batch) Run(ctx context.Context, docs []Document, limits Limits) []*Result {
	results := make([]*Result, len(docs))
	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = b.controller.Process(ctx, doc, limits)
			return nil
		})
	}
	_ = g.Wait()
	b.logSummary(results)
	return results
}

// RunSource processes every document src yields, calling fn with each result
// as it completes. fn calls are serialized.
func (b *Batch) RunSource(ctx context.Context, src Source, limits Limits, fn func(*Result)) error {
	var (
		mu      sync.Mutex
		results []*Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	walkErr := src.Documents(gctx, func(doc Document) error {
		g.Go(func() error {
			res := b.controller.Process(gctx, doc, limits)
			mu.Lock()
			defer mu.Unlock()
			results = append(results, res)
			if fn != nil {
				fn(res)
			}
			return nil
		})
		return nil
	})
	_ = g.Wait()
	b.logSummary(results)
	if walkErr != nil {
		return fmt.Errorf("read documents: %w", walkErr)
	}
	return nil
}

func (b *Batch) logSummary(results []*Result) {
	counts := make(map[Status]int)
	for _, r := range results {
		counts[r.Status]++
	}
	b.logger.Info("batch completed",
		slog.Int("documents", len(results)),
		slog.Int("success", counts[StatusSuccess]),
		slog.Int("failed", counts[StatusFailed]),
		slog.Int("counts_exceeded", counts[StatusCountsExceeded]))
}
