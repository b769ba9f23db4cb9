package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/maraichr/ontograph/internal/ingestion"
)

// RunWorker consumes the document stream with cfg.Pipeline.Concurrency
// consumers until ctx is cancelled. It needs a database, object storage and
// Valkey.
func RunWorker(ctx context.Context, p *Pipeline, logger *slog.Logger) error {
	cfg := p.Config

	s, pool, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("connected to database")

	mc, err := p.ObjectStore(ctx)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}

	vkClient, err := OpenQueue(ctx, cfg.Valkey)
	if err != nil {
		return err
	}
	defer vkClient.Close()
	logger.Info("connected to valkey")

	worker := ingestion.NewWorker(p.Controller, mc, s, logger)

	n := cfg.Pipeline.Concurrency
	if n <= 0 {
		n = 1
	}
	host, _ := os.Hostname()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		consumer := ingestion.NewConsumer(vkClient, fmt.Sprintf("%s-%d", host, i+1), logger)
		if i == 0 {
			if err := consumer.EnsureGroup(ctx); err != nil {
				return fmt.Errorf("ensure consumer group: %w", err)
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Consume(ctx, worker.Handle); err != nil && ctx.Err() == nil {
				logger.Error("consumer error", slog.String("error", err.Error()))
			}
		}()
	}
	logger.Info("worker started",
		slog.String("stream", ingestion.StreamName),
		slog.Int("consumers", n))

	wg.Wait()
	logger.Info("worker stopped")
	return nil
}
