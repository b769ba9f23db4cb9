package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maraichr/ontograph/internal/app"
)

var serveWorkerCmd = &cobra.Command{
	Use:   "serve-worker",
	Short: "Consume queued documents until interrupted",
	Long: `Run the queue worker in the foreground. Documents submitted through
POST /api/v1/documents are downloaded from object storage, processed and
recorded on their run. Requires PostgreSQL, MinIO and Valkey.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, logger, err := openPipeline(ctx)
		if err != nil {
			return err
		}
		defer p.Close(context.Background())
		return app.RunWorker(ctx, p, logger)
	},
}
