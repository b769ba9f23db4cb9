package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/maraichr/ontograph/internal/app"
	"github.com/maraichr/ontograph/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "ontograph",
	Short: "Extract RDF knowledge graphs from documents",
	Long: `ontograph turns documents into RDF knowledge graphs. Each document is
matched against the ontology registry (or gets a new ontology developed for
it), facts are extracted chunk by chunk and the aggregated graph is written to
the configured triple-store backends.

Configuration comes from the environment (a .env file is loaded when present)
and the optional YAML overlay named by ONTOGRAPH_CONFIG.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", v, c)
}

func init() {
	rootCmd.AddCommand(processCmd, ontologiesCmd, serveWorkerCmd)
}

// loadConfig reads .env and the configuration. Logs go to stderr so command
// output on stdout stays parseable.
func loadConfig() (*config.Config, *slog.Logger, error) {
	_ = godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}

func openPipeline(ctx context.Context) (*app.Pipeline, *slog.Logger, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := app.NewPipeline(ctx, cfg, logger, app.WithSummarize())
	if err != nil {
		return nil, nil, err
	}
	return p, logger, nil
}
