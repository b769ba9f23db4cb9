package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/ingestion/connectors"
	"github.com/maraichr/ontograph/pkg/models"
)

var (
	processDir         string
	processZip         string
	processS3Prefix    string
	processGit         string
	processMaxVisits   int
	processMaxChunks   int
	processSkipDev     bool
	processOutDir      string
	processOutput      string
	processConcurrency int
)

var processCmd = &cobra.Command{
	Use:   "process [FILE...]",
	Short: "Process documents through the extraction pipeline",
	Long: `Process documents and write their facts to the configured backends.

Exactly one source is used: FILE arguments, --dir, --zip, --s3-prefix or --git.
Supported formats are plain text, markdown, HTML and JSON.

Output Formats:
  default - one summary line per document
  jsonl   - one result object per line, facts included as Turtle

Examples:
  ontograph process notes.md report.html
  ontograph process --dir ./corpus --out ./facts
  ontograph process --s3-prefix inbox/ --output jsonl | jq .status`,
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processDir, "dir", "", "Process every supported file below a directory")
	f.StringVar(&processZip, "zip", "", "Process every supported entry of a ZIP archive")
	f.StringVar(&processS3Prefix, "s3-prefix", "", "Process the objects under a prefix of S3_BUCKET")
	f.StringVar(&processGit, "git", "", "Process a git repository (clone URL)")
	f.IntVar(&processMaxVisits, "max-visits", 0, "Per-stage visit limit (default from PIPELINE_MAX_VISITS)")
	f.IntVar(&processMaxChunks, "max-chunks", 0, "Chunks to process per document, 0 for all")
	f.BoolVar(&processSkipDev, "skip-development", false, "Never develop new ontologies")
	f.StringVar(&processOutDir, "out", "", "Also write each document's facts to <out>/<document_id>.ttl")
	f.StringVarP(&processOutput, "output", "o", "default", "Output format: default or jsonl")
	f.IntVar(&processConcurrency, "concurrency", 0, "Documents processed at once (default from PIPELINE_CONCURRENCY)")
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processOutput != "default" && processOutput != "jsonl" {
		return fmt.Errorf("unknown output format %q", processOutput)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, logger, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close(context.Background())

	src, err := selectSource(ctx, p.Config, args)
	if err != nil {
		return err
	}

	limits := ingestion.Limits{MaxVisits: processMaxVisits, MaxChunks: processMaxChunks}
	if cmd.Flags().Changed("skip-development") {
		limits.SkipOntologyDevelopment = &processSkipDev
	}
	concurrency := processConcurrency
	if concurrency <= 0 {
		concurrency = p.Config.Pipeline.Concurrency
	}

	if processOutDir != "" {
		if err := os.MkdirAll(processOutDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	var writeErr error
	failed := 0
	batch := ingestion.NewBatch(p.Controller, concurrency, logger)
	err = batch.RunSource(ctx, src, limits, func(res *ingestion.Result) {
		m := res.Model()
		if m.Status != string(ingestion.StatusSuccess) {
			failed++
		}
		if err := writeResult(out, processOutput, m); err != nil && writeErr == nil {
			writeErr = err
		}
		if processOutDir != "" && m.TripleCount > 0 {
			path := filepath.Join(processOutDir, m.DocumentID+".ttl")
			if err := os.WriteFile(path, []byte(m.Facts), 0o644); err != nil && writeErr == nil {
				writeErr = fmt.Errorf("write facts: %w", err)
			}
		}
	})
	if err != nil {
		return err
	}
	if writeErr != nil {
		return writeErr
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) did not succeed", failed)
	}
	return nil
}

// selectSource returns the single document source the flags name.
func selectSource(ctx context.Context, cfg *config.Config, args []string) (ingestion.Source, error) {
	var chosen []string
	if len(args) > 0 {
		chosen = append(chosen, "FILE")
	}
	for name, v := range map[string]string{"--dir": processDir, "--zip": processZip, "--s3-prefix": processS3Prefix, "--git": processGit} {
		if v != "" {
			chosen = append(chosen, name)
		}
	}
	sort.Strings(chosen)
	switch {
	case len(chosen) == 0:
		return nil, errors.New("no documents: pass FILE arguments or one of --dir, --zip, --s3-prefix, --git")
	case len(chosen) > 1:
		return nil, fmt.Errorf("choose one source, got %s", strings.Join(chosen, " and "))
	}

	switch {
	case len(args) > 0:
		return newFileSource(args)
	case processDir != "":
		return connectors.NewDirSource(processDir), nil
	case processZip != "":
		data, err := os.ReadFile(processZip)
		if err != nil {
			return nil, fmt.Errorf("read zip: %w", err)
		}
		return connectors.NewZipSource(data), nil
	case processS3Prefix != "":
		if cfg.S3.Bucket == "" {
			return nil, errors.New("S3_BUCKET is required for --s3-prefix")
		}
		return connectors.NewS3Source(ctx, cfg.S3, processS3Prefix)
	default:
		return connectors.NewGitSource(processGit), nil
	}
}

// fileSource yields explicitly named files in argument order.
type fileSource []ingestion.Document

func newFileSource(paths []string) (fileSource, error) {
	docs := make(fileSource, 0, len(paths))
	for _, path := range paths {
		mimeType, ok := connectors.MimeType(path)
		if !ok {
			return nil, fmt.Errorf("%s: unsupported file type", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, ingestion.Document{
			ID:       uuid.New(),
			Name:     filepath.Base(path),
			MimeType: mimeType,
			Data:     data,
		})
	}
	return docs, nil
}

func (s fileSource) Documents(ctx context.Context, fn func(ingestion.Document) error) error {
	for _, doc := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(w io.Writer, format string, res models.ProcessResult) error {
	if format == "jsonl" {
		return json.NewEncoder(w).Encode(res)
	}
	line := fmt.Sprintf("%s\t%s\t%d triples", displayName(res), res.Status, res.TripleCount)
	if res.Ontology != nil {
		line += "\tontology=" + res.Ontology.ID
	}
	if res.FailureStage != "" {
		line += fmt.Sprintf("\t%s: %s", res.FailureStage, res.FailureReason)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func displayName(res models.ProcessResult) string {
	if res.Name != "" {
		return res.Name
	}
	return res.DocumentID
}
