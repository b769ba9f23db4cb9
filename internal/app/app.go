// Package app assembles the extraction pipeline and its infrastructure from
// configuration. Every binary builds on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/ontograph/internal/agent"
	"github.com/maraichr/ontograph/internal/aggregate"
	"github.com/maraichr/ontograph/internal/chunk"
	"github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/convert"
	"github.com/maraichr/ontograph/internal/graph"
	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/metrics"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/store"
	miniostore "github.com/maraichr/ontograph/internal/store/minio"
	"github.com/maraichr/ontograph/internal/store/postgres"
	vk "github.com/maraichr/ontograph/internal/store/valkey"
	"github.com/maraichr/ontograph/internal/triplestore"
)

// NewLogger returns the JSON logger shared by the binaries. LOG_LEVEL=debug
// enables debug output.
func NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// Pipeline is a ready controller together with the clients it was built from.
// Optional clients are nil when not configured.
type Pipeline struct {
	Config     *config.Config
	Controller *ingestion.Controller
	Registry   *ontology.Registry
	Backends   *triplestore.Manager
	Metrics    *metrics.Pipeline
	LLMModel   string

	MinIO *miniostore.Client
	Neo4j *graph.Client

	logger *slog.Logger
}

// NewPipeline opens the registry (see Open) and wires the controller around
// the configured LLM. Options turn on the startup summarization pass.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	p, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	completer, err := llm.New(ctx, cfg)
	if err != nil {
		p.Close(ctx)
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	p.LLMModel = cfg.LLM.Model
	if strings.EqualFold(cfg.LLM.Provider, "bedrock") {
		p.LLMModel = cfg.Bedrock.ModelID
	}
	a := agent.New(completer, logger)

	if o.summarize {
		if filled := a.Summarize(ctx, p.Registry); filled > 0 {
			logger.Info("ontology properties summarized", slog.Int("count", filled))
		}
	}

	p.Controller = ingestion.NewController(ingestion.ControllerDeps{
		Registry:                p.Registry,
		Converter:               convert.New(),
		Chunker:                 chunk.NewDefault(),
		Selector:                a,
		Developer:               a,
		Extractor:               a,
		Aggregator:              aggregate.New(logger),
		Store:                   p.Backends,
		Observer:                p.Metrics,
		Domain:                  cfg.Pipeline.Domain,
		SkipOntologyDevelopment: cfg.Pipeline.SkipOntologyDevelopment,
		Logger:                  logger,
	})
	return p, nil
}

// Open connects the configured triple-store backends and loads the registry
// from the preferred one. The returned Pipeline has no Controller.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	ontology.SetLogger(logger)
	for iri, id := range cfg.ConventionalMappings {
		ontology.RegisterMapping(iri, id)
	}

	p := &Pipeline{Config: cfg, logger: logger, Metrics: metrics.New()}

	backends, err := p.connectBackends(ctx)
	if err != nil {
		p.Close(ctx)
		return nil, err
	}
	p.Backends = triplestore.NewManager(logger, backends...)

	p.Registry = ontology.NewRegistry(logger)
	n, err := p.Registry.Load(ctx, p.Backends)
	if err != nil {
		p.Close(ctx)
		return nil, fmt.Errorf("load ontologies: %w", err)
	}
	logger.Info("ontologies loaded",
		slog.Int("count", n),
		slog.String("backend", p.Backends.Preferred().Name()))
	return p, nil
}

type options struct {
	summarize bool
}

// Option configures NewPipeline.
type Option func(*options)

// WithSummarize fills missing ontology titles, descriptions and versions
// through the LLM before the first document.
func WithSummarize() Option {
	return func(o *options) { o.summarize = true }
}

func (p *Pipeline) connectBackends(ctx context.Context) ([]triplestore.Backend, error) {
	cfg := p.Config
	var backends []triplestore.Backend
	for _, name := range cfg.Pipeline.Backends {
		switch name {
		case "filesystem":
			fs, err := triplestore.NewFilesystem(cfg.Storage.OntologyDirectory, cfg.Storage.WorkingDirectory, cfg.Pipeline.Domain, p.logger)
			if err != nil {
				return nil, err
			}
			backends = append(backends, fs)
		case "minio":
			mc, err := p.minio(ctx)
			if err != nil {
				return nil, err
			}
			backends = append(backends, triplestore.NewMinIO(mc, cfg.Pipeline.Domain, p.logger))
		case "neo4j":
			if cfg.Neo4j.URI == "" {
				return nil, errors.New("NEO4J_URI is required for the neo4j backend")
			}
			gc, err := graph.NewClient(cfg.Neo4j)
			if err != nil {
				return nil, err
			}
			p.Neo4j = gc
			if err := gc.EnsureIndexes(ctx); err != nil {
				return nil, fmt.Errorf("ensure neo4j indexes: %w", err)
			}
			p.logger.Info("connected to neo4j")
			backends = append(backends, triplestore.NewNeo4j(gc, cfg.Pipeline.Domain, p.logger))
		default:
			return nil, fmt.Errorf("unknown triple-store backend %q", name)
		}
	}
	if len(backends) == 0 {
		return nil, triplestore.ErrNoBackends
	}
	return backends, nil
}

// ObjectStore returns the MinIO client, connecting it on first use. It also
// serves document uploads for the queue.
func (p *Pipeline) ObjectStore(ctx context.Context) (*miniostore.Client, error) {
	return p.minio(ctx)
}

func (p *Pipeline) minio(ctx context.Context) (*miniostore.Client, error) {
	if p.MinIO != nil {
		return p.MinIO, nil
	}
	if p.Config.MinIO.Endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is not configured")
	}
	mc, err := miniostore.NewClient(p.Config.MinIO)
	if err != nil {
		return nil, err
	}
	if err := mc.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	p.logger.Info("connected to minio", slog.String("bucket", mc.Bucket()))
	p.MinIO = mc
	return mc, nil
}

// Close releases the graph driver.
func (p *Pipeline) Close(ctx context.Context) {
	if p.Neo4j != nil {
		if err := p.Neo4j.Close(ctx); err != nil {
			p.logger.Warn("close neo4j", slog.String("error", err.Error()))
		}
		p.Neo4j = nil
	}
}

// OpenStore connects to PostgreSQL and applies the run-table migrations.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*store.Store, *pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg.DSN(), cfg.MaxConns, cfg.MinConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return store.New(pool), pool, nil
}

// OpenQueue connects to Valkey.
func OpenQueue(ctx context.Context, cfg config.ValkeyConfig) (valkey.Client, error) {
	return vk.NewClient(ctx, cfg)
}
