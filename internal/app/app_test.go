package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maraichr/ontograph/internal/config"
	"github.com/maraichr/ontograph/internal/rdf"
	"github.com/maraichr/ontograph/internal/triplestore"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T, backends ...string) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		LLM: config.LLMConfig{Provider: "openai", APIKey: "test", Model: "gpt-4.1-mini"},
		Pipeline: config.PipelineConfig{
			Domain:    "https://example.com",
			MaxVisits: 3,
			Backends:  backends,
		},
		Storage: config.StorageConfig{
			OntologyDirectory: filepath.Join(root, "ontologies"),
			WorkingDirectory:  filepath.Join(root, "facts"),
		},
		ConventionalMappings: map[string]string{"https://w3id.org/example/core": "excore"},
	}
}

func TestNewPipelineFilesystem(t *testing.T) {
	cfg := testConfig(t, "filesystem")
	require.NoError(t, os.MkdirAll(cfg.Storage.OntologyDirectory, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Storage.OntologyDirectory, "inv.ttl"),
		[]byte("<https://example.com/inv#Item> <"+rdf.RDFType+"> <"+rdf.NSRDFS+"Class> .\n"), 0o644))

	p, err := NewPipeline(context.Background(), cfg, discard)
	require.NoError(t, err)
	defer p.Close(context.Background())

	assert.Equal(t, 1, p.Registry.Len())
	assert.Equal(t, []string{"filesystem"}, p.Backends.Names())
	assert.Equal(t, "gpt-4.1-mini", p.LLMModel)
	assert.NotNil(t, p.Controller)
	assert.Nil(t, p.MinIO)
	assert.Nil(t, p.Neo4j)
}

func TestNewPipelineErrors(t *testing.T) {
	tests := []struct {
		name     string
		backends []string
		mutate   func(*config.Config)
		contains string
	}{
		{name: "no backends", contains: triplestore.ErrNoBackends.Error()},
		{name: "unknown backend", backends: []string{"sparql"}, contains: `unknown triple-store backend "sparql"`},
		{name: "neo4j without uri", backends: []string{"neo4j"}, contains: "NEO4J_URI"},
		{name: "minio without endpoint", backends: []string{"minio"}, contains: "MINIO_ENDPOINT"},
		{
			name:     "missing llm key",
			backends: []string{"filesystem"},
			mutate:   func(c *config.Config) { c.LLM.APIKey = "" },
			contains: "LLM_API_KEY",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, tt.backends...)
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			_, err := NewPipeline(context.Background(), cfg, discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestBedrockModelName(t *testing.T) {
	if testing.Short() {
		t.Skip("loads AWS configuration")
	}
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	cfg := testConfig(t, "filesystem")
	cfg.LLM.Provider = "bedrock"
	cfg.Bedrock = config.BedrockConfig{Region: "us-east-1", ModelID: "anthropic.claude-3-5-haiku-20241022-v1:0"}

	p, err := NewPipeline(context.Background(), cfg, discard)
	require.NoError(t, err)
	assert.Equal(t, cfg.Bedrock.ModelID, p.LLMModel)
}

func TestOpenWithoutLLM(t *testing.T) {
	cfg := testConfig(t, "filesystem")
	cfg.LLM.APIKey = ""

	p, err := Open(context.Background(), cfg, discard)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Registry.Len())
	assert.Nil(t, p.Controller)
}
