package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Neo4j    Neo4jConfig
	Bedrock  BedrockConfig
	Valkey   ValkeyConfig
	MinIO    MinIOConfig
	S3       S3Config
	LLM      LLMConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Auth     AuthConfig
	MCP      MCPConfig

	// ConventionalMappings extends the identifier deriver's IRI table.
	ConventionalMappings map[string]string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string // empty selects the server default
}

type BedrockConfig struct {
	Region  string
	ModelID string
}

type ValkeyConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type S3Config struct {
	Region   string // S3_REGION
	Bucket   string // S3_BUCKET
	Prefix   string // S3_PREFIX (optional default prefix)
	Endpoint string // S3_ENDPOINT (for MinIO/LocalStack compatibility)
}

// LLMConfig selects the completion provider. Provider is "openai" (any
// chat-completions compatible endpoint) or "bedrock".
type LLMConfig struct {
	Provider    string
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type PipelineConfig struct {
	Domain                  string
	MaxVisits               int
	MaxChunks               int
	SkipOntologyDevelopment bool
	Backends                []string
	Concurrency             int
}

type StorageConfig struct {
	OntologyDirectory string
	WorkingDirectory  string
}

type AuthConfig struct {
	Enabled      bool
	IssuerURL    string
	PublicIssuer string
	Audience     string
}

type MCPConfig struct {
	Port    int
	BaseURL string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8999),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SECS", 30)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SECS", 600)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "ontograph"),
			Password: getEnv("DB_PASSWORD", "ontograph"),
			Name:     getEnv("DB_NAME", "ontograph"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 2)),
		},
		Neo4j: Neo4jConfig{
			URI:      getEnv("NEO4J_URI", ""),
			User:     getEnv("NEO4J_USER", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "ontograph"),
			Database: getEnv("NEO4J_DATABASE", ""),
		},
		Bedrock: BedrockConfig{
			Region:  getEnv("BEDROCK_REGION", "us-east-1"),
			ModelID: getEnv("BEDROCK_MODEL_ID", "anthropic.claude-3-5-haiku-20241022-v1:0"),
		},
		Valkey: ValkeyConfig{
			Addr:     getEnv("VALKEY_ADDR", "localhost:6379"),
			Password: getEnv("VALKEY_PASSWORD", ""),
			DB:       getEnvInt("VALKEY_DB", 0),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "ontograph"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "ontograph123"),
			Bucket:    getEnv("MINIO_BUCKET", "ontograph"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		S3: S3Config{
			Region:   getEnv("S3_REGION", ""),
			Bucket:   getEnv("S3_BUCKET", ""),
			Prefix:   getEnv("S3_PREFIX", ""),
			Endpoint: getEnv("S3_ENDPOINT", ""),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			APIKey:      getEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4.1-mini"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 4096),
			Timeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SECS", 120)) * time.Second,
		},
		Pipeline: PipelineConfig{
			Domain:                  strings.TrimRight(getEnv("CURRENT_DOMAIN", "https://example.com"), "/"),
			MaxVisits:               getEnvInt("PIPELINE_MAX_VISITS", 3),
			MaxChunks:               getEnvInt("PIPELINE_MAX_CHUNKS", 0),
			SkipOntologyDevelopment: getEnvBool("PIPELINE_SKIP_ONTOLOGY_DEVELOPMENT", false),
			Backends:                splitList(getEnv("PIPELINE_BACKENDS", "filesystem")),
			Concurrency:             getEnvInt("PIPELINE_CONCURRENCY", 4),
		},
		Storage: StorageConfig{
			OntologyDirectory: getEnv("ONTOLOGY_DIRECTORY", "data/ontologies"),
			WorkingDirectory:  getEnv("WORKING_DIRECTORY", "data/facts"),
		},
		Auth: AuthConfig{
			Enabled:      getEnvBool("AUTH_ENABLED", false),
			IssuerURL:    getEnv("AUTH_ISSUER_URL", ""),
			PublicIssuer: getEnv("AUTH_PUBLIC_ISSUER", ""),
			Audience:     getEnv("AUTH_AUDIENCE", "ontograph"),
		},
		MCP: MCPConfig{
			Port:    getEnvInt("MCP_PORT", 9001),
			BaseURL: getEnv("MCP_BASE_URL", ""),
		},
	}

	if path := os.Getenv("ONTOGRAPH_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.Auth.Enabled && cfg.Auth.IssuerURL == "" {
		return nil, fmt.Errorf("AUTH_ISSUER_URL is required when AUTH_ENABLED=true")
	}
	return cfg, nil
}

// fileConfig is the YAML overlay. Only fields present in the file override
// the environment.
type fileConfig struct {
	Pipeline struct {
		Domain                  *string  `yaml:"domain"`
		MaxVisits               *int     `yaml:"max_visits"`
		MaxChunks               *int     `yaml:"max_chunks"`
		SkipOntologyDevelopment *bool    `yaml:"skip_ontology_development"`
		Backends                []string `yaml:"backends"`
		Concurrency             *int     `yaml:"concurrency"`
	} `yaml:"pipeline"`
	Storage struct {
		OntologyDirectory *string `yaml:"ontology_directory"`
		WorkingDirectory  *string `yaml:"working_directory"`
	} `yaml:"storage"`
	ConventionalMappings map[string]string `yaml:"conventional_mappings"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	return c.applyYAML(data)
}

func (c *Config) applyYAML(data []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	p := f.Pipeline
	if p.Domain != nil {
		c.Pipeline.Domain = strings.TrimRight(*p.Domain, "/")
	}
	if p.MaxVisits != nil {
		c.Pipeline.MaxVisits = *p.MaxVisits
	}
	if p.MaxChunks != nil {
		c.Pipeline.MaxChunks = *p.MaxChunks
	}
	if p.SkipOntologyDevelopment != nil {
		c.Pipeline.SkipOntologyDevelopment = *p.SkipOntologyDevelopment
	}
	if len(p.Backends) > 0 {
		c.Pipeline.Backends = p.Backends
	}
	if p.Concurrency != nil {
		c.Pipeline.Concurrency = *p.Concurrency
	}
	if f.Storage.OntologyDirectory != nil {
		c.Storage.OntologyDirectory = *f.Storage.OntologyDirectory
	}
	if f.Storage.WorkingDirectory != nil {
		c.Storage.WorkingDirectory = *f.Storage.WorkingDirectory
	}
	if len(f.ConventionalMappings) > 0 {
		c.ConventionalMappings = f.ConventionalMappings
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}
