package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloo-solutions/mcqgen/internal/generator"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MCQGEN"

type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	Debug   bool   `envconfig:"DEBUG" default:"false"`
	LogMode string `envconfig:"LOG_MODE" default:"production"`

	DatabaseURL      string `envconfig:"DATABASE_URL" required:"true"`
	DatabaseMaxConns int32  `envconfig:"DATABASE_MAX_CONNS" default:"10"`

	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"mcq-exports"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL"`
	OpenAIChatModel      string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-4o-mini"`
	OpenAIEmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// Embedding cache. Without REDIS_URL embeddings are not cached.
	RedisURL          string        `envconfig:"REDIS_URL"`
	EmbeddingCacheTTL time.Duration `envconfig:"EMBEDDING_CACHE_TTL" default:"168h"`

	APIKey             string        `envconfig:"API_KEY"`
	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"10s"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// PipelineConfig optionally names a YAML file overriding generator options.
	PipelineConfig string `envconfig:"PIPELINE_CONFIG"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.WorkerPollInterval <= 0 {
		return nil, errors.New("WORKER_POLL_INTERVAL must be positive")
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && (c.S3Endpoint != "" || c.S3AccessKey != "")
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

// TracesSampleRate samples every trace in development and a tenth elsewhere.
func (c *Config) TracesSampleRate() float64 {
	if c.Environment == "development" {
		return 1.0
	}
	return 0.1
}

// PipelineOptions returns the generator defaults overlaid with the file named
// by PIPELINE_CONFIG, if any.
func (c *Config) PipelineOptions() (generator.Options, error) {
	if c.PipelineConfig == "" {
		return generator.DefaultOptions(), nil
	}
	return LoadPipelineOptions(c.PipelineConfig)
}

// LoadPipelineOptions reads a YAML overlay from path. Keys absent from the
// file keep their default; unknown keys are rejected.
func LoadPipelineOptions(path string) (generator.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return generator.Options{}, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	return ParsePipelineOptions(data)
}

func ParsePipelineOptions(data []byte) (generator.Options, error) {
	opts := generator.DefaultOptions()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return generator.Options{}, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	if err := opts.Validate(); err != nil {
		return generator.Options{}, err
	}
	return opts, nil
}
