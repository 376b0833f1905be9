// Package config loads the process configuration once at startup.
// The resulting Config is immutable for the lifetime of the run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the pipeline. It is populated from an
// optional YAML file, then overridden by environment variables, and
// never mutated after Load returns.
type Config struct {
	// DocsPath is a single .pdf file or a directory of .pdf files.
	DocsPath string `yaml:"docs_path"`

	// CollectionName identifies the Qdrant collection. The collection is
	// recreated from scratch on every run.
	CollectionName string `yaml:"collection"`

	QdrantHost string `yaml:"qdrant_host"`
	QdrantPort int    `yaml:"qdrant_port"`

	// EmbedModel and EmbedDimension must agree: text-embedding-3-small
	// produces 1536-dimension vectors.
	EmbedModel     string `yaml:"embed_model"`
	EmbedDimension int    `yaml:"embed_dimension"`
	EmbedBatchSize int    `yaml:"embed_batch_size"`

	ChatModel string `yaml:"chat_model"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// TopK is the number of chunks retrieved per question.
	TopK int `yaml:"top_k"`

	// PreviewChars bounds how much of each cited chunk is printed.
	PreviewChars int `yaml:"preview_chars"`
}

// Default configuration values. Chunk size and overlap follow the
// recursive splitter defaults (1000/200 characters).
const (
	DefaultCollectionName = "diabetes_docs"
	DefaultEmbedModel     = "text-embedding-3-small"
	DefaultEmbedDimension = 1536
	DefaultChatModel      = "gpt-4o"
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultTopK           = 4
	DefaultPreviewChars   = 200
)

// Load reads configuration from the YAML file at path (missing file is
// fine, defaults apply), then applies environment variable overrides,
// then validates. Call godotenv.Load before this if a .env file should
// contribute to the environment.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		DocsPath:       "./docs",
		CollectionName: DefaultCollectionName,
		QdrantHost:     "localhost",
		QdrantPort:     6334,
		EmbedModel:     DefaultEmbedModel,
		EmbedDimension: DefaultEmbedDimension,
		ChatModel:      DefaultChatModel,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopK:           DefaultTopK,
		PreviewChars:   DefaultPreviewChars,
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.DocsPath, "DOCS_PATH")
	setString(&cfg.CollectionName, "COLLECTION_NAME")
	setString(&cfg.QdrantHost, "QDRANT_HOST")
	setInt(&cfg.QdrantPort, "QDRANT_PORT")
	setString(&cfg.EmbedModel, "EMBED_MODEL")
	setInt(&cfg.EmbedDimension, "EMBED_DIMENSION")
	setInt(&cfg.EmbedBatchSize, "EMBED_BATCH_SIZE")
	setString(&cfg.ChatModel, "CHAT_MODEL")
	setInt(&cfg.ChunkSize, "CHUNK_SIZE")
	setInt(&cfg.ChunkOverlap, "CHUNK_OVERLAP")
	setInt(&cfg.TopK, "TOP_K")
	setInt(&cfg.PreviewChars, "PREVIEW_CHARS")
}

func (c *Config) validate() error {
	if c.DocsPath == "" {
		return fmt.Errorf("docs_path must not be empty")
	}
	if c.CollectionName == "" {
		return fmt.Errorf("collection must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.EmbedDimension <= 0 {
		return fmt.Errorf("embed_dimension must be positive, got %d", c.EmbedDimension)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.TopK)
	}
	if c.PreviewChars <= 0 {
		return fmt.Errorf("preview_chars must be positive, got %d", c.PreviewChars)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}
