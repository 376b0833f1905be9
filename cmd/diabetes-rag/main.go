// Package main provides the diabetes-rag CLI: index a set of PDF
// documents and answer questions about them interactively.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/diabetes-rag/internal/answerer"
	"github.com/bull/diabetes-rag/internal/chat"
	"github.com/bull/diabetes-rag/internal/config"
	"github.com/bull/diabetes-rag/internal/embedding"
	"github.com/bull/diabetes-rag/internal/indexer"
	"github.com/bull/diabetes-rag/internal/pdf"
	"github.com/bull/diabetes-rag/internal/splitter"
	"github.com/bull/diabetes-rag/internal/storage"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "diabetes-rag",
	Short: "Question answering over diabetes PDF documents",
	Long: `Indexes a directory of PDF documents into Qdrant and answers
questions about them with an OpenAI chat model, citing the source
passages used.

The index is rebuilt from scratch on every run: any existing collection
of the configured name is discarded first.

Environment variables:
  DOCS_PATH       PDF file or directory of PDFs (default: ./docs)
  COLLECTION_NAME Qdrant collection name (default: diabetes_docs)
  QDRANT_HOST     Qdrant hostname (default: localhost)
  QDRANT_PORT     Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY  OpenAI API key (required)
  EMBED_MODEL     Embedding model (default: text-embedding-3-small)
  CHAT_MODEL      Chat model (default: gpt-4o)
  TOP_K           Chunks retrieved per question (default: 4)`,
	RunE: runChat,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the document index and exit",
	Long:  "Loads the PDFs, rebuilds the Qdrant collection and exits without entering the question loop.",
	RunE:  runIndex,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to YAML config file (optional)")
	rootCmd.AddCommand(indexCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires the full stack from configuration. The caller
// owns closing the returned store.
func buildPipeline(cfg *config.Config) (*indexer.Pipeline, *answerer.Answerer, *storage.QdrantStorage, error) {
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := storage.NewQdrantStorage(cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName, cfg.EmbedDimension)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	fmt.Println("Qdrant healthy")

	client, err := embedding.NewClient()
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	embedder := embedding.NewEmbedder(client, cfg.EmbedModel, cfg.EmbedBatchSize)
	loader := pdf.NewLoader(nil)

	split, err := splitter.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	pipeline := indexer.NewPipeline(loader, split, embedder, store, cfg.DocsPath, nil)
	generator := answerer.NewOpenAIGenerator(client, cfg.ChatModel)
	asker := answerer.New(pipeline, generator, cfg.TopK)

	return pipeline, asker, store, nil
}

// buildIndex runs the build stage with console status reporting.
// Missing input is reported and surfaced as a plain failure without a
// stack trace.
func buildIndex(ctx context.Context, cfg *config.Config, pipeline *indexer.Pipeline, store *storage.QdrantStorage) error {
	fmt.Printf("Indexing documents from %s...\n", cfg.DocsPath)

	result, err := pipeline.Build(ctx)
	if err != nil {
		if errors.Is(err, indexer.ErrNoDocuments) || errors.Is(err, indexer.ErrEmptyInput) {
			fmt.Printf("Nothing to index: %v\n", err)
			return fmt.Errorf("no indexable content at %s", cfg.DocsPath)
		}
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Println("Index built")
	fmt.Printf("  Pages: %d\n", result.Pages)
	fmt.Printf("  Chunks: %d\n", result.Chunks)
	if count, err := store.Count(ctx); err == nil {
		fmt.Printf("  Stored points: %d\n", count)
	}
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Millisecond))
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pipeline, asker, store, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := buildIndex(ctx, cfg, pipeline, store); err != nil {
		return err
	}

	fmt.Println()
	loop := chat.New(asker, os.Stdin, os.Stdout, cfg.PreviewChars)
	return loop.Run(ctx)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	pipeline, _, store, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return buildIndex(cmd.Context(), cfg, pipeline, store)
}
