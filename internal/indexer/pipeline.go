// Package indexer orchestrates the build pipeline (load, split, embed,
// store) and serves retrieval queries against the built index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bull/diabetes-rag/internal/pdf"
	"github.com/bull/diabetes-rag/internal/splitter"
	"github.com/bull/diabetes-rag/internal/storage"
)

// ErrEmptyInput indicates that splitting produced no chunks; an index
// must not be constructed from nothing.
var ErrEmptyInput = errors.New("no chunks to index")

// ErrNoDocuments indicates that the loader found nothing to index.
var ErrNoDocuments = errors.New("no documents found")

// DocumentLoader yields raw text pages from an input path.
type DocumentLoader interface {
	LoadPath(path string) ([]pdf.Page, error)
}

// EmbeddingProvider turns texts into fixed-dimension vectors.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores chunk vectors and answers similarity queries.
type VectorIndex interface {
	RecreateCollection(ctx context.Context) error
	UpsertChunks(ctx context.Context, chunks []*storage.Chunk) error
	Search(ctx context.Context, embedding []float32, limit int) ([]*storage.ScoredChunk, error)
}

// BuildResult contains statistics about an index build.
type BuildResult struct {
	Pages    int
	Chunks   int
	Duration time.Duration
}

// Pipeline wires the loader, splitter, embedder and vector index into
// the build-once / query-many flow.
type Pipeline struct {
	loader   DocumentLoader
	splitter *splitter.Splitter
	embedder EmbeddingProvider
	index    VectorIndex
	docsPath string
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over the given components.
func NewPipeline(
	loader DocumentLoader,
	split *splitter.Splitter,
	embedder EmbeddingProvider,
	index VectorIndex,
	docsPath string,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:   loader,
		splitter: split,
		embedder: embedder,
		index:    index,
		docsPath: docsPath,
		logger:   logger,
	}
}

// Build loads all documents, splits them into chunks, embeds every
// chunk and writes the vectors to a freshly recreated collection. Any
// previous collection contents are discarded. Service failures during
// the build propagate to the caller and abort the run.
func (p *Pipeline) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	pages, err := p.loader.LoadPath(p.docsPath)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoDocuments, p.docsPath)
	}
	p.logger.Info("Loaded documents", "path", p.docsPath, "pages", len(pages))

	chunks := p.splitter.Split(pages)
	if len(chunks) == 0 {
		return nil, ErrEmptyInput
	}
	p.logger.Info("Split pages into chunks", "chunks", len(chunks))

	if err := p.index.RecreateCollection(ctx); err != nil {
		return nil, fmt.Errorf("recreate collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count %d does not match chunk count %d", len(embeddings), len(chunks))
	}

	stored := make([]*storage.Chunk, len(chunks))
	for i, chunk := range chunks {
		stored[i] = &storage.Chunk{
			ID:         uuid.New().String(),
			Text:       chunk.Text,
			Source:     chunk.Source,
			Page:       chunk.Page,
			ChunkIndex: chunk.Index,
			Embedding:  embeddings[i],
		}
	}

	if err := p.index.UpsertChunks(ctx, stored); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result := &BuildResult{
		Pages:    len(pages),
		Chunks:   len(chunks),
		Duration: time.Since(start),
	}
	p.logger.Info("Index build complete",
		"pages", result.Pages,
		"chunks", result.Chunks,
		"duration", result.Duration,
	)
	return result, nil
}

// Query embeds the question and returns the k most similar chunks,
// highest similarity first. The index is read-only at this point;
// queries never mutate it.
func (p *Pipeline) Query(ctx context.Context, question string, k int) ([]*storage.ScoredChunk, error) {
	embeddings, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embed question: provider returned no vectors")
	}

	results, err := p.index.Search(ctx, embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	p.logger.Debug("Retrieved chunks", "question", question, "count", len(results))
	return results, nil
}
