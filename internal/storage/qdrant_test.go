//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 4

// setupTestStorage creates a test storage instance with a fresh
// collection. Skips the test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	t.Helper()

	storage, err := NewQdrantStorage("localhost", 6334, "diabetes_docs_test", testDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}

	err = storage.RecreateCollection(context.Background())
	require.NoError(t, err, "Failed to recreate collection")

	return storage
}

func testChunk(text, source string, embedding []float32) *Chunk {
	return &Chunk{
		ID:        uuid.New().String(),
		Text:      text,
		Source:    source,
		Page:      1,
		Embedding: embedding,
	}
}

func TestUpsertAndSearchRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	chunks := []*Chunk{
		testChunk("glucose levels rise after meals", "a.pdf", []float32{1, 0, 0, 0}),
		testChunk("insulin regulates blood sugar", "a.pdf", []float32{0, 1, 0, 0}),
		testChunk("exercise improves insulin sensitivity", "b.pdf", []float32{0, 0, 1, 0}),
	}

	require.NoError(t, storage.UpsertChunks(ctx, chunks))

	// Query closest to the first chunk's vector.
	results, err := storage.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	top := results[0]
	assert.Equal(t, chunks[0].ID, top.Chunk.ID)
	assert.Equal(t, "glucose levels rise after meals", top.Chunk.Text)
	assert.Equal(t, "a.pdf", top.Chunk.Source)
	assert.Equal(t, 1, top.Chunk.Page)
	assert.Greater(t, top.Score, results[1].Score)
}

func TestRecreateCollectionDiscardsPreviousContents(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()

	first := []*Chunk{
		testChunk("stale chunk", "old.pdf", []float32{1, 0, 0, 0}),
		testChunk("another stale chunk", "old.pdf", []float32{0, 1, 0, 0}),
	}
	require.NoError(t, storage.UpsertChunks(ctx, first))

	// Rebuild: previous membership must be discarded, never merged.
	require.NoError(t, storage.RecreateCollection(ctx))

	second := []*Chunk{
		testChunk("fresh chunk", "new.pdf", []float32{1, 0, 0, 0}),
	}
	require.NoError(t, storage.UpsertChunks(ctx, second))

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	results, err := storage.Search(ctx, []float32{1, 0, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "fresh chunk", results[0].Chunk.Text)
}

func TestUpsertChunks_DimensionMismatch(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	err := storage.UpsertChunks(context.Background(), []*Chunk{
		testChunk("wrong dims", "a.pdf", []float32{1, 0}),
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	_, err := storage.Search(context.Background(), []float32{1, 0}, 4)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestUpsertChunks_EmptyIsNoOp(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	require.NoError(t, storage.UpsertChunks(context.Background(), nil))

	count, err := storage.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}
