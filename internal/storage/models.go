package storage

// Chunk is a text chunk with its embedding vector, ready for indexing.
// Source and Page identify the originating PDF page so answers can cite
// it. Chunks are never mutated after creation.
type Chunk struct {
	ID         string // UUID
	Text       string
	Source     string // originating PDF file path
	Page       int    // 1-based page number within Source
	ChunkIndex int    // ordinal among the source file's chunks
	Embedding  []float32
}

// ScoredChunk is a retrieved chunk with its similarity score.
// Embedding is not populated on retrieval.
type ScoredChunk struct {
	Chunk *Chunk
	Score float64
}
