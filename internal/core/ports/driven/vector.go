package driven

import (
	"context"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

// VectorRecord pairs a chunk with its embedding. The record key is
// assigned by the index at insertion time and is unique and stable
// across save/load cycles.
type VectorRecord struct {
	// Key is the stable record key within one index. Zero until the
	// record has been inserted.
	Key uint64

	// Chunk is the originating chunk.
	Chunk domain.Chunk

	// Embedding is the vector representation. Every record in an
	// index has the same dimension.
	Embedding []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score.
	Similarity float64
}

// VectorIndex stores (vector, chunk) pairs and supports similarity
// search over them. Indices are append-only: records are merged in,
// never deleted or rewritten.
//
// Implementations must support single-writer/multiple-reader
// discipline: a merge or save in progress is never observed in a
// partial state by a concurrent search.
type VectorIndex interface {
	// Merge appends records to the index without disturbing existing
	// record keys. This is the only incremental-update path; the
	// result is the same record set as rebuilding from the union.
	// Fails with domain.ErrEmptyInput for zero records and with
	// domain.ErrIndexIncompatible for a dimension mismatch.
	Merge(ctx context.Context, records []VectorRecord) error

	// Search returns the k records whose embedding is closest to the
	// query vector under cosine similarity, descending, ties broken
	// by insertion order. k is clamped to the index size. Fails with
	// domain.ErrEmptyIndex when the index has zero records.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Count returns the number of records.
	Count() int

	// Dimensions returns the fixed vector dimension of the index.
	Dimensions() int
}

// VectorIndexStore creates, persists, and loads vector indices at a
// configured location.
type VectorIndexStore interface {
	// Create builds a new index from a non-empty record sequence.
	// Fails with domain.ErrEmptyInput for zero records.
	Create(ctx context.Context, records []VectorRecord) (VectorIndex, error)

	// Load reads the persisted index. Fails with domain.ErrNotFound
	// when nothing has been saved, and with domain.ErrIndexIncompatible
	// when the stored dimension does not match expectDims (when
	// expectDims is non-zero).
	Load(ctx context.Context, expectDims int) (VectorIndex, error)

	// Save durably persists the index. Load(Save(x)) is observationally
	// equivalent to x for record content, order, keys, and count. A
	// crash during save never leaves a truncated or mismatched index
	// on disk.
	Save(ctx context.Context, index VectorIndex) error

	// Exists reports whether a persisted index is present.
	Exists() bool
}

// KeyedChunk pairs a record key with its chunk for persistence.
type KeyedChunk struct {
	Key   uint64
	Chunk domain.Chunk
}

// ChunkStore persists the mapping from record key to chunk.
// It is one half of the persisted index layout; the vector array is
// the other.
type ChunkStore interface {
	// SaveChunks stores keyed chunks.
	SaveChunks(ctx context.Context, chunks []KeyedChunk) error

	// LoadChunks returns all keyed chunks ordered by key.
	LoadChunks(ctx context.Context) ([]KeyedChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// SourceCounts returns the number of chunks per source.
	SourceCounts(ctx context.Context) (map[string]int, error)

	// Close releases resources.
	Close() error
}
