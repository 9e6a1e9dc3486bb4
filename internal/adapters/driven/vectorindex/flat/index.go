// Package flat provides an exact brute-force vector index.
//
// Vectors live in a single append-only arena so a search touches one
// contiguous allocation. Every query is compared against every record
// under cosine similarity, which keeps recall exact and makes the
// index trivially mergeable. The corpus sizes a single CLI ingests
// stay well inside what a linear scan handles interactively.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exact in-memory vector index. A single RWMutex gives
// single-writer/multiple-reader discipline: searches proceed
// concurrently, a merge excludes them.
type Index struct {
	mu sync.RWMutex

	dims    int
	arena   []float32
	keys    []uint64
	chunks  []domain.Chunk
	nextKey uint64
}

// New creates an empty index with a fixed vector dimension.
func New(dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("dimension %d must be positive: %w", dims, domain.ErrConfiguration)
	}
	return &Index{
		dims:    dims,
		nextKey: 1,
	}, nil
}

// Merge appends records to the index. Keys are assigned in insertion
// order and written back into the given records. Existing records and
// their keys are untouched.
func (idx *Index) Merge(ctx context.Context, records []driven.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records to merge: %w", domain.ErrEmptyInput)
	}
	for i, rec := range records {
		if len(rec.Embedding) != idx.dims {
			return fmt.Errorf("record %d has dimension %d, index has %d: %w",
				i, len(rec.Embedding), idx.dims, domain.ErrIndexIncompatible)
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range records {
		records[i].Key = idx.nextKey
		idx.nextKey++

		idx.keys = append(idx.keys, records[i].Key)
		idx.arena = append(idx.arena, records[i].Embedding...)
		idx.chunks = append(idx.chunks, records[i].Chunk)
	}

	return nil
}

// Search returns the k nearest records under cosine similarity,
// descending, ties broken by insertion order. k is clamped to the
// index size.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) == 0 || k <= 0 {
		return nil, fmt.Errorf("empty query: %w", domain.ErrEmptyInput)
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), idx.dims, domain.ErrIndexIncompatible)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	count := len(idx.keys)
	if count == 0 {
		return nil, fmt.Errorf("index has no records: %w", domain.ErrEmptyIndex)
	}
	if k > count {
		k = count
	}

	scores := make([]float64, count)
	for i := 0; i < count; i++ {
		scores[i] = cosineSimilarity(query, idx.arena[i*idx.dims:(i+1)*idx.dims])
	}

	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		return ia < ib
	})

	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			Chunk:      idx.chunks[order[i]],
			Similarity: scores[order[i]],
		}
	}
	return hits, nil
}

// Count returns the number of records.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.keys)
}

// Dimensions returns the fixed vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// records returns a snapshot of every record in insertion order.
// Embeddings are copied so the snapshot survives later merges.
func (idx *Index) records() []driven.VectorRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]driven.VectorRecord, len(idx.keys))
	for i := range idx.keys {
		embedding := make([]float32, idx.dims)
		copy(embedding, idx.arena[i*idx.dims:(i+1)*idx.dims])
		out[i] = driven.VectorRecord{
			Key:       idx.keys[i],
			Chunk:     idx.chunks[i],
			Embedding: embedding,
		}
	}
	return out
}

// restore rebuilds an index from persisted records, trusting their
// stored keys.
func restore(dims int, records []driven.VectorRecord) (*Index, error) {
	idx, err := New(dims)
	if err != nil {
		return nil, err
	}

	var maxKey uint64
	for i, rec := range records {
		if len(rec.Embedding) != dims {
			return nil, fmt.Errorf("record %d has dimension %d, index has %d: %w",
				i, len(rec.Embedding), dims, domain.ErrIndexIncompatible)
		}
		idx.keys = append(idx.keys, rec.Key)
		idx.arena = append(idx.arena, rec.Embedding...)
		idx.chunks = append(idx.chunks, rec.Chunk)
		if rec.Key > maxKey {
			maxKey = rec.Key
		}
	}
	idx.nextKey = maxKey + 1

	return idx, nil
}

// cosineSimilarity computes the cosine of the angle between two
// vectors, accumulating in float64 for stability. A zero vector
// scores 0 against everything.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
