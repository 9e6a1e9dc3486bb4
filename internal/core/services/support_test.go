package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// fakeEmbedder is a deterministic in-memory embedding service.
type fakeEmbedder struct {
	mu         sync.Mutex
	dims       int
	batchSizes []int
	failOn     string // text that makes the containing batch fail
	vectors    map[string][]float32
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	v := make([]float32, f.dims)
	v[0] = float32(len(text))
	v[f.dims-1] = 1
	return v
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vecs, err := f.EmbedBatch(context.Background(), []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(texts))
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.failOn != "" && text == f.failOn {
			return nil, fmt.Errorf("%w: synthetic failure", domain.ErrExternalCapability)
		}
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeEmbedder) recordedBatchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.batchSizes))
	copy(sizes, f.batchSizes)
	return sizes
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake-embed" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// fakeLLM returns a canned response or error.
type fakeLLM struct {
	response string
	err      error

	mu         sync.Mutex
	lastPrompt string
}

var _ driven.LLMService = (*fakeLLM)(nil)

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.lastPrompt = prompt
	f.mu.Unlock()
	return f.response, f.err
}

func (f *fakeLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	f.mu.Lock()
	if len(messages) > 0 {
		f.lastPrompt = messages[len(messages)-1].Content
	}
	f.mu.Unlock()
	return f.response, f.err
}

func (f *fakeLLM) ModelName() string          { return "fake-llm" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

// memIndex is an in-memory vector index with the same contract as
// the persisted one.
type memIndex struct {
	dims    int
	recs    []driven.VectorRecord
	nextKey uint64
}

var _ driven.VectorIndex = (*memIndex)(nil)

func newMemIndex(dims int) *memIndex {
	return &memIndex{dims: dims, nextKey: 1}
}

func (m *memIndex) Merge(_ context.Context, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return domain.ErrEmptyInput
	}
	for _, rec := range records {
		if len(rec.Embedding) != m.dims {
			return domain.ErrIndexIncompatible
		}
	}
	for _, rec := range records {
		rec.Key = m.nextKey
		m.nextKey++
		m.recs = append(m.recs, rec)
	}
	return nil
}

func (m *memIndex) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(m.recs) == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(query) != m.dims {
		return nil, domain.ErrIndexIncompatible
	}
	if k > len(m.recs) {
		k = len(m.recs)
	}

	type scored struct {
		i   int
		sim float64
	}
	scores := make([]scored, len(m.recs))
	for i, rec := range m.recs {
		scores[i] = scored{i: i, sim: cosine(query, rec.Embedding)}
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].sim > scores[b].sim
	})

	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			Chunk:      m.recs[scores[i].i].Chunk,
			Similarity: scores[i].sim,
		}
	}
	return hits, nil
}

func (m *memIndex) Count() int      { return len(m.recs) }
func (m *memIndex) Dimensions() int { return m.dims }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// memStore is an in-memory index store.
type memStore struct {
	saved *memIndex
}

var _ driven.VectorIndexStore = (*memStore)(nil)

func (s *memStore) Create(ctx context.Context, records []driven.VectorRecord) (driven.VectorIndex, error) {
	if len(records) == 0 {
		return nil, domain.ErrEmptyInput
	}
	index := newMemIndex(len(records[0].Embedding))
	if err := index.Merge(ctx, records); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *memStore) Load(_ context.Context, expectDims int) (driven.VectorIndex, error) {
	if s.saved == nil {
		return nil, domain.ErrNotFound
	}
	if expectDims != 0 && expectDims != s.saved.dims {
		return nil, domain.ErrIndexIncompatible
	}
	loaded := newMemIndex(s.saved.dims)
	loaded.recs = append(loaded.recs, s.saved.recs...)
	loaded.nextKey = s.saved.nextKey
	return loaded, nil
}

func (s *memStore) Save(_ context.Context, index driven.VectorIndex) error {
	m, ok := index.(*memIndex)
	if !ok {
		return fmt.Errorf("unexpected index type %T", index)
	}
	snapshot := newMemIndex(m.dims)
	snapshot.recs = append(snapshot.recs, m.recs...)
	snapshot.nextKey = m.nextKey
	s.saved = snapshot
	return nil
}

func (s *memStore) Exists() bool { return s.saved != nil }

// seededStore returns a store persisted with the given records.
func seededStore(records []driven.VectorRecord) *memStore {
	store := &memStore{}
	index, err := store.Create(context.Background(), records)
	if err != nil {
		panic(err)
	}
	if err := store.Save(context.Background(), index); err != nil {
		panic(err)
	}
	return store
}

// fakeChunkStore backs the status service in tests.
type fakeChunkStore struct {
	counts map[string]int
}

var _ driven.ChunkStore = (*fakeChunkStore)(nil)

func (f *fakeChunkStore) SaveChunks(context.Context, []driven.KeyedChunk) error { return nil }
func (f *fakeChunkStore) LoadChunks(context.Context) ([]driven.KeyedChunk, error) {
	return nil, nil
}

func (f *fakeChunkStore) Count(context.Context) (int, error) {
	total := 0
	for _, n := range f.counts {
		total += n
	}
	return total, nil
}

func (f *fakeChunkStore) SourceCounts(context.Context) (map[string]int, error) {
	return f.counts, nil
}

func (f *fakeChunkStore) Close() error { return nil }

// fakeOpener satisfies ChunkStoreOpener.
type fakeOpener struct {
	store *fakeChunkStore
}

func (f *fakeOpener) OpenChunks() (driven.ChunkStore, error) {
	return f.store, nil
}

// chunkOf builds a minimal chunk for tests.
func chunkOf(source, contentText string, page *int, index int) domain.Chunk {
	return domain.Chunk{
		ID:         fmt.Sprintf("%s-%d", source, index),
		SourceID:   source,
		Page:       page,
		ChunkIndex: index,
		Content:    contentText,
	}
}

func pageOf(n int) *int { return &n }
