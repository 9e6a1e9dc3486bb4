package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// fileChunkStore is a JSON-file ChunkStore used in place of the
// sqlite adapter to keep these tests self-contained.
type fileChunkStore struct {
	path string
}

func openFileChunkStore(path string) (driven.ChunkStore, error) {
	return &fileChunkStore{path: path}, nil
}

func (f *fileChunkStore) SaveChunks(_ context.Context, chunks []driven.KeyedChunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o644)
}

func (f *fileChunkStore) LoadChunks(_ context.Context) ([]driven.KeyedChunk, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var chunks []driven.KeyedChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (f *fileChunkStore) Count(ctx context.Context) (int, error) {
	chunks, err := f.LoadChunks(ctx)
	if err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (f *fileChunkStore) SourceCounts(ctx context.Context) (map[string]int, error) {
	chunks, err := f.LoadChunks(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, kc := range chunks {
		counts[kc.Chunk.SourceID]++
	}
	return counts, nil
}

func (f *fileChunkStore) Close() error {
	return nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "index"), openFileChunkStore)
	require.NoError(t, err)
	return store
}

func TestNewStore_Invalid(t *testing.T) {
	_, err := NewStore("", openFileChunkStore)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = NewStore("somewhere", nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCreate(t *testing.T) {
	store := newTestStore(t)

	idx, err := store.Create(context.Background(), []driven.VectorRecord{
		rec("a", 1, 0, 0),
		rec("b", 0, 1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Count())
	assert.Equal(t, 3, idx.Dimensions())
}

func TestCreate_Empty(t *testing.T) {
	store := newTestStore(t)

	idx, err := store.Create(context.Background(), nil)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	page := 3
	records := []driven.VectorRecord{
		{
			Chunk: domain.Chunk{
				ID:         "c1",
				SourceID:   "report.pdf",
				Page:       &page,
				ChunkIndex: 0,
				Content:    "first chunk",
				Metadata:   map[string]any{"title": "report"},
			},
			Embedding: []float32{0.1, 0.2, 0.3},
		},
		{
			Chunk: domain.Chunk{
				ID:         "c2",
				SourceID:   "report.pdf",
				ChunkIndex: 1,
				Content:    "second chunk",
			},
			Embedding: []float32{-0.5, 0.25, 0.125},
		},
	}

	idx, err := store.Create(ctx, records)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))
	assert.True(t, store.Exists())

	loaded, err := store.Load(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, idx.Count(), loaded.Count())
	assert.Equal(t, idx.Dimensions(), loaded.Dimensions())

	// Search behaves identically on the loaded index.
	hits, err := loaded.Search(ctx, []float32{0.1, 0.2, 0.3}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "first chunk", hits[0].Chunk.Content)
	assert.Equal(t, "report.pdf", hits[0].Chunk.SourceID)
	require.NotNil(t, hits[0].Chunk.Page)
	assert.Equal(t, 3, *hits[0].Chunk.Page)
	assert.Nil(t, hits[1].Chunk.Page)
}

func TestSaveLoad_KeysSurviveAndMergeContinues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []driven.VectorRecord{rec("a", 1, 0), rec("b", 0, 1)}
	idx, err := store.Create(ctx, first)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	loaded, err := store.Load(ctx, 2)
	require.NoError(t, err)

	// New records merged after a load must not reuse stored keys.
	more := []driven.VectorRecord{rec("c", 1, 1)}
	require.NoError(t, loaded.Merge(ctx, more))
	assert.Equal(t, uint64(3), more[0].Key)
}

func TestLoad_NoIndex(t *testing.T) {
	store := newTestStore(t)

	idx, err := store.Load(context.Background(), 0)
	assert.Nil(t, idx)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, store.Exists())
}

func TestLoad_DimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idx, err := store.Create(ctx, []driven.VectorRecord{rec("a", 1, 0, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	loaded, err := store.Load(ctx, 768)
	assert.Nil(t, loaded)
	assert.ErrorIs(t, err, domain.ErrIndexIncompatible)

	// expectDims zero skips the check.
	loaded, err = store.Load(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Dimensions())
}

func TestSave_ReplacesPreviousIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idx, err := store.Create(ctx, []driven.VectorRecord{rec("a", 1, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	require.NoError(t, idx.Merge(ctx, []driven.VectorRecord{rec("b", 0, 1)}))
	require.NoError(t, store.Save(ctx, idx))

	loaded, err := store.Load(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Count())

	// No staging or backup directories left behind.
	parent := filepath.Dir(store.Dir())
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(store.Dir()), entries[0].Name())
}

func TestLoad_CorruptVectorsFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idx, err := store.Create(ctx, []driven.VectorRecord{rec("a", 1, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	path := filepath.Join(store.Dir(), "vectors.bin")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err = store.Load(ctx, 0)
	assert.Error(t, err)
}

func TestLoad_HugeCountHeader(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	idx, err := store.Create(ctx, []driven.VectorRecord{rec("a", 1, 0)})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	// A valid header claiming far more records than the file holds.
	header := make([]byte, 20)
	copy(header, fileMagic)
	binary.LittleEndian.PutUint32(header[4:], fileVersion)
	binary.LittleEndian.PutUint32(header[8:], 2)
	binary.LittleEndian.PutUint64(header[12:], 1<<40)
	path := filepath.Join(store.Dir(), vectorsFile)
	require.NoError(t, os.WriteFile(path, header, 0o644))

	_, err = store.Load(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrIndexIncompatible)
}

func TestOpenChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.OpenChunks()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	idx, err := store.Create(ctx, []driven.VectorRecord{rec("a", 1, 0), rec("b", 0, 1)})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, idx))

	chunks, err := store.OpenChunks()
	require.NoError(t, err)
	defer chunks.Close()

	count, err := chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
