package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "chunks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func keyedChunk(key uint64, sourceID, content string, page *int) driven.KeyedChunk {
	return driven.KeyedChunk{
		Key: key,
		Chunk: domain.Chunk{
			ID:         content,
			SourceID:   sourceID,
			Page:       page,
			ChunkIndex: int(key) - 1,
			Content:    content,
		},
	}
}

func TestNewStore_EmptyPath(t *testing.T) {
	store, err := NewStore("")
	assert.Nil(t, store)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSaveChunks_LoadChunks_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	page := 7
	in := []driven.KeyedChunk{
		{
			Key: 1,
			Chunk: domain.Chunk{
				ID:         "c1",
				SourceID:   "report.pdf",
				Page:       &page,
				ChunkIndex: 0,
				Content:    "first",
				Metadata:   map[string]any{"title": "report"},
			},
		},
		{
			Key: 2,
			Chunk: domain.Chunk{
				ID:         "c2",
				SourceID:   "notes.txt",
				ChunkIndex: 0,
				Content:    "second",
			},
		},
	}
	require.NoError(t, store.SaveChunks(ctx, in))

	out, err := store.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, uint64(1), out[0].Key)
	assert.Equal(t, "first", out[0].Chunk.Content)
	require.NotNil(t, out[0].Chunk.Page)
	assert.Equal(t, 7, *out[0].Chunk.Page)
	assert.Equal(t, "report", out[0].Chunk.Metadata["title"])

	assert.Equal(t, uint64(2), out[1].Key)
	assert.Nil(t, out[1].Chunk.Page)
	assert.Nil(t, out[1].Chunk.Metadata)
}

func TestLoadChunks_OrderedByKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, []driven.KeyedChunk{
		keyedChunk(3, "a.pdf", "third", nil),
		keyedChunk(1, "a.pdf", "first", nil),
		keyedChunk(2, "a.pdf", "second", nil),
	}))

	out, err := store.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, uint64(1), out[0].Key)
	assert.Equal(t, uint64(2), out[1].Key)
	assert.Equal(t, uint64(3), out[2].Key)
}

func TestSaveChunks_ReplacesOnKeyConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, []driven.KeyedChunk{
		keyedChunk(1, "a.pdf", "original", nil),
	}))
	require.NoError(t, store.SaveChunks(ctx, []driven.KeyedChunk{
		keyedChunk(1, "a.pdf", "replaced", nil),
	}))

	out, err := store.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "replaced", out[0].Chunk.Content)
}

func TestCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.SaveChunks(ctx, []driven.KeyedChunk{
		keyedChunk(1, "a.pdf", "one", nil),
		keyedChunk(2, "a.pdf", "two", nil),
	}))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSourceCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveChunks(ctx, []driven.KeyedChunk{
		keyedChunk(1, "a.pdf", "one", nil),
		keyedChunk(2, "a.pdf", "two", nil),
		keyedChunk(3, "b.txt", "three", nil),
	}))

	counts, err := store.SourceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a.pdf": 2, "b.txt": 1}, counts)
}

func TestMigrate_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunks.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunks(context.Background(), []driven.KeyedChunk{
		keyedChunk(1, "a.pdf", "one", nil),
	}))
	require.NoError(t, store.Close())

	// Reopening runs migrations again without clobbering data.
	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
