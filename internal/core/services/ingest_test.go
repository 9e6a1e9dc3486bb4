package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/loaders"
	"github.com/lexica-labs/docq-cli/internal/loaders/plaintext"
	"github.com/lexica-labs/docq-cli/internal/postprocessors"
	"github.com/lexica-labs/docq-cli/internal/postprocessors/chunker"
)

// ingestFixture wires an ingest service over real loaders and
// chunking with in-memory embedding and index storage.
func ingestFixture(t *testing.T) (*IngestService, *memStore, *fakeEmbedder) {
	t.Helper()

	registry := loaders.NewRegistry()
	registry.Register(plaintext.New())

	proc, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(10))
	require.NoError(t, err)
	pipeline := postprocessors.NewPipeline(proc)

	embedder := newFakeEmbedder(4)
	gateway, err := NewEmbeddingGateway(embedder, batchSettings(100, 100_000, 1))
	require.NoError(t, err)

	store := &memStore{}
	return NewIngestService(registry, pipeline, gateway, store), store, embedder
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestService_Ingest_CreatesIndex(t *testing.T) {
	svc, store, _ := ingestFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "A short note about nothing in particular.")

	report, err := svc.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", report.SourceID)
	assert.Equal(t, 1, report.Pages)
	assert.Equal(t, 1, report.Chunks)
	assert.Equal(t, 1, report.Batches)
	assert.Equal(t, 1, report.IndexRecords)
	assert.True(t, store.Exists())
}

func TestIngestService_Ingest_MergesIntoExistingIndex(t *testing.T) {
	svc, store, _ := ingestFixture(t)
	dir := t.TempDir()

	first := writeFile(t, dir, "one.txt", strings.Repeat("alpha ", 40))
	second := writeFile(t, dir, "two.txt", strings.Repeat("beta ", 40))

	firstReport, err := svc.Ingest(context.Background(), first)
	require.NoError(t, err)

	secondReport, err := svc.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.Greater(t, firstReport.IndexRecords, 0)
	assert.Equal(t, firstReport.IndexRecords+secondReport.Chunks, secondReport.IndexRecords)

	// Chunks from both sources survive in the persisted index.
	index, err := store.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, secondReport.IndexRecords, index.Count())
}

func TestIngestService_Ingest_UnsupportedFormat(t *testing.T) {
	svc, _, _ := ingestFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "image.png", "not really an image")

	_, err := svc.Ingest(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIngestService_Ingest_MissingFile(t *testing.T) {
	svc, _, _ := ingestFixture(t)

	_, err := svc.Ingest(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestIngestService_Ingest_EmptyDocument(t *testing.T) {
	svc, store, _ := ingestFixture(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.txt", "")

	report, err := svc.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Pages)
	assert.Equal(t, 0, report.Chunks)
	assert.Equal(t, 0, report.Batches)
	assert.False(t, store.Exists(), "an empty document must not create an index")
}

func TestIngestService_Ingest_BatchesLongDocuments(t *testing.T) {
	registry := loaders.NewRegistry()
	registry.Register(plaintext.New())

	proc, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(0))
	require.NoError(t, err)
	pipeline := postprocessors.NewPipeline(proc)

	embedder := newFakeEmbedder(4)
	gateway, err := NewEmbeddingGateway(embedder, batchSettings(2, 100_000, 1))
	require.NoError(t, err)

	svc := NewIngestService(registry, pipeline, gateway, &memStore{})

	dir := t.TempDir()
	// ~500 chars → 5 chunks of 100 → batches of [2,2,1].
	path := writeFile(t, dir, "long.txt", strings.Repeat("abcdefghi ", 50))

	report, err := svc.Ingest(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Chunks)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, []int{2, 2, 1}, embedder.recordedBatchSizes())
}

// slowLoadStore stretches the window between reading the persisted
// state and returning it, the way a disk-backed load behaves.
type slowLoadStore struct {
	*memStore
	delay time.Duration
}

func (s *slowLoadStore) Load(ctx context.Context, expectDims int) (driven.VectorIndex, error) {
	index, err := s.memStore.Load(ctx, expectDims)
	time.Sleep(s.delay)
	return index, err
}

func TestIngestService_Ingest_ConcurrentIngestsLoseNoRecords(t *testing.T) {
	registry := loaders.NewRegistry()
	registry.Register(plaintext.New())

	proc, err := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(10))
	require.NoError(t, err)
	pipeline := postprocessors.NewPipeline(proc)

	gateway, err := NewEmbeddingGateway(newFakeEmbedder(4), batchSettings(100, 100_000, 1))
	require.NoError(t, err)

	store := &slowLoadStore{
		memStore: seededStore([]driven.VectorRecord{
			{Chunk: chunkOf("seed.txt", "seeded chunk", nil, 0), Embedding: []float32{1, 0, 0, 0}},
		}),
		delay: 50 * time.Millisecond,
	}
	svc := NewIngestService(registry, pipeline, gateway, store)

	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "first dropped document"),
		writeFile(t, dir, "b.txt", "second dropped document"),
	}

	var wg sync.WaitGroup
	for _, path := range paths {
		path := path
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ingestErr := svc.Ingest(context.Background(), path)
			assert.NoError(t, ingestErr)
		}()
	}
	wg.Wait()

	// The seed record and both documents' chunks all survive.
	index, err := store.memStore.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, index.Count())
}

func TestIngestService_IngestDir(t *testing.T) {
	svc, store, _ := ingestFixture(t)
	dir := t.TempDir()

	writeFile(t, dir, "a.txt", "Document A content.")
	writeFile(t, dir, "b.txt", "Document B content.")
	writeFile(t, dir, "c.bin", "unsupported bytes")

	reports, err := svc.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, reports, 2, "unsupported files are skipped")
	assert.Equal(t, "a.txt", reports[0].SourceID)
	assert.Equal(t, "b.txt", reports[1].SourceID)

	index, err := store.Load(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, index.Count())
}

func TestIngestService_IngestDir_SkipsHiddenDirectories(t *testing.T) {
	svc, _, _ := ingestFixture(t)
	dir := t.TempDir()

	writeFile(t, dir, "visible.txt", "Visible content.")
	hidden := filepath.Join(dir, ".index")
	require.NoError(t, os.Mkdir(hidden, 0o755))
	writeFile(t, hidden, "buried.txt", "Must not be ingested.")

	reports, err := svc.IngestDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, "visible.txt", reports[0].SourceID)
}

func TestIngestService_IngestDir_MissingDir(t *testing.T) {
	svc, _, _ := ingestFixture(t)

	_, err := svc.IngestDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
