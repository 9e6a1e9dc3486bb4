package flat

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// Persisted index layout inside the index directory:
//
//	vectors.bin  record keys and embeddings, fixed-width binary
//	chunks.db    record key to chunk mapping
const (
	vectorsFile = "vectors.bin"
	chunksFile  = "chunks.db"
)

// vectors.bin header.
const (
	fileMagic   = "DQVI"
	fileVersion = uint32(1)
)

var (
	errBadMagic   = errors.New("not an index file")
	errBadVersion = errors.New("unsupported index file version")
)

// Ensure Store implements the interface.
var _ driven.VectorIndexStore = (*Store)(nil)

// OpenChunkStore opens the chunk mapping database at the given path.
// Injecting the constructor keeps this package free of a dependency
// on a concrete storage driver.
type OpenChunkStore func(path string) (driven.ChunkStore, error)

// Store persists flat indices under a single directory.
type Store struct {
	dir            string
	openChunkStore OpenChunkStore
}

// NewStore creates a store rooted at dir. The directory is created
// on the first save.
func NewStore(dir string, opener OpenChunkStore) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("index directory not set: %w", domain.ErrConfiguration)
	}
	if opener == nil {
		return nil, fmt.Errorf("chunk store opener not set: %w", domain.ErrConfiguration)
	}
	return &Store{dir: dir, openChunkStore: opener}, nil
}

// Create builds a new in-memory index from records. The dimension is
// taken from the first record.
func (s *Store) Create(ctx context.Context, records []driven.VectorRecord) (driven.VectorIndex, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to index: %w", domain.ErrEmptyInput)
	}

	idx, err := New(len(records[0].Embedding))
	if err != nil {
		return nil, err
	}
	if err := idx.Merge(ctx, records); err != nil {
		return nil, err
	}
	return idx, nil
}

// Exists reports whether a persisted index is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(filepath.Join(s.dir, vectorsFile))
	return err == nil
}

// Save durably persists the index. The new state is written into a
// staging directory and swapped in with renames, so a crash leaves
// either the previous index or the new one, never a mix.
func (s *Store) Save(ctx context.Context, index driven.VectorIndex) error {
	idx, ok := index.(*Index)
	if !ok {
		return fmt.Errorf("cannot persist index of type %T", index)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	records := idx.records()

	parent := filepath.Dir(s.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}

	staging, err := os.MkdirTemp(parent, ".docq-index-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeVectors(filepath.Join(staging, vectorsFile), idx.Dimensions(), records); err != nil {
		return err
	}
	if err := s.writeChunks(ctx, filepath.Join(staging, chunksFile), records); err != nil {
		return err
	}

	return s.swapIn(staging)
}

// Load reads the persisted index. A non-zero expectDims must match
// the stored dimension.
func (s *Store) Load(ctx context.Context, expectDims int) (driven.VectorIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Exists() {
		return nil, fmt.Errorf("no index at %s: %w", s.dir, domain.ErrNotFound)
	}

	dims, keys, embeddings, err := readVectors(filepath.Join(s.dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	if expectDims != 0 && dims != expectDims {
		return nil, fmt.Errorf("stored dimension %d, embedding model produces %d: %w",
			dims, expectDims, domain.ErrIndexIncompatible)
	}

	chunksByKey, err := s.loadChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunksByKey) != len(keys) {
		return nil, fmt.Errorf("%d vectors but %d chunks: %w",
			len(keys), len(chunksByKey), domain.ErrIndexIncompatible)
	}

	records := make([]driven.VectorRecord, len(keys))
	for i, key := range keys {
		chunk, ok := chunksByKey[key]
		if !ok {
			return nil, fmt.Errorf("no chunk for record key %d: %w", key, domain.ErrIndexIncompatible)
		}
		records[i] = driven.VectorRecord{
			Key:       key,
			Chunk:     chunk,
			Embedding: embeddings[i],
		}
	}

	logger.Debug("loaded index from %s: %d records, %d dimensions", s.dir, len(records), dims)
	return restore(dims, records)
}

// OpenChunks opens the persisted chunk mapping directly, without
// loading the vectors. Used for status inspection.
func (s *Store) OpenChunks() (driven.ChunkStore, error) {
	if !s.Exists() {
		return nil, fmt.Errorf("no index at %s: %w", s.dir, domain.ErrNotFound)
	}
	return s.openChunkStore(filepath.Join(s.dir, chunksFile))
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) writeChunks(ctx context.Context, path string, records []driven.VectorRecord) error {
	store, err := s.openChunkStore(path)
	if err != nil {
		return fmt.Errorf("opening chunk store: %w", err)
	}
	defer store.Close()

	keyed := make([]driven.KeyedChunk, len(records))
	for i, rec := range records {
		keyed[i] = driven.KeyedChunk{Key: rec.Key, Chunk: rec.Chunk}
	}
	if err := store.SaveChunks(ctx, keyed); err != nil {
		return fmt.Errorf("saving chunks: %w", err)
	}
	return nil
}

func (s *Store) loadChunks(ctx context.Context) (map[uint64]domain.Chunk, error) {
	store, err := s.openChunkStore(filepath.Join(s.dir, chunksFile))
	if err != nil {
		return nil, fmt.Errorf("opening chunk store: %w", err)
	}
	defer store.Close()

	keyed, err := store.LoadChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	byKey := make(map[uint64]domain.Chunk, len(keyed))
	for _, kc := range keyed {
		byKey[kc.Key] = kc.Chunk
	}
	return byKey, nil
}

// swapIn replaces the index directory with the staging directory.
func (s *Store) swapIn(staging string) error {
	old := s.dir + ".old"

	if _, err := os.Stat(s.dir); err == nil {
		if err := os.Rename(s.dir, old); err != nil {
			return fmt.Errorf("moving previous index aside: %w", err)
		}
	}
	if err := os.Rename(staging, s.dir); err != nil {
		// Put the previous index back so a failed save loses nothing.
		if _, statErr := os.Stat(old); statErr == nil {
			if restoreErr := os.Rename(old, s.dir); restoreErr != nil {
				logger.Error("restoring previous index failed: %v", restoreErr)
			}
		}
		return fmt.Errorf("installing new index: %w", err)
	}
	if err := os.RemoveAll(old); err != nil {
		logger.Warn("removing previous index: %v", err)
	}
	return nil
}

// writeVectors serialises keys and embeddings.
//
// Layout, all little-endian:
//
//	magic "DQVI" | uint32 version | uint32 dimension | uint64 count
//	count times: uint64 key | dimension times float32
func writeVectors(path string, dims int, records []driven.VectorRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if _, err := w.WriteString(fileMagic); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	header := make([]byte, 16)
	binary.LittleEndian.PutUint32(header[0:], fileVersion)
	binary.LittleEndian.PutUint32(header[4:], uint32(dims))
	binary.LittleEndian.PutUint64(header[8:], uint64(len(records)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := make([]byte, 8+dims*4)
	for _, rec := range records {
		binary.LittleEndian.PutUint64(row[0:], rec.Key)
		for i, v := range rec.Embedding {
			binary.LittleEndian.PutUint32(row[8+i*4:], math.Float32bits(v))
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("writing record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return nil
}

// readVectors deserialises keys and embeddings.
func readVectors(path string) (dims int, keys []uint64, embeddings [][]float32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, nil, nil, fmt.Errorf("reading header: %w", err)
	}
	if string(magic) != fileMagic {
		return 0, nil, nil, fmt.Errorf("%s: %w", path, errBadMagic)
	}

	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, nil, fmt.Errorf("reading header: %w", err)
	}
	if v := binary.LittleEndian.Uint32(header[0:]); v != fileVersion {
		return 0, nil, nil, fmt.Errorf("version %d: %w", v, errBadVersion)
	}
	dims = int(binary.LittleEndian.Uint32(header[4:]))
	count := int(binary.LittleEndian.Uint64(header[8:]))
	if dims <= 0 {
		return 0, nil, nil, fmt.Errorf("stored dimension %d: %w", dims, domain.ErrIndexIncompatible)
	}
	if count < 0 {
		return 0, nil, nil, fmt.Errorf("stored record count overflows: %w", domain.ErrIndexIncompatible)
	}

	// Cap the allocation hint; a corrupt count must not reserve
	// gigabytes before the first record read fails.
	hint := count
	if hint > 1<<16 {
		hint = 1 << 16
	}
	keys = make([]uint64, 0, hint)
	embeddings = make([][]float32, 0, hint)
	row := make([]byte, 8+dims*4)
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return 0, nil, nil, fmt.Errorf("record %d of %d: %w: %v",
				i, count, domain.ErrIndexIncompatible, err)
		}
		keys = append(keys, binary.LittleEndian.Uint64(row[0:]))
		embedding := make([]float32, dims)
		for j := range embedding {
			embedding[j] = math.Float32frombits(binary.LittleEndian.Uint32(row[8+j*4:]))
		}
		embeddings = append(embeddings, embedding)
	}

	return dims, keys, embeddings, nil
}
