package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestOrchestrator = (*IngestService)(nil)

// IngestService runs the document → chunks → embeddings → index
// pipeline and persists the result.
type IngestService struct {
	registry driven.LoaderRegistry
	pipeline driven.PostProcessorPipeline
	gateway  *EmbeddingGateway
	store    driven.VectorIndexStore

	// persist serializes load→merge→save cycles. Concurrent
	// ingestions (watch mode fires each debounce on its own
	// goroutine) would otherwise merge into private copies of the
	// persisted index and the last save would win.
	persist sync.Mutex
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	registry driven.LoaderRegistry,
	pipeline driven.PostProcessorPipeline,
	gateway *EmbeddingGateway,
	store driven.VectorIndexStore,
) *IngestService {
	return &IngestService{
		registry: registry,
		pipeline: pipeline,
		gateway:  gateway,
		store:    store,
	}
}

// Ingest processes a single document end to end. The index on disk is
// replaced only by the final save; a failure in any earlier step
// leaves the previously saved index untouched.
func (s *IngestService) Ingest(ctx context.Context, path string) (*driving.IngestReport, error) {
	logger.Section("Ingest")
	logger.Info("Ingesting %s", path)

	loader, err := s.registry.ForPath(path)
	if err != nil {
		return nil, err
	}

	doc, err := loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	report := &driving.IngestReport{
		SourceID: doc.SourceID,
		Pages:    countTextPages(doc),
	}

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", path, err)
	}
	report.Chunks = len(chunks)

	if len(chunks) == 0 {
		logger.Warn("No extractable text in %s, nothing to index", path)
		if s.store.Exists() {
			if index, loadErr := s.load(ctx); loadErr == nil {
				report.IndexRecords = index.Count()
			}
		}
		return report, nil
	}

	logger.Debug("Produced %d chunks from %d pages", len(chunks), report.Pages)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	embeddings, batches, err := s.gateway.EmbedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", path, err)
	}
	report.Batches = batches

	records := make([]driven.VectorRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = driven.VectorRecord{
			Chunk:     chunk,
			Embedding: embeddings[i],
		}
	}

	s.persist.Lock()
	defer s.persist.Unlock()

	index, err := s.createOrMerge(ctx, records)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	report.IndexRecords = index.Count()
	logger.Info("Indexed %s: %d chunks, %d total records", doc.SourceID, len(chunks), report.IndexRecords)

	return report, nil
}

// IngestDir ingests every supported file under dir, accumulating one
// index. Files with unsupported extensions are skipped; any other
// failure aborts the walk.
func (s *IngestService) IngestDir(ctx context.Context, dir string) ([]driving.IngestReport, error) {
	logger.Section("Ingest Directory")
	logger.Info("Ingesting directory %s", dir)

	var reports []driving.IngestReport

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
		}
		if d.IsDir() {
			// Skip hidden directories such as a co-located index dir.
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if _, lookupErr := s.registry.ForPath(path); lookupErr != nil {
			if errors.Is(lookupErr, domain.ErrUnsupportedFormat) {
				logger.Debug("Skipping unsupported file %s", path)
				return nil
			}
			return lookupErr
		}

		report, ingestErr := s.Ingest(ctx, path)
		if ingestErr != nil {
			return ingestErr
		}
		reports = append(reports, *report)
		return nil
	})
	if err != nil {
		return reports, err
	}

	logger.Info("Ingested %d documents from %s", len(reports), dir)
	return reports, nil
}

// createOrMerge loads the existing index and merges the records in,
// or creates a fresh index when none exists yet.
func (s *IngestService) createOrMerge(ctx context.Context, records []driven.VectorRecord) (driven.VectorIndex, error) {
	if !s.store.Exists() {
		logger.Debug("Creating new index with %d records", len(records))
		index, err := s.store.Create(ctx, records)
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return index, nil
	}

	index, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	logger.Debug("Merging %d records into index of %d", len(records), index.Count())
	if err := index.Merge(ctx, records); err != nil {
		return nil, fmt.Errorf("merge into index: %w", err)
	}
	return index, nil
}

// load reads the persisted index, checking its dimension against the
// configured embedding model.
func (s *IngestService) load(ctx context.Context) (driven.VectorIndex, error) {
	index, err := s.store.Load(ctx, s.gateway.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	return index, nil
}

// countTextPages counts pages with non-blank extracted text.
func countTextPages(doc *domain.Document) int {
	count := 0
	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) != "" {
			count++
		}
	}
	return count
}
