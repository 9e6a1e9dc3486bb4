package services

import (
	"context"
	"fmt"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// ChunkStoreOpener opens the chunk half of a persisted index for
// inspection.
type ChunkStoreOpener interface {
	OpenChunks() (driven.ChunkStore, error)
}

// StatusService reports the shape of the persisted index.
type StatusService struct {
	store  driven.VectorIndexStore
	chunks ChunkStoreOpener
}

// NewStatusService creates a new status service.
func NewStatusService(store driven.VectorIndexStore, chunks ChunkStoreOpener) *StatusService {
	return &StatusService{
		store:  store,
		chunks: chunks,
	}
}

// Status loads the persisted index and summarises it.
func (s *StatusService) Status(ctx context.Context) (*driving.IndexStatus, error) {
	if !s.store.Exists() {
		return nil, fmt.Errorf("%w: no index found, run ingest first", domain.ErrNotReady)
	}

	// Dimension 0 skips the compatibility check; status reports
	// whatever is on disk.
	index, err := s.store.Load(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	chunkStore, err := s.chunks.OpenChunks()
	if err != nil {
		return nil, fmt.Errorf("open chunk store: %w", err)
	}
	defer chunkStore.Close()

	counts, err := chunkStore.SourceCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count sources: %w", err)
	}

	return &driving.IndexStatus{
		Records:      index.Count(),
		Dimensions:   index.Dimensions(),
		SourceCounts: counts,
	}, nil
}
