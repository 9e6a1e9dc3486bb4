package driving

import (
	"context"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

// QueryService answers natural-language questions over the
// ingested corpus.
type QueryService interface {
	// Ask retrieves the chunks most similar to the question and
	// generates an answer grounded in them. Fails with
	// domain.ErrNotReady when no index exists.
	Ask(ctx context.Context, question string) (*domain.Answer, error)

	// Retrieve returns the k chunks most similar to the question
	// without invoking the generation capability. k falls back to the
	// configured default when non-positive callers pass 0.
	Retrieve(ctx context.Context, question string, k int) ([]domain.Chunk, error)
}

// StatusService inspects the persisted index.
type StatusService interface {
	// Status reports the persisted index's shape. Fails with
	// domain.ErrNotReady when no index has been saved.
	Status(ctx context.Context) (*IndexStatus, error)
}

// IndexStatus describes a persisted index.
type IndexStatus struct {
	// Records is the total record count.
	Records int

	// Dimensions is the embedding dimension.
	Dimensions int

	// SourceCounts is the number of chunks per source document.
	SourceCounts map[string]int
}
