package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/time/rate"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// BatchError reports which slice of the input a failed embedding
// request covered. Start is inclusive, End exclusive.
type BatchError struct {
	Start int
	End   int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("embed batch [%d:%d]: %v", e.Start, e.End, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// EmbeddingGateway wraps an embedding service with request batching,
// bounded concurrency, and optional rate limiting. Callers hand it
// arbitrarily many texts; the gateway never submits a request
// exceeding the configured count or character limits.
type EmbeddingGateway struct {
	service  driven.EmbeddingService
	settings domain.BatchSettings
	limiter  *rate.Limiter
}

// NewEmbeddingGateway creates a gateway around service.
func NewEmbeddingGateway(service driven.EmbeddingService, settings domain.BatchSettings) (*EmbeddingGateway, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if settings.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.RequestsPerSecond), 1)
	}

	return &EmbeddingGateway{
		service:  service,
		settings: settings,
		limiter:  limiter,
	}, nil
}

// batch is one slice of the input destined for a single request.
type batch struct {
	start int // inclusive index into texts
	end   int // exclusive
}

// EmbedAll embeds every text, splitting the input into batches that
// respect the count and character limits and submitting them with
// bounded concurrency. The output has the same length and order as
// the input. The second return value is the number of requests
// submitted.
//
// A failed provider call fails only its own batch: the remaining
// batches still run, their results are returned in place, and the
// failed batches' slots stay nil. The returned error joins one
// BatchError per failed input range so callers can retry just those
// slices or abort.
func (g *EmbeddingGateway) EmbedAll(ctx context.Context, texts []string) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, fmt.Errorf("%w: no texts to embed", domain.ErrEmptyInput)
	}

	batches := g.plan(texts)
	logger.Debug("Embedding %d texts in %d batches", len(texts), len(batches))

	embeddings := make([][]float32, len(texts))

	workers := g.settings.Concurrency
	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan batch)
	errs := make(chan error, len(batches))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if err := g.runBatch(ctx, texts, embeddings, b); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, b := range batches {
		select {
		case jobs <- b:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var failed []*BatchError
	for err := range errs {
		var batchErr *BatchError
		if errors.As(err, &batchErr) {
			failed = append(failed, batchErr)
		}
	}
	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i].Start < failed[j].Start })
		joined := make([]error, len(failed))
		for i, f := range failed {
			joined[i] = f
		}
		return embeddings, len(batches), errors.Join(joined...)
	}

	return embeddings, len(batches), nil
}

// runBatch submits one batch and writes results into their slots.
func (g *EmbeddingGateway) runBatch(ctx context.Context, texts []string, embeddings [][]float32, b batch) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return &BatchError{Start: b.start, End: b.end, Err: err}
		}
	}

	vectors, err := g.service.EmbedBatch(ctx, texts[b.start:b.end])
	if err != nil {
		return &BatchError{Start: b.start, End: b.end, Err: err}
	}
	if len(vectors) != b.end-b.start {
		return &BatchError{
			Start: b.start,
			End:   b.end,
			Err: fmt.Errorf("%d texts but %d embeddings: %w",
				b.end-b.start, len(vectors), domain.ErrExternalCapability),
		}
	}

	// Each batch owns a disjoint slice of the output, so no lock is
	// needed here.
	copy(embeddings[b.start:], vectors)
	return nil
}

// plan splits the input into contiguous batches respecting both the
// count and the character limit. A single text longer than the
// character limit still forms its own batch; it is never split.
func (g *EmbeddingGateway) plan(texts []string) []batch {
	var batches []batch

	start := 0
	chars := 0
	for i, text := range texts {
		overCount := i-start >= g.settings.MaxBatchCount
		overChars := i > start && chars+len(text) > g.settings.MaxBatchChars

		if overCount || overChars {
			batches = append(batches, batch{start: start, end: i})
			start = i
			chars = 0
		}
		chars += len(text)
	}
	batches = append(batches, batch{start: start, end: len(texts)})

	return batches
}

// Dimensions returns the wrapped service's embedding dimension.
func (g *EmbeddingGateway) Dimensions() int {
	return g.service.Dimensions()
}

// Embed embeds a single text without batching overhead.
func (g *EmbeddingGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return g.service.Embed(ctx, text)
}
