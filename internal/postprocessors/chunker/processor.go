// Package chunker provides an overlapping text chunking processor.
//
// Chunks are cut within a single page and never span page boundaries,
// so every chunk can name the page it came from. Within a page the
// chunker prefers to break at a paragraph boundary, then a sentence
// end, then whitespace, falling back to a hard cut for unbroken text.
package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// Processor splits page text into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a new chunker processor with the given options.
// The overlap must be smaller than the chunk size, otherwise each
// window would re-emit the previous one and the split never advances.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size %d must be positive: %w", p.chunkSize, domain.ErrConfiguration)
	}
	if p.overlap < 0 {
		return nil, fmt.Errorf("overlap %d must not be negative: %w", p.overlap, domain.ErrConfiguration)
	}
	if p.overlap >= p.chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d: %w",
			p.overlap, p.chunkSize, domain.ErrConfiguration)
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits each page of the document into chunks. Input chunks
// are ignored; this processor creates new chunks from page text.
// Chunk indices are dense and 0-based across the whole document, in
// page order.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	index := 0

	for _, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		var pageNum *int
		if page.Paginated() {
			n := page.Number
			pageNum = &n
		}

		for _, piece := range p.split(page.Text) {
			chunk := domain.Chunk{
				ID:         uuid.New().String(),
				SourceID:   doc.SourceID,
				Page:       pageNum,
				ChunkIndex: index,
				Content:    piece,
				Metadata: map[string]any{
					"title": doc.Title,
					"uri":   doc.URI,
				},
			}
			chunks = append(chunks, chunk)
			index++
		}
	}

	return chunks, nil
}

// split cuts text into overlapping pieces of at most chunkSize
// characters. Sizes are in runes so multi-byte scripts count the way
// a reader would.
func (p *Processor) split(text string) []string {
	runes := []rune(text)
	total := len(runes)

	estimated := total/(p.chunkSize-p.overlap) + 1
	pieces := make([]string, 0, estimated)

	start := 0
	for start < total {
		end := start + p.chunkSize
		if end >= total {
			end = total
		} else {
			end = p.breakPoint(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			pieces = append(pieces, piece)
		}

		if end == total {
			break
		}

		next := end - p.overlap
		if next <= start {
			// Overlap would rewind past the previous window.
			next = end
		}
		start = next
	}

	return pieces
}

// breakPoint finds the best cut position in (start, end]. Candidates
// are only considered in the second half of the window so a break
// never produces a degenerately small chunk.
func (p *Processor) breakPoint(runes []rune, start, end int) int {
	floor := start + p.chunkSize/2
	if floor <= start {
		floor = start + 1
	}

	sentence, space := -1, -1

	for i := end - 1; i >= floor; i-- {
		r := runes[i]

		if r == '\n' && i > start && runes[i-1] == '\n' {
			return i + 1
		}
		if sentence < 0 && isSentenceEnd(r) && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			sentence = i + 1
		}
		if space < 0 && unicode.IsSpace(r) {
			space = i + 1
		}
	}

	switch {
	case sentence > 0:
		return sentence
	case space > 0:
		return space
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
