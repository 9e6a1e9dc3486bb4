package domain

import (
	"strconv"
	"time"
)

// Document represents a loaded source document before chunking.
// It is the canonical representation produced by a loader.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// SourceID identifies the originating source, typically the
	// base filename. Every chunk produced from this document
	// carries the same SourceID.
	SourceID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Pages is the ordered sequence of extracted pages.
	// Paginated formats produce one Page per source page with
	// 1-based numbers; unpaginated formats produce a single Page
	// with Number 0.
	Pages []Page

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was loaded.
	CreatedAt time.Time
}

// Page is one unit of source text. Chunks are cut within a page
// and never span page boundaries.
type Page struct {
	// Number is the 1-based page number, or 0 when the source
	// format has no pagination.
	Number int

	// Text is the extracted page text.
	Text string
}

// Paginated reports whether the page carries a real page number.
func (p Page) Paginated() bool {
	return p.Number > 0
}

// Chunk represents a retrievable unit of text within a document.
// Chunks are created once during ingestion and never mutated.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourceID identifies the originating document.
	SourceID string

	// Page is the 1-based origin page, or nil when the source
	// has no pagination.
	Page *int

	// ChunkIndex is the dense 0-based position within the source
	// document's chunk sequence (page ascending, then position
	// ascending within page). Unique per source.
	ChunkIndex int

	// Content is the chunk text. Non-empty after trimming.
	Content string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ProvenanceKey returns the (source, page) identity used to
// deduplicate sources for display.
func (c Chunk) ProvenanceKey() string {
	if c.Page == nil {
		return c.SourceID
	}
	return c.SourceID + "#" + strconv.Itoa(*c.Page)
}
