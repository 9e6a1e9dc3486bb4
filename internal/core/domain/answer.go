package domain

// Answer is the uniform result shape returned from every query path.
type Answer struct {
	// Text is the generated answer, trimmed of surrounding whitespace.
	Text string

	// Sources is the provenance of the chunks consumed while
	// assembling the context, deduplicated by (source, page) for
	// display. Ordered by retrieval rank.
	Sources []ProvenanceRef

	// Fallback is true when the generation capability failed or
	// returned empty content and Text holds the deterministic
	// no-confident-answer response instead.
	Fallback bool
}

// ProvenanceRef points a displayed answer back at the retrieved text
// it was grounded on.
type ProvenanceRef struct {
	// Text is the chunk content that was supplied as context.
	Text string

	// SourceID identifies the originating document.
	SourceID string

	// Page is the 1-based origin page, or nil for unpaginated sources.
	Page *int
}
