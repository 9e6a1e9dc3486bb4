package driving

import "context"

// IngestOrchestrator coordinates the document → index pipeline.
type IngestOrchestrator interface {
	// Ingest processes a single document: load, chunk, embed in
	// batches, create-or-merge into the index, and save. A failure in
	// any step aborts the ingestion without corrupting a previously
	// saved index.
	Ingest(ctx context.Context, path string) (*IngestReport, error)

	// IngestDir ingests every supported file in a directory,
	// accumulating one index. Unsupported files are skipped.
	IngestDir(ctx context.Context, dir string) ([]IngestReport, error)
}

// IngestReport summarises one document's ingestion.
type IngestReport struct {
	// SourceID identifies the ingested document.
	SourceID string

	// Pages is the number of pages with extractable text.
	Pages int

	// Chunks is the number of chunks produced.
	Chunks int

	// Batches is the number of embedding requests submitted.
	Batches int

	// IndexRecords is the total record count after the save.
	IndexRecords int
}
