package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrSourceUnavailable indicates the input path does not exist
	// or the document could not be parsed.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnsupportedFormat indicates no loader handles the input format.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyInput indicates there were no chunks or records to act on.
	ErrEmptyInput = errors.New("empty input")

	// ErrEmptyIndex indicates a similarity search against an index
	// with zero records.
	ErrEmptyIndex = errors.New("empty index")

	// ErrNotReady indicates a query before any index exists: no
	// ingestion has occurred and no index could be loaded.
	ErrNotReady = errors.New("index not ready")

	// ErrIndexIncompatible indicates a dimension or schema mismatch
	// between a persisted index and the configured embedding service.
	ErrIndexIncompatible = errors.New("index incompatible")

	// ErrExternalCapability indicates an embedding or generation call
	// failed, including provider rate limits and transient network errors.
	ErrExternalCapability = errors.New("external capability error")

	// ErrConfiguration indicates invalid configuration such as a bad
	// chunk size/overlap pair or a non-positive k. Fatal at
	// construction, never deferred to request time.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
