// Package domain defines the core business entities for docq.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A loaded source document as an ordered sequence of pages
//   - Chunk: A retrievable unit of text with provenance metadata
//   - Answer: A grounded answer with the provenance of the chunks used
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
