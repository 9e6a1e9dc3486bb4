package driven

import (
	"context"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

// Loader extracts the text of a source document as an ordered
// sequence of pages. Each loader handles specific file extensions
// (e.g., .pdf, .txt, .md).
type Loader interface {
	// SupportedExtensions returns the lowercase file extensions this
	// loader handles, including the leading dot.
	SupportedExtensions() []string

	// Load reads the document at path. A missing or unparseable file
	// fails with domain.ErrSourceUnavailable. A document with no
	// extractable text yields a Document with zero pages - not an error.
	Load(ctx context.Context, path string) (*domain.Document, error)
}

// LoaderRegistry selects the loader for a given path.
type LoaderRegistry interface {
	// ForPath returns the loader handling the path's extension.
	// Fails with domain.ErrUnsupportedFormat when no loader matches.
	ForPath(path string) (Loader, error)

	// Extensions returns every extension any registered loader handles.
	Extensions() []string
}
