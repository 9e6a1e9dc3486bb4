package loaders

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.LoaderRegistry = (*Registry)(nil)

// Registry maps file extensions to loaders. Extensions are matched
// case-insensitively with the leading dot included.
type Registry struct {
	byExtension map[string]driven.Loader
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		byExtension: make(map[string]driven.Loader),
	}
}

// Register adds a loader for every extension it supports.
// A later registration for the same extension wins.
func (r *Registry) Register(loader driven.Loader) {
	for _, ext := range loader.SupportedExtensions() {
		r.byExtension[strings.ToLower(ext)] = loader
	}
}

// ForPath returns the loader handling the path's extension.
func (r *Registry) ForPath(path string) (driven.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("no loader for %q: %w", ext, domain.ErrUnsupportedFormat)
	}
	return loader, nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
