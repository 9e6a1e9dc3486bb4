// Package markdown loads Markdown documents.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/loaders"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown documents. Markdown is kept as-is rather
// than rendered: headings and code fences are useful retrieval
// context, and chunk boundaries fall on their blank lines naturally.
// Markdown has no pagination, so the file becomes one page with
// Number 0.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".md", ".markdown"}
}

// Load reads the whole file as one unpaginated page.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %v", path, domain.ErrSourceUnavailable, err)
	}

	var pages []domain.Page
	if len(content) > 0 {
		pages = append(pages, domain.Page{Number: 0, Text: string(content)})
	}

	return &domain.Document{
		ID:        uuid.New().String(),
		SourceID:  filepath.Base(path),
		URI:       path,
		Title:     loaders.TitleFromPath(path),
		Pages:     pages,
		Metadata:  map[string]any{"format": "markdown"},
		CreatedAt: time.Now(),
	}, nil
}
