// Package pdf extracts page text from PDF documents.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/loaders"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles PDF documents. Each source page with extractable
// text becomes one domain.Page carrying its 1-based page number.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Load extracts the text of every page. Pages without extractable
// text (scanned images, blank pages) are skipped and logged.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w: %v", path, domain.ErrSourceUnavailable, err)
	}
	defer file.Close()

	fonts := make(map[string]*pdf.Font)
	total := reader.NumPage()
	pages := make([]domain.Page, 0, total)

	for num := 1; num <= total; num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single corrupt page should not sink the document.
			logger.Warn("page %d of %s: text extraction failed: %v", num, path, err)
			continue
		}

		if strings.TrimSpace(text) == "" {
			logger.Debug("page %d of %s has no extractable text, skipping", num, path)
			continue
		}

		pages = append(pages, domain.Page{
			Number: num,
			Text:   text,
		})
	}

	return &domain.Document{
		ID:       uuid.New().String(),
		SourceID: filepath.Base(path),
		URI:      path,
		Title:    loaders.TitleFromPath(path),
		Pages:    pages,
		Metadata: map[string]any{
			"format":      "pdf",
			"total_pages": total,
		},
		CreatedAt: time.Now(),
	}, nil
}
