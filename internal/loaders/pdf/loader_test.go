package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

func TestSupportedExtensions(t *testing.T) {
	loader := New()
	assert.Equal(t, []string{".pdf"}, loader.SupportedExtensions())
}

func TestLoad_MissingFile(t *testing.T) {
	loader := New()
	doc, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestLoad_NotAPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o644))

	loader := New()
	doc, err := loader.Load(context.Background(), path)

	assert.Nil(t, doc)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
