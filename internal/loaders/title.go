package loaders

import (
	"path/filepath"
	"strings"
)

// TitleFromPath derives a human-readable title from a file path.
func TitleFromPath(path string) string {
	filename := filepath.Base(path)

	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
