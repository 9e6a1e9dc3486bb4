package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfigStore(t *testing.T) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "config")

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetGet(t *testing.T) {
	store := newTestConfigStore(t)

	require.NoError(t, store.Set("embedding.provider", "ollama"))

	val, ok := store.Get("embedding.provider")
	require.True(t, ok)
	assert.Equal(t, "ollama", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestGetString(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))
	require.NoError(t, store.Set("retrieval.top_k", 5))

	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, "", store.GetString("retrieval.top_k"))
}

func TestGetInt(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("retrieval.top_k", 5))
	require.NoError(t, store.Set("chunking.chunk_size", int64(1000)))
	require.NoError(t, store.Set("llm.model", "gpt-4o-mini"))

	assert.Equal(t, 5, store.GetInt("retrieval.top_k"))
	assert.Equal(t, 1000, store.GetInt("chunking.chunk_size"))
	assert.Equal(t, 0, store.GetInt("missing"))
	assert.Equal(t, 0, store.GetInt("llm.model"))
}

func TestGetFloat(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("llm.temperature", 0.2))
	require.NoError(t, store.Set("batch.requests_per_second", int64(2)))

	assert.Equal(t, 0.2, store.GetFloat("llm.temperature"))
	assert.Equal(t, 2.0, store.GetFloat("batch.requests_per_second"))
	assert.Equal(t, 0.0, store.GetFloat("missing"))
}

func TestGetBool(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("verbose", true))

	assert.True(t, store.GetBool("verbose"))
	assert.False(t, store.GetBool("missing"))
}

func TestGetStringSlice(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set("watch.dirs", []string{"a", "b"}))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("watch.dirs"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.provider", "openai"))
	require.NoError(t, store.Set("retrieval.top_k", int64(7)))

	// A fresh store reads the same values back.
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reloaded.GetString("embedding.provider"))
	assert.Equal(t, 7, reloaded.GetInt("retrieval.top_k"))
}

func TestLoad_FlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[embedding]
provider = "ollama"
model = "nomic-embed-text"

[retrieval]
top_k = 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, "nomic-embed-text", store.GetString("embedding.model"))
	assert.Equal(t, 3, store.GetInt("retrieval.top_k"))
}

func TestLoad_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}
