package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

func TestLoadSettings_Defaults(t *testing.T) {
	store := newTestConfigStore(t)

	settings := LoadSettings(store)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Chunking, settings.Chunking)
	assert.Equal(t, defaults.Batch, settings.Batch)
	assert.Equal(t, defaults.Retrieval.TopK, settings.Retrieval.TopK)
	assert.Equal(t, filepath.Join(filepath.Dir(store.Path()), "index"), settings.Index.Dir)
}

func TestLoadSettings_Overrides(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set(KeyChunkSize, int64(500)))
	require.NoError(t, store.Set(KeyChunkOverlap, int64(0)))
	require.NoError(t, store.Set(KeyBatchMaxCount, int64(50)))
	require.NoError(t, store.Set(KeyRetrievalTopK, int64(3)))
	require.NoError(t, store.Set(KeyRetrievalLanguage, "Korean"))
	require.NoError(t, store.Set(KeyEmbeddingProvider, "ollama"))
	require.NoError(t, store.Set(KeyEmbeddingModel, "nomic-embed-text"))
	require.NoError(t, store.Set(KeyLLMProvider, "ollama"))
	require.NoError(t, store.Set(KeyLLMModel, "llama3"))
	require.NoError(t, store.Set(KeyLLMTemperature, 0.7))
	require.NoError(t, store.Set(KeyIndexDir, "/data/index"))

	settings := LoadSettings(store)

	assert.Equal(t, 500, settings.Chunking.ChunkSize)
	assert.Equal(t, 0, settings.Chunking.ChunkOverlap)
	assert.Equal(t, 50, settings.Batch.MaxBatchCount)
	assert.Equal(t, 3, settings.Retrieval.TopK)
	assert.Equal(t, "Korean", settings.Retrieval.AnswerLanguage)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderOllama, settings.LLM.Provider)
	assert.Equal(t, "llama3", settings.LLM.Model)
	assert.Equal(t, 0.7, settings.LLM.Temperature)
	assert.Equal(t, "/data/index", settings.Index.Dir)
	assert.NoError(t, settings.Validate())
}

func TestLoadSettings_APIKeyFromEnv(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set(KeyEmbeddingProvider, "openai"))
	require.NoError(t, store.Set(KeyLLMProvider, "anthropic"))

	t.Setenv("OPENAI_API_KEY", "sk-test-embedding")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test-llm")

	settings := LoadSettings(store)

	assert.Equal(t, "sk-test-embedding", settings.Embedding.APIKey)
	assert.Equal(t, "sk-test-llm", settings.LLM.APIKey)
	assert.True(t, settings.Embedding.IsConfigured())
	assert.True(t, settings.LLM.IsConfigured())
}

func TestLoadSettings_ConfigKeyBeatsEnv(t *testing.T) {
	store := newTestConfigStore(t)
	require.NoError(t, store.Set(KeyLLMProvider, "openai"))
	require.NoError(t, store.Set(KeyLLMAPIKey, "sk-from-config"))

	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	settings := LoadSettings(store)
	assert.Equal(t, "sk-from-config", settings.LLM.APIKey)
}
