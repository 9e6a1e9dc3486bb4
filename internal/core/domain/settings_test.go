package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.True(t, AIProviderGemini.IsValid())
	assert.False(t, AIProvider("azure").IsValid())
	assert.False(t, AIProvider("").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.True(t, AIProviderGemini.RequiresAPIKey())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk-test"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestChunkingSettings_Validate(t *testing.T) {
	valid := ChunkingSettings{ChunkSize: 1000, ChunkOverlap: 100}
	require.NoError(t, valid.Validate())

	zeroSize := ChunkingSettings{ChunkSize: 0, ChunkOverlap: 0}
	assert.ErrorIs(t, zeroSize.Validate(), ErrConfiguration)

	negOverlap := ChunkingSettings{ChunkSize: 1000, ChunkOverlap: -1}
	assert.ErrorIs(t, negOverlap.Validate(), ErrConfiguration)

	overlapTooLarge := ChunkingSettings{ChunkSize: 100, ChunkOverlap: 100}
	assert.ErrorIs(t, overlapTooLarge.Validate(), ErrConfiguration)
}

func TestBatchSettings_Validate(t *testing.T) {
	valid := BatchSettings{MaxBatchCount: 100, MaxBatchChars: 100_000, Concurrency: 4}
	require.NoError(t, valid.Validate())

	assert.ErrorIs(t, BatchSettings{MaxBatchChars: 1, Concurrency: 1}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, BatchSettings{MaxBatchCount: 1, Concurrency: 1}.Validate(), ErrConfiguration)
	assert.ErrorIs(t, BatchSettings{MaxBatchCount: 1, MaxBatchChars: 1}.Validate(), ErrConfiguration)
}

func TestRetrievalSettings_Validate(t *testing.T) {
	valid := RetrievalSettings{TopK: 5, ContextBudget: 12_000}
	require.NoError(t, valid.Validate())

	nonPositiveK := RetrievalSettings{TopK: 0, ContextBudget: 12_000}
	err := nonPositiveK.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	noBudget := RetrievalSettings{TopK: 5}
	assert.ErrorIs(t, noBudget.Validate(), ErrConfiguration)
}

func TestDefaultAppSettings(t *testing.T) {
	settings := DefaultAppSettings()

	require.NoError(t, settings.Validate())
	assert.Equal(t, 1000, settings.Chunking.ChunkSize)
	assert.Equal(t, 100, settings.Chunking.ChunkOverlap)
	assert.Equal(t, 100, settings.Batch.MaxBatchCount)
	assert.Equal(t, 5, settings.Retrieval.TopK)
	assert.Equal(t, 12_000, settings.Retrieval.ContextBudget)

	// AI providers stay unconfigured until the user sets them up.
	assert.False(t, settings.Embedding.IsConfigured())
	assert.False(t, settings.LLM.IsConfigured())
}
