package file

import (
	"os"
	"path/filepath"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
)

// Configuration keys. The TOML file uses nested tables; the store
// flattens them into these dot-notation keys.
const (
	KeyChunkSize    = "chunking.chunk_size"
	KeyChunkOverlap = "chunking.overlap"

	KeyBatchMaxCount    = "batch.max_count"
	KeyBatchMaxChars    = "batch.max_chars"
	KeyBatchConcurrency = "batch.concurrency"
	KeyBatchRate        = "batch.requests_per_second"

	KeyRetrievalTopK     = "retrieval.top_k"
	KeyRetrievalBudget   = "retrieval.context_budget"
	KeyRetrievalLanguage = "retrieval.answer_language"

	KeyEmbeddingProvider   = "embedding.provider"
	KeyEmbeddingModel      = "embedding.model"
	KeyEmbeddingBaseURL    = "embedding.base_url"
	KeyEmbeddingAPIKey     = "embedding.api_key"
	KeyEmbeddingDimensions = "embedding.dimensions"

	KeyLLMProvider    = "llm.provider"
	KeyLLMModel       = "llm.model"
	KeyLLMBaseURL     = "llm.base_url"
	KeyLLMAPIKey      = "llm.api_key"
	KeyLLMTemperature = "llm.temperature"
	KeyLLMMaxTokens   = "llm.max_tokens"

	KeyIndexDir = "index.dir"
)

// LoadSettings builds application settings by overlaying the config
// file on the built-in defaults. API keys missing from the file fall
// back to the provider's conventional environment variable.
func LoadSettings(store driven.ConfigStore) domain.AppSettings {
	settings := domain.DefaultAppSettings()

	if v := store.GetInt(KeyChunkSize); v > 0 {
		settings.Chunking.ChunkSize = v
	}
	if v, ok := store.Get(KeyChunkOverlap); ok {
		if overlap, isInt := toInt(v); isInt {
			settings.Chunking.ChunkOverlap = overlap
		}
	}

	if v := store.GetInt(KeyBatchMaxCount); v > 0 {
		settings.Batch.MaxBatchCount = v
	}
	if v := store.GetInt(KeyBatchMaxChars); v > 0 {
		settings.Batch.MaxBatchChars = v
	}
	if v := store.GetInt(KeyBatchConcurrency); v > 0 {
		settings.Batch.Concurrency = v
	}
	if v := store.GetFloat(KeyBatchRate); v > 0 {
		settings.Batch.RequestsPerSecond = v
	}

	if v := store.GetInt(KeyRetrievalTopK); v > 0 {
		settings.Retrieval.TopK = v
	}
	if v := store.GetInt(KeyRetrievalBudget); v > 0 {
		settings.Retrieval.ContextBudget = v
	}
	if v := store.GetString(KeyRetrievalLanguage); v != "" {
		settings.Retrieval.AnswerLanguage = v
	}

	settings.Embedding.Provider = domain.AIProvider(store.GetString(KeyEmbeddingProvider))
	settings.Embedding.Model = store.GetString(KeyEmbeddingModel)
	settings.Embedding.BaseURL = store.GetString(KeyEmbeddingBaseURL)
	settings.Embedding.APIKey = store.GetString(KeyEmbeddingAPIKey)
	settings.Embedding.Dimensions = store.GetInt(KeyEmbeddingDimensions)
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = apiKeyFromEnv(settings.Embedding.Provider)
	}

	settings.LLM.Provider = domain.AIProvider(store.GetString(KeyLLMProvider))
	settings.LLM.Model = store.GetString(KeyLLMModel)
	settings.LLM.BaseURL = store.GetString(KeyLLMBaseURL)
	settings.LLM.APIKey = store.GetString(KeyLLMAPIKey)
	if v, ok := store.Get(KeyLLMTemperature); ok {
		settings.LLM.Temperature = toFloat(v)
	}
	if v := store.GetInt(KeyLLMMaxTokens); v > 0 {
		settings.LLM.MaxTokens = v
	}
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = apiKeyFromEnv(settings.LLM.Provider)
	}

	settings.Index.Dir = store.GetString(KeyIndexDir)
	if settings.Index.Dir == "" {
		settings.Index.Dir = filepath.Join(filepath.Dir(store.Path()), "index")
	}

	return settings
}

// apiKeyFromEnv returns the conventional environment variable for a
// cloud provider's API key.
func apiKeyFromEnv(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case domain.AIProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
