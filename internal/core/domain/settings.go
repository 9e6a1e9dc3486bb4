package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Dimensions overrides the model's default vector size.
	Dimensions int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama or compatible APIs).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkingSettings holds text splitting configuration.
type ChunkingSettings struct {
	// ChunkSize is the target chunk size in characters.
	ChunkSize int

	// ChunkOverlap is the number of characters consecutive chunks
	// within a page share across a cut boundary.
	ChunkOverlap int
}

// Validate reports a configuration error for invalid size/overlap pairs.
func (c ChunkingSettings) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrConfiguration, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			ErrConfiguration, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// BatchSettings bounds embedding request sizes to respect
// provider-side limits.
type BatchSettings struct {
	// MaxBatchCount is the maximum number of texts per embedding request.
	MaxBatchCount int

	// MaxBatchChars is the maximum aggregate text length per request.
	MaxBatchChars int

	// Concurrency bounds parallel batch submissions within one ingestion.
	Concurrency int

	// RequestsPerSecond throttles batch submissions. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// Validate reports a configuration error for invalid batch limits.
func (b BatchSettings) Validate() error {
	if b.MaxBatchCount <= 0 {
		return fmt.Errorf("%w: max batch count must be positive, got %d", ErrConfiguration, b.MaxBatchCount)
	}
	if b.MaxBatchChars <= 0 {
		return fmt.Errorf("%w: max batch chars must be positive, got %d", ErrConfiguration, b.MaxBatchChars)
	}
	if b.Concurrency <= 0 {
		return fmt.Errorf("%w: batch concurrency must be positive, got %d", ErrConfiguration, b.Concurrency)
	}
	return nil
}

// RetrievalSettings holds query-time configuration.
type RetrievalSettings struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// ContextBudget is the maximum total characters of retrieved
	// context handed to the generation capability.
	ContextBudget int

	// AnswerLanguage is the target natural language for answers.
	// Empty means follow the language of the question.
	AnswerLanguage string
}

// Validate reports a configuration error for invalid retrieval settings.
func (r RetrievalSettings) Validate() error {
	if r.TopK <= 0 {
		return fmt.Errorf("%w: top-k must be a positive integer, got %d", ErrConfiguration, r.TopK)
	}
	if r.ContextBudget <= 0 {
		return fmt.Errorf("%w: context budget must be positive, got %d", ErrConfiguration, r.ContextBudget)
	}
	return nil
}

// IndexSettings holds vector index configuration.
type IndexSettings struct {
	// Dir is the directory holding the persisted index.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Chunking holds text splitting settings.
	Chunking ChunkingSettings

	// Batch holds embedding request batching settings.
	Batch BatchSettings

	// Retrieval holds query-time settings.
	Retrieval RetrievalSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Index holds vector index settings.
	Index IndexSettings
}

// Validate checks every settings group. Configuration errors are
// fatal at startup, never deferred to request time.
func (s AppSettings) Validate() error {
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if err := s.Batch.Validate(); err != nil {
		return err
	}
	return s.Retrieval.Validate()
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers (Embedding, LLM) are left unconfigured by default;
// users must configure them via config file or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Batch: BatchSettings{
			MaxBatchCount: 100,
			MaxBatchChars: 100_000,
			Concurrency:   4,
		},
		Retrieval: RetrievalSettings{
			TopK:          5,
			ContextBudget: 12_000,
		},
		Embedding: EmbeddingSettings{},
		LLM: LLMSettings{
			Temperature: 0.2,
			MaxTokens:   1000,
		},
		Index: IndexSettings{},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// AllLLMProviders returns providers that support text generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderGemini,
	}
}
