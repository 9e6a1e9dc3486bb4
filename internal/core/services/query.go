package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService retrieves similar chunks and generates grounded
// answers over the persisted index.
type QueryService struct {
	gateway  *EmbeddingGateway
	store    driven.VectorIndexStore
	llm      driven.LLMService
	settings domain.RetrievalSettings
	llmOpts  domain.LLMSettings
}

// NewQueryService creates a new query service. The llm parameter may
// be nil; Ask then always produces the fallback answer while Retrieve
// keeps working.
func NewQueryService(
	gateway *EmbeddingGateway,
	store driven.VectorIndexStore,
	llm driven.LLMService,
	settings domain.RetrievalSettings,
	llmOpts domain.LLMSettings,
) (*QueryService, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &QueryService{
		gateway:  gateway,
		store:    store,
		llm:      llm,
		settings: settings,
		llmOpts:  llmOpts,
	}, nil
}

// Retrieve returns the k chunks most similar to the question.
func (s *QueryService) Retrieve(ctx context.Context, question string, k int) ([]domain.Chunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrEmptyInput)
	}
	if k <= 0 {
		k = s.settings.TopK
	}

	if !s.store.Exists() {
		return nil, fmt.Errorf("%w: no index found, run ingest first", domain.ErrNotReady)
	}

	logger.Section("Retrieve")
	logger.Debug("Question: %q, k=%d", question, k)

	embedding, err := s.gateway.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	index, err := s.store.Load(ctx, s.gateway.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}

	hits, err := index.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Debug("Retrieved %d chunks from %d records", len(hits), index.Count())

	chunks := make([]domain.Chunk, len(hits))
	for i, hit := range hits {
		chunks[i] = hit.Chunk
	}
	return chunks, nil
}

// Ask retrieves context for the question and generates an answer
// grounded in it.
func (s *QueryService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	chunks, err := s.Retrieve(ctx, question, s.settings.TopK)
	if err != nil {
		return nil, err
	}

	used, contextText := packContext(chunks, s.settings.ContextBudget)
	if len(used) == 0 {
		return &domain.Answer{
			Text:     fallbackAnswer,
			Fallback: true,
		}, nil
	}

	logger.Section("Answer")
	logger.Debug("Context: %d of %d chunks, %d chars", len(used), len(chunks), len(contextText))

	sources := provenance(used)

	text, genErr := s.generate(ctx, question, contextText)
	if genErr != nil {
		logger.Warn("Generation failed: %v", genErr)
		return &domain.Answer{
			Text:     fallbackAnswer,
			Sources:  sources,
			Fallback: true,
		}, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Generation returned empty content")
		return &domain.Answer{
			Text:     fallbackAnswer,
			Sources:  sources,
			Fallback: true,
		}, nil
	}

	return &domain.Answer{
		Text:    text,
		Sources: sources,
	}, nil
}

// generate runs the generation capability over the packed context.
func (s *QueryService) generate(ctx context.Context, question, contextText string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("%w: no generation provider configured", domain.ErrConfiguration)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: answerSystemPrompt(s.settings.AnswerLanguage)},
		{Role: "user", Content: answerUserPrompt(contextText, question)},
	}

	return s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   s.llmOpts.MaxTokens,
		Temperature: s.llmOpts.Temperature,
	})
}
