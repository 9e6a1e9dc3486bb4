package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/docq-cli/internal/adapters/driven/ai"
	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and verify docq configuration",
	RunE:  runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured providers are reachable",
	RunE:  runConfigCheck,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	settings := cfg.Settings

	cmd.Println("docq Configuration")
	cmd.Println("==================")
	if cfg.ConfigPath != "" {
		cmd.Printf("File: %s\n", cfg.ConfigPath)
	}
	cmd.Println()

	cmd.Println("Embedding:")
	printProvider(cmd, settings.Embedding.Provider, settings.Embedding.Model,
		settings.Embedding.BaseURL, settings.Embedding.APIKey, settings.Embedding.IsConfigured())
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Println()

	cmd.Println("Generation:")
	printProvider(cmd, settings.LLM.Provider, settings.LLM.Model,
		settings.LLM.BaseURL, settings.LLM.APIKey, settings.LLM.IsConfigured())
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Println()

	cmd.Println("Chunking:")
	cmd.Printf("  Chunk size: %d characters\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d characters\n", settings.Chunking.ChunkOverlap)
	cmd.Println()

	cmd.Println("Retrieval:")
	cmd.Printf("  Top-k: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Context budget: %d characters\n", settings.Retrieval.ContextBudget)
	if settings.Retrieval.AnswerLanguage != "" {
		cmd.Printf("  Answer language: %s\n", settings.Retrieval.AnswerLanguage)
	}
	cmd.Println()

	cmd.Println("Index:")
	if settings.Index.Dir != "" {
		cmd.Printf("  Directory: %s\n", settings.Index.Dir)
	} else {
		cmd.Println("  Directory: (default)")
	}

	return nil
}

func printProvider(cmd *cobra.Command, provider domain.AIProvider, model, baseURL, apiKey string, configured bool) {
	if provider == "" {
		cmd.Println("  Provider: (not set)")
		return
	}
	cmd.Printf("  Provider: %s\n", provider.Description())
	if model != "" {
		cmd.Printf("  Model: %s\n", model)
	}
	if baseURL != "" {
		cmd.Printf("  Base URL: %s\n", baseURL)
	}
	if provider.RequiresAPIKey() {
		cmd.Printf("  API key: %s\n", maskAPIKey(apiKey))
	}
	if configured {
		cmd.Println("  Status: configured")
	} else {
		cmd.Println("  Status: not configured")
	}
}

func runConfigCheck(cmd *cobra.Command, _ []string) error {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	settings := cfg.Settings
	failed := false

	cmd.Print("Embedding provider... ")
	if embedder, err := ai.CreateAndValidateEmbeddingService(settings.Embedding); err != nil {
		cmd.Printf("FAIL\n  %v\n", err)
		failed = true
	} else {
		cmd.Printf("OK (%s)\n", embedder.ModelName())
		embedder.Close()
	}

	cmd.Print("Generation provider... ")
	if llm, err := ai.CreateAndValidateLLMService(settings.LLM); err != nil {
		cmd.Printf("FAIL\n  %v\n", err)
		failed = true
	} else {
		cmd.Printf("OK (%s)\n", llm.ModelName())
		llm.Close()
	}

	if failed {
		return fmt.Errorf("%w: one or more providers failed verification", domain.ErrConfiguration)
	}
	cmd.Println("\nAll providers verified.")
	return nil
}

// maskAPIKey hides the middle of an API key for display.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 8) + key[len(key)-4:]
}
