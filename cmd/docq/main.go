package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/lexica-labs/docq-cli/internal/adapters/driven/ai"
	"github.com/lexica-labs/docq-cli/internal/adapters/driven/config/file"
	"github.com/lexica-labs/docq-cli/internal/adapters/driven/storage/sqlite"
	"github.com/lexica-labs/docq-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/lexica-labs/docq-cli/internal/adapters/driving/cli"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driven"
	"github.com/lexica-labs/docq-cli/internal/core/services"
	"github.com/lexica-labs/docq-cli/internal/loaders"
	"github.com/lexica-labs/docq-cli/internal/loaders/markdown"
	"github.com/lexica-labs/docq-cli/internal/loaders/pdf"
	"github.com/lexica-labs/docq-cli/internal/loaders/plaintext"
	"github.com/lexica-labs/docq-cli/internal/logger"
	"github.com/lexica-labs/docq-cli/internal/postprocessors"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file in the working directory may carry API keys.
	_ = godotenv.Load()

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}

	settings := file.LoadSettings(configStore)
	if err := settings.Validate(); err != nil {
		return err
	}

	registry := loaders.NewRegistry()
	registry.Register(pdf.New())
	registry.Register(plaintext.New())
	registry.Register(markdown.New())

	procRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(procRegistry)
	chunkerProc, err := procRegistry.Build("chunker", map[string]any{
		"chunk_size": settings.Chunking.ChunkSize,
		"overlap":    settings.Chunking.ChunkOverlap,
	})
	if err != nil {
		return err
	}
	pipeline := postprocessors.NewPipeline(chunkerProc)

	store, err := flat.NewStore(settings.Index.Dir, sqlite.Open)
	if err != nil {
		return err
	}

	cliConfig := &cli.Config{
		Settings:   settings,
		ConfigPath: configStore.Path(),
	}

	// Provider wiring failures are recorded rather than fatal so
	// commands that need no provider (status, config, version) keep
	// working and the rest report what is missing.
	var embedder driven.EmbeddingService
	embedder, cliConfig.EmbeddingErr = ai.CreateEmbeddingService(settings.Embedding)

	var llm driven.LLMService
	llm, cliConfig.LLMErr = ai.CreateLLMService(settings.LLM)
	if cliConfig.LLMErr != nil {
		logger.Debug("Generation provider unavailable: %v", cliConfig.LLMErr)
	}

	if embedder != nil {
		gateway, err := services.NewEmbeddingGateway(embedder, settings.Batch)
		if err != nil {
			return err
		}

		ingester := services.NewIngestService(registry, pipeline, gateway, store)
		cliConfig.Ingest = ingester
		cliConfig.Watch = services.NewWatchService(ingester, registry, services.DefaultDebounce)

		query, err := services.NewQueryService(gateway, store, llm, settings.Retrieval, settings.LLM)
		if err != nil {
			return err
		}
		cliConfig.Query = query
	}

	cliConfig.Status = services.NewStatusService(store, store)

	cli.SetConfig(cliConfig)
	cli.SetVersion(version)

	return cli.Execute()
}
