// Package cli implements the docq command-line interface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
	"github.com/lexica-labs/docq-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Config holds the wired services the commands run against. Services
// left nil make their commands fail with the recorded init error.
type Config struct {
	Ingest driving.IngestOrchestrator
	Query  driving.QueryService
	Status driving.StatusService
	Watch  driving.WatchService

	// Settings is the effective configuration, shown by `config show`.
	Settings domain.AppSettings

	// ConfigPath is where the settings were loaded from.
	ConfigPath string

	// EmbeddingErr and LLMErr record provider wiring failures so
	// commands can explain what is missing.
	EmbeddingErr error
	LLMErr       error
}

var cfg *Config

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "Ask questions about your documents",
	Long: `docq ingests PDF, text, and Markdown documents into a local
vector index and answers natural-language questions grounded in them.

Typical flow:
  docq ingest ./papers        index a directory of documents
  docq ask "what is X?"       get an answer with sources
  docq status                 inspect the index`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetConfig injects the wired services. Must be called before Execute.
func SetConfig(c *Config) {
	cfg = c
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// requireIngest returns the ingest orchestrator or the reason it is
// unavailable.
func requireIngest() (driving.IngestOrchestrator, error) {
	if cfg == nil || cfg.Ingest == nil {
		return nil, initError("ingest", cfg)
	}
	return cfg.Ingest, nil
}

// requireQuery returns the query service or the reason it is
// unavailable.
func requireQuery() (driving.QueryService, error) {
	if cfg == nil || cfg.Query == nil {
		return nil, initError("query", cfg)
	}
	return cfg.Query, nil
}

func initError(what string, c *Config) error {
	if c != nil && c.EmbeddingErr != nil {
		return c.EmbeddingErr
	}
	return errors.New(what + " service not configured")
}
