package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the local index",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if cfg == nil || cfg.Status == nil {
		return errors.New("status service not configured")
	}

	status, err := cfg.Status.Status(context.Background())
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			cmd.Println("No index found. Run `docq ingest <path>` first.")
			return nil
		}
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Println("Index Status")
	cmd.Println("============")
	cmd.Printf("Chunks:     %d\n", status.Records)
	cmd.Printf("Dimensions: %d\n", status.Dimensions)

	if len(status.SourceCounts) == 0 {
		return nil
	}

	sources := make([]string, 0, len(status.SourceCounts))
	for source := range status.SourceCounts {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	cmd.Println()
	cmd.Println("Documents:")
	for _, source := range sources {
		cmd.Printf("  %-40s %d chunks\n", source, status.SourceCounts[source])
	}
	return nil
}
