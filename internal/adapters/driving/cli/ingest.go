package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
	"github.com/lexica-labs/docq-cli/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest a document or directory into the index",
	Long: `Loads the document (or every supported document under a directory),
splits it into chunks, embeds them, and merges the result into the
local vector index. Re-running ingest adds to the existing index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]

	ingester, err := requireIngest()
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	ctx := context.Background()

	if info.IsDir() {
		reports, err := ingester.IngestDir(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		if len(reports) == 0 {
			cmd.Println("No supported documents found.")
			return nil
		}
		for i := range reports {
			printReport(cmd, &reports[i])
		}
		cmd.Printf("\nIngested %d documents. Index now holds %d chunks.\n",
			len(reports), reports[len(reports)-1].IndexRecords)
		return nil
	}

	report, err := ingester.Ingest(ctx, path)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	printReport(cmd, report)
	cmd.Printf("\nIndex now holds %d chunks.\n", report.IndexRecords)
	return nil
}

func printReport(cmd *cobra.Command, report *driving.IngestReport) {
	cmd.Printf("  %s: %d pages, %d chunks, %d embedding requests\n",
		report.SourceID, report.Pages, report.Chunks, report.Batches)
}
