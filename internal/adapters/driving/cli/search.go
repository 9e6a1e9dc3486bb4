package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/docq-cli/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [question]",
	Short: "Retrieve the most similar chunks without generating an answer",
	Long: `Performs similarity search over the index and prints the matching
chunks. Useful for inspecting what an answer would be grounded on.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default: configured top-k)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	question := args[0]

	query, err := requireQuery()
	if err != nil {
		return err
	}

	chunks, err := query.Retrieve(context.Background(), question, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputChunksJSON(cmd, chunks)
	}
	return outputChunksText(cmd, chunks)
}

func outputChunksJSON(cmd *cobra.Command, chunks []domain.Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputChunksText(cmd *cobra.Command, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, chunk := range chunks {
		where := chunk.SourceID
		if chunk.Page != nil {
			where = fmt.Sprintf("%s, page %d", chunk.SourceID, *chunk.Page)
		}
		cmd.Printf("  [%d] %s\n", i+1, where)
		cmd.Printf("      %s\n", snippet(chunk.Content, 200))
		cmd.Println()
	}
	return nil
}

// snippet shortens content for single-line display.
func snippet(content string, maxLen int) string {
	content = strings.Join(strings.Fields(content), " ")
	if len(content) <= maxLen {
		return content
	}
	// Never cut in the middle of a rune.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
