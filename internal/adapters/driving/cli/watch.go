package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and ingest documents as they appear",
	Long: `Watches the directory (recursively) and ingests any supported
document that is created or modified. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	if cfg == nil || cfg.Watch == nil {
		return initError("watch", cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for documents. Press Ctrl+C to stop.\n", dir)

	err := cfg.Watch.Watch(ctx, dir)
	if errors.Is(err, context.Canceled) {
		cmd.Println("Stopped.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
