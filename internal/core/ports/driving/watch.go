package driving

import "context"

// WatchService ingests documents as they appear in a drop directory.
type WatchService interface {
	// Watch blocks, ingesting supported files created or modified
	// under dir until ctx is cancelled.
	Watch(ctx context.Context, dir string) error
}
