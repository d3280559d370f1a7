package artifact

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"

	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

// NewSink builds the sink selected by cfg. The returned close function
// releases any client the sink holds.
func NewSink(ctx context.Context, cfg *config.ArtifactsConfig) (Sink, func() error, error) {
	switch cfg.GetSink() {
	case config.ArtifactSinkFile:
		slog.Info("Writing artifacts to filesystem", "base_path", cfg.BasePath)
		return FileSink{}, func() error { return nil }, nil
	case config.ArtifactSinkGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create GCS client: %w", err)
		}
		slog.Info("Writing artifacts to GCS", "bucket", cfg.Bucket, "prefix", cfg.BasePath)
		return NewGCSSink(client, cfg.Bucket), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown artifact sink: %s", cfg.Sink)
	}
}
