package youtube

import (
	"context"

	"github.com/lectern/transcribe-flow/internal/media"
)

// Client consumes the extraction backend.
type Client interface {
	Extract(ctx context.Context, videoURL string) (ExtractResponse, error)
	Download(ctx context.Context, requestID, filename string) (media.AudioPayload, error)
	Cleanup(ctx context.Context, requestID string) error
	Health(ctx context.Context) error
}
