package transcoder

import (
	"context"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/media"
)

// Transcoder converts media into the compact mono audio profile sent to the
// AI provider.
type Transcoder interface {
	Transcode(ctx context.Context, rt codec.Runtime, in media.Input, progress media.ProgressFunc) (media.AudioPayload, error)
}
