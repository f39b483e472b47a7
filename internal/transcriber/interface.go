package transcriber

import (
	"context"

	"github.com/lectern/transcribe-flow/internal/media"
)

// Transcriber turns an audio payload into timestamped free text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio media.AudioPayload, apiKey string) (string, error)
}
