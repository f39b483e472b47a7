package transcoder

import (
	"github.com/lectern/transcribe-flow/internal/logger"
)

type implTranscoder struct {
	maxPayload int64
	logger     logger.Logger
}

// New creates a Transcoder that refuses to produce payloads above maxPayload
// bytes (0 disables the check).
func New(maxPayload int64, log logger.Logger) Transcoder {
	return &implTranscoder{
		maxPayload: maxPayload,
		logger:     log,
	}
}
