package transcriber

import (
	"time"

	"github.com/lectern/transcribe-flow/internal/gemini"
	"github.com/lectern/transcribe-flow/internal/logger"
)

// DefaultTimeout bounds one transcription call.
const DefaultTimeout = 60 * time.Second

type implTranscriber struct {
	client  gemini.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a Transcriber backed by client. A zero timeout uses DefaultTimeout.
func New(client gemini.Client, timeout time.Duration, log logger.Logger) Transcriber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &implTranscriber{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
}
