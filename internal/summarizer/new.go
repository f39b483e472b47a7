package summarizer

import (
	"time"

	"github.com/lectern/transcribe-flow/internal/gemini"
	"github.com/lectern/transcribe-flow/internal/logger"
)

// DefaultTimeout bounds one summary call.
const DefaultTimeout = 60 * time.Second

type implSummarizer struct {
	client  gemini.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a Summarizer backed by client. A zero timeout uses DefaultTimeout.
func New(client gemini.Client, timeout time.Duration, log logger.Logger) Summarizer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &implSummarizer{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
}
