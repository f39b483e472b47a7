package youtube

import (
	"net/http"
	"strings"

	"github.com/lectern/transcribe-flow/internal/logger"
)

type implClient struct {
	baseURL  string
	http     *http.Client
	maxBytes int64
	logger   logger.Logger
}

// New creates a Client for the backend at baseURL. Downloads larger than
// maxBytes are refused; zero disables the limit.
func New(baseURL string, httpClient *http.Client, maxBytes int64, log logger.Logger) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &implClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     httpClient,
		maxBytes: maxBytes,
		logger:   log,
	}
}
