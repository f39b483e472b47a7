package pipeline

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lectern/transcribe-flow/internal/failure"
)

type httpChecker struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewHTTPChecker creates a NetworkChecker that succeeds when url answers with
// any HTTP status.
func NewHTTPChecker(url string, timeout time.Duration, client *http.Client) NetworkChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpChecker{url: url, timeout: timeout, client: client}
}

func (c *httpChecker) Check(ctx context.Context) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return failure.Wrap(failure.ConfigError, "network check", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return failure.Wrap(failure.NetworkError, "network check", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
