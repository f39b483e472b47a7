package gemini

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"google.golang.org/genai"

	"github.com/lectern/transcribe-flow/internal/failure"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want failure.Category
	}{
		{"nil", nil, ""},
		{"unauthenticated", genai.APIError{Code: 401, Status: "UNAUTHENTICATED"}, failure.InvalidAPIKey},
		{"permission denied pointer", &genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, failure.InvalidAPIKey},
		{"bad key 400", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "API key not valid. Please pass a valid API key."}, failure.InvalidAPIKey},
		{"other 400", genai.APIError{Code: 400, Status: "INVALID_ARGUMENT", Message: "Request contains an invalid argument."}, failure.TranscriptionFailed},
		{"quota", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "Resource has been exhausted"}, failure.QuotaExceeded},
		{"quota by code", genai.APIError{Code: 429}, failure.QuotaExceeded},
		{"deadline status", genai.APIError{Code: 504, Status: "DEADLINE_EXCEEDED"}, failure.TranscriptionTimeout},
		{"unavailable", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, failure.NetworkError},
		{"wrapped api error", fmt.Errorf("generate content: %w", genai.APIError{Code: 429}), failure.QuotaExceeded},
		{"context deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), failure.TranscriptionTimeout},
		{"dial error", &url.Error{Op: "Post", URL: "https://x", Err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}}, failure.NetworkError},
		{"net timeout", &url.Error{Op: "Post", URL: "https://x", Err: timeoutErr{}}, failure.TranscriptionTimeout},
		{"unknown authority", &url.Error{Op: "Post", URL: "https://x", Err: x509.UnknownAuthorityError{}}, failure.SecurityError},
		{"text key", errors.New("invalid API key supplied"), failure.InvalidAPIKey},
		{"text quota", errors.New("you exceeded your current quota"), failure.QuotaExceeded},
		{"text timeout", errors.New("request timed out"), failure.TranscriptionTimeout},
		{"text cors", errors.New("blocked by CORS policy"), failure.SecurityError},
		{"text fetch", errors.New("failed to fetch"), failure.NetworkError},
		{"fallback", errors.New("something odd"), failure.TranscriptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Structured status wins over misleading message text.
func TestClassifyPrefersStructure(t *testing.T) {
	err := genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "api key quota timeout"}
	if got := Classify(err); got != failure.QuotaExceeded {
		t.Errorf("Classify() = %q, want %q", got, failure.QuotaExceeded)
	}
}
