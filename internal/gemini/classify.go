package gemini

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/lectern/transcribe-flow/internal/failure"
)

// Classify maps a failed transcription call to a category. Structured API
// errors are read by status and code; transport errors by type; message text
// is only consulted when neither applies.
func Classify(err error) failure.Category {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return failure.TranscriptionTimeout
	}

	if apiErr, ok := asAPIError(err); ok {
		if cat := classifyAPIError(apiErr); cat != "" {
			return cat
		}
		return classifyText(apiErr.Message)
	}

	if isSecurityError(err) {
		return failure.SecurityError
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return failure.TranscriptionTimeout
		}
		return failure.NetworkError
	}

	return classifyText(err.Error())
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

func classifyAPIError(e genai.APIError) failure.Category {
	switch e.Status {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return failure.InvalidAPIKey
	case "RESOURCE_EXHAUSTED":
		return failure.QuotaExceeded
	case "DEADLINE_EXCEEDED":
		return failure.TranscriptionTimeout
	case "UNAVAILABLE":
		return failure.NetworkError
	}

	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return failure.InvalidAPIKey
	case http.StatusTooManyRequests:
		return failure.QuotaExceeded
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return failure.TranscriptionTimeout
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return failure.NetworkError
	case http.StatusBadRequest:
		// Bad keys come back as INVALID_ARGUMENT with a descriptive message.
		if isKeyMessage(strings.ToLower(e.Message)) {
			return failure.InvalidAPIKey
		}
	}
	return ""
}

func isSecurityError(err error) bool {
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var certErr *tls.CertificateVerificationError
	return errors.As(err, &unknownAuth) || errors.As(err, &hostErr) || errors.As(err, &certErr)
}

func isKeyMessage(msg string) bool {
	return strings.Contains(msg, "api key") || strings.Contains(msg, "api_key") || strings.Contains(msg, "apikey")
}

// classifyText is the last-resort heuristic over human-readable messages.
func classifyText(msg string) failure.Category {
	m := strings.ToLower(msg)
	switch {
	case isKeyMessage(m):
		return failure.InvalidAPIKey
	case strings.Contains(m, "quota"), strings.Contains(m, "rate limit"), strings.Contains(m, "resource_exhausted"), strings.Contains(m, "429"):
		return failure.QuotaExceeded
	case strings.Contains(m, "timeout"), strings.Contains(m, "timed out"), strings.Contains(m, "deadline"):
		return failure.TranscriptionTimeout
	case strings.Contains(m, "cors"), strings.Contains(m, "cross-origin"), strings.Contains(m, "certificate"):
		return failure.SecurityError
	case strings.Contains(m, "network"), strings.Contains(m, "fetch"), strings.Contains(m, "connection"), strings.Contains(m, "no such host"):
		return failure.NetworkError
	default:
		return failure.TranscriptionFailed
	}
}
