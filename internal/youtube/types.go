// Package youtube talks to the audio-extraction backend that downloads a
// YouTube video's audio track, and holds the wire types both sides share.
package youtube

import (
	"net/url"
	"strings"

	"github.com/lectern/transcribe-flow/internal/failure"
)

// ExtractRequest is the body of POST /api/extract-audio.
type ExtractRequest struct {
	URL string `json:"url"`
}

// Metadata describes the source video.
type Metadata struct {
	Title       string  `json:"title,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
	Description string  `json:"description,omitempty"`
	UploadDate  string  `json:"upload_date,omitempty"`
	ViewCount   int64   `json:"view_count,omitempty"`
}

// ExtractResponse is returned by a successful extraction.
type ExtractResponse struct {
	Success       bool     `json:"success"`
	RequestID     string   `json:"request_id"`
	AudioFilename string   `json:"audio_filename"`
	Metadata      Metadata `json:"metadata"`
}

// ErrorResponse is the body of every non-2xx backend reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse answers health and cleanup calls.
type StatusResponse struct {
	Success bool   `json:"success,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// DefaultHosts are the video hosts accepted for extraction.
var DefaultHosts = []string{"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be"}

// IsURL reports whether s looks like a web address rather than a file path.
func IsURL(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ValidateURL accepts http(s) URLs whose host is one of hosts.
func ValidateURL(raw string, hosts []string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return failure.New(failure.InputRejected, "validate url", "not a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return failure.New(failure.InputRejected, "validate url", "URL must use http or https")
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if host == h {
			return nil
		}
	}
	return failure.New(failure.InputRejected, "validate url", "please provide a valid YouTube URL")
}
