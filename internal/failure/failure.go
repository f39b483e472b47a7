// Package failure holds the closed set of categories every pipeline step
// reports its errors in.
package failure

import (
	"errors"
	"fmt"
)

// Category classifies a failure for user messaging.
type Category string

const (
	ConfigError          Category = "config_error"
	InputRejected        Category = "input_rejected"
	RuntimeLoadFailure   Category = "runtime_load_failure"
	TranscodeFailure     Category = "transcode_failure"
	PayloadTooLarge      Category = "payload_too_large"
	ExtractionFailed     Category = "extraction_failed"
	InvalidAPIKey        Category = "invalid_api_key"
	QuotaExceeded        Category = "quota_exceeded"
	TranscriptionTimeout Category = "transcription_timeout"
	EmptyTranscription   Category = "empty_transcription"
	NetworkError         Category = "network_error"
	SecurityError        Category = "security_error"
	TranscriptionFailed  Category = "transcription_failed"
	EmptySummary         Category = "empty_summary"
	SummarizationFailed  Category = "summarization_failed"
	Unknown              Category = "unknown"
)

// Error is a categorized failure raised by one pipeline operation.
type Error struct {
	Category Category
	Op       string
	Message  string
	Err      error
}

// New builds a categorized error without an underlying cause.
func New(cat Category, op, msg string) *Error {
	return &Error{Category: cat, Op: op, Message: msg}
}

// Wrap builds a categorized error around err.
func Wrap(cat Category, op string, err error) *Error {
	return &Error{Category: cat, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	switch {
	case msg == "" && e.Err != nil:
		msg = e.Err.Error()
	case msg != "" && e.Err != nil:
		msg = msg + ": " + e.Err.Error()
	}
	return fmt.Sprintf("%s [%s]: %s", e.Op, e.Category, msg)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CategoryOf returns the category of the outermost *Error in the chain.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Category
	}
	return Unknown
}

// Is reports whether err carries category cat.
func Is(err error, cat Category) bool {
	return CategoryOf(err) == cat
}
