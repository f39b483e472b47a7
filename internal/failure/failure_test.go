package failure

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCategoryOf(t *testing.T) {
	base := errors.New("disk on fire")

	tests := []struct {
		name string
		err  error
		want Category
	}{
		{"nil error", nil, ""},
		{"plain error", base, Unknown},
		{"direct", Wrap(TranscodeFailure, "transcode", base), TranscodeFailure},
		{"wrapped by fmt", fmt.Errorf("run: %w", New(ConfigError, "config", "missing key")), ConfigError},
		{"outermost wins", Wrap(TranscriptionFailed, "transcribe", Wrap(NetworkError, "dial", base)), TranscriptionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategoryOf(tt.err); got != tt.want {
				t.Errorf("CategoryOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &Error{Category: TranscodeFailure, Op: "transcode", Message: "codec failed", Err: cause}

	msg := err.Error()
	for _, want := range []string{"transcode", "transcode_failure", "codec failed", "exit status 1"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestIs(t *testing.T) {
	err := New(PayloadTooLarge, "guard", "21 MB")
	if !Is(err, PayloadTooLarge) {
		t.Error("Is() = false, want true")
	}
	if Is(err, ConfigError) {
		t.Error("Is() = true for a different category")
	}
}
