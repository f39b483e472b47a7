package transcriber

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/gemini"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/pkg/deadline"
)

const op = "transcribe"

// MinKeyLength is the shortest string accepted as an API key.
const MinKeyLength = 20

const prompt = `Transcribe the spoken content of this audio file.

Requirements:
- Write the words exactly as spoken, in the language they are spoken in. Do not translate.
- Put a timestamp in the form [MM:SS] before each spoken segment, marking when it starts.
- Start a new segment at every natural pause or change of speaker.
- Output only the transcript, with no introduction or closing remarks.`

// CheckKey rejects keys that cannot possibly be valid, before any network use.
func CheckKey(apiKey string) error {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return failure.New(failure.ConfigError, op, "API key is not configured")
	}
	if len(key) < MinKeyLength {
		return failure.New(failure.ConfigError, op, "API key is too short to be valid")
	}
	return nil
}

// Transcribe submits audio with the timestamp prompt and returns the raw text.
func (t *implTranscriber) Transcribe(ctx context.Context, audio media.AudioPayload, apiKey string) (string, error) {
	if err := CheckKey(apiKey); err != nil {
		return "", err
	}
	if audio.Size() == 0 {
		return "", failure.New(failure.TranscriptionFailed, op, "audio payload is empty")
	}

	t.logger.Info(ctx, "Submitting %s of %s for transcription", media.HumanSize(audio.Size()), audio.MIMEType)
	start := time.Now()

	text, err := deadline.Run(ctx, t.timeout, func(ctx context.Context) (string, error) {
		return t.client.Generate(ctx, strings.TrimSpace(apiKey),
			gemini.TextPart(prompt),
			gemini.AudioPart(audio.MIMEType, audio.Data),
		)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return "", failure.Wrap(failure.TranscriptionFailed, op, err)
		}
		cat := gemini.Classify(err)
		t.logger.Error(ctx, "Transcription failed after %s: %s: %v", time.Since(start).Round(time.Millisecond), cat, err)
		return "", failure.Wrap(cat, op, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", failure.New(failure.EmptyTranscription, op, "the model returned no text; the audio may be silent or too quiet")
	}

	t.logger.Info(ctx, "Transcription received: %d characters in %s", len(text), time.Since(start).Round(time.Millisecond))
	return text, nil
}
