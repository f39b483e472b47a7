package pipeline

import (
	"errors"
	"fmt"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/failure"
)

var guidance = map[failure.Category]string{
	failure.ConfigError:          "The API key is missing or malformed. Set gemini.api_key or GEMINI_API_KEY and try again.",
	failure.InputRejected:        "This file cannot be used. Choose a video (up to the video limit) or an audio file (up to the audio limit).",
	failure.TranscodeFailure:     "The audio could not be extracted from this file. Try another file or convert it to MP4 or MP3 first.",
	failure.PayloadTooLarge:      "The audio is too large to send for transcription. Use a shorter or lower-quality recording.",
	failure.ExtractionFailed:     "The video's audio could not be downloaded. Check the URL, and that the extraction backend is running.",
	failure.InvalidAPIKey:        "The API key was rejected. Check that it is correct and enabled for the Gemini API.",
	failure.QuotaExceeded:        "The API quota is exhausted. Wait a while or use a key with a higher quota.",
	failure.TranscriptionTimeout: "Transcription took too long. Try a shorter recording.",
	failure.EmptyTranscription:   "No speech was found. The audio may be silent or too quiet.",
	failure.NetworkError:         "The service could not be reached. Check your internet connection and try again.",
	failure.SecurityError:        "The connection was blocked by a security check (certificate or proxy). Check proxy and TLS settings.",
	failure.TranscriptionFailed:  "Transcription failed. Try again, or try a different file.",
	failure.EmptySummary:         "The summary came back empty. The transcript is still available; try again.",
	failure.SummarizationFailed:  "The summary could not be generated. The transcript is still available; try again.",
}

// Guidance turns a run failure into the text shown to the user.
func Guidance(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrRunInProgress) {
		return "A transcription is already running. Wait for it to finish."
	}
	if errors.Is(err, ErrNoTranscript) {
		return "Transcribe something first; there is nothing to summarize yet."
	}

	cat := failure.CategoryOf(err)
	if cat == failure.RuntimeLoadFailure {
		return runtimeGuidance(err)
	}
	if text, ok := guidance[cat]; ok {
		return text
	}
	return fmt.Sprintf("Something went wrong: %v", err)
}

func runtimeGuidance(err error) string {
	msg := "The audio codec could not be loaded from any mirror."
	var lf *codec.LoadFailure
	if !errors.As(err, &lf) {
		return msg + " Check your connection and try again."
	}
	switch {
	case !lf.Online:
		msg += " No mirror answered at all: you appear to be offline."
	case lf.Connection == "proxy":
		msg += " A proxy is configured; make sure it allows the mirror hosts."
	default:
		msg += " The mirrors answered but the download failed; a VPN or firewall may be interfering."
	}
	return msg + fmt.Sprintf(" (%s)", lf.Platform)
}
