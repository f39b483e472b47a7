package summarizer

import "context"

// Summarizer condenses transcript text into a summary in the transcript's
// own language.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, apiKey string) (string, error)
}
