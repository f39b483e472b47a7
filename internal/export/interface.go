package export

import (
	"context"

	"github.com/lectern/transcribe-flow/internal/transcript"
)

// Exporter writes the downloadable artifacts of a run and returns the paths
// it created.
type Exporter interface {
	WriteTranscript(ctx context.Context, title string, segs []transcript.Segment) ([]string, error)
	WriteSummary(ctx context.Context, title, summary string) ([]string, error)
}
