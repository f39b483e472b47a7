package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/logger"
)

const validKey = "AIzaSyTestKeyForSummaries0001"

type fakeClient struct {
	calls  int
	prompt string
	text   string
	err    error
}

func (f *fakeClient) Generate(_ context.Context, _ string, parts ...*genai.Part) (string, error) {
	f.calls++
	if len(parts) > 0 {
		f.prompt = parts[0].Text
	}
	return f.text, f.err
}

func TestSummarize(t *testing.T) {
	client := &fakeClient{text: "\n Resumen del video.\n"}
	s := New(client, 0, logger.Nop())

	got, err := s.Summarize(context.Background(), "Hola a todos, hoy hablamos de Go.", validKey)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Resumen del video." {
		t.Errorf("Summarize() = %q", got)
	}
	if !strings.Contains(client.prompt, "Hola a todos, hoy hablamos de Go.") {
		t.Errorf("prompt does not embed the transcript")
	}
	for _, want := range []string{"SAME LANGUAGE", "Do not translate", "main topics"} {
		if !strings.Contains(client.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name      string
		client    *fakeClient
		text      string
		key       string
		want      failure.Category
		wantCalls int
	}{
		{"no key", &fakeClient{text: "x"}, "some text", "", failure.ConfigError, 0},
		{"short key", &fakeClient{text: "x"}, "some text", "short", failure.ConfigError, 0},
		{"no transcript", &fakeClient{text: "x"}, "   ", validKey, failure.SummarizationFailed, 0},
		{"blank summary", &fakeClient{text: "  "}, "some text", validKey, failure.EmptySummary, 1},
		{"provider error", &fakeClient{err: errors.New("quota exceeded")}, "some text", validKey, failure.SummarizationFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.client, 0, logger.Nop())
			_, err := s.Summarize(context.Background(), tt.text, tt.key)
			if got := failure.CategoryOf(err); got != tt.want {
				t.Errorf("category = %s, want %s (err %v)", got, tt.want, err)
			}
			if tt.client.calls != tt.wantCalls {
				t.Errorf("client calls = %d, want %d", tt.client.calls, tt.wantCalls)
			}
		})
	}
}

type blockingClient struct {
	sawDeadline chan bool
}

func (b *blockingClient) Generate(ctx context.Context, _ string, _ ...*genai.Part) (string, error) {
	_, ok := ctx.Deadline()
	b.sawDeadline <- ok
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSummarizeTimeout(t *testing.T) {
	client := &blockingClient{sawDeadline: make(chan bool, 1)}
	s := New(client, 30*time.Millisecond, logger.Nop())

	start := time.Now()
	_, err := s.Summarize(context.Background(), "some text", validKey)
	if got := failure.CategoryOf(err); got != failure.SummarizationFailed {
		t.Errorf("category = %s, want %s (err %v)", got, failure.SummarizationFailed, err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want it to wrap context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Summarize() took %s, want it bounded by the timeout", elapsed)
	}
	if !<-client.sawDeadline {
		t.Error("provider call ran without a deadline")
	}
}
