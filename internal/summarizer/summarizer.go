package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/gemini"
	"github.com/lectern/transcribe-flow/internal/transcriber"
	"github.com/lectern/transcribe-flow/pkg/deadline"
)

const op = "summarize"

const summaryPrompt = `You are an expert at analysing spoken content. Based on the transcript below, write a summary.

Requirements:
- Write the summary in the SAME LANGUAGE as the transcript. Do not translate it.
- Begin with one sentence stating the overall subject.
- Focus on the main topics and key points, in the order they appear.
- Keep important names, figures and technical terms as they appear in the transcript.
- Use plain paragraphs or short bullet points; no introduction or closing remarks.

Transcript:
---
%s
---`

// Summarize sends the transcript to the model and returns the summary text.
func (s *implSummarizer) Summarize(ctx context.Context, transcript, apiKey string) (string, error) {
	if err := transcriber.CheckKey(apiKey); err != nil {
		return "", failure.New(failure.ConfigError, op, "a valid API key is required to summarize")
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return "", failure.New(failure.SummarizationFailed, op, "there is no transcript to summarize")
	}

	s.logger.Info(ctx, "Summarizing transcript of %d characters", len(transcript))

	start := time.Now()
	text, err := deadline.Run(ctx, s.timeout, func(ctx context.Context) (string, error) {
		return s.client.Generate(ctx, strings.TrimSpace(apiKey), gemini.TextPart(fmt.Sprintf(summaryPrompt, transcript)))
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			s.logger.Error(ctx, "Summarization timed out after %s", time.Since(start).Round(time.Millisecond))
			return "", failure.Wrap(failure.SummarizationFailed, op, fmt.Errorf("no answer within %s: %w", s.timeout, err))
		}
		s.logger.Error(ctx, "Summarization failed: %v", err)
		return "", failure.Wrap(failure.SummarizationFailed, op, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", failure.New(failure.EmptySummary, op, "the model returned an empty summary")
	}

	s.logger.Info(ctx, "Summary received: %d characters", len(text))
	return text, nil
}
