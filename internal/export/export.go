package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lectern/transcribe-flow/internal/transcript"
)

const (
	transcriptSuffix = ".transcript"
	summarySuffix    = ".summary"
	maxBaseName      = 80
)

var reUnsafe = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// BaseName turns a title into a file-name stem safe on every platform.
func BaseName(title string) string {
	name := reUnsafe.ReplaceAllString(strings.TrimSpace(title), "_")
	name = strings.Trim(name, "._-")
	if r := []rune(name); len(r) > maxBaseName {
		name = string(r[:maxBaseName])
	}
	if name == "" {
		return "transcript"
	}
	return name
}

func (e *implExporter) WriteTranscript(ctx context.Context, title string, segs []transcript.Segment) ([]string, error) {
	stem := filepath.Join(e.dir, BaseName(title)+transcriptSuffix)
	return e.write(ctx, stem, []byte(transcript.Render(segs)), func(path string) error {
		return transcriptToDocx(title, segs, path)
	})
}

func (e *implExporter) WriteSummary(ctx context.Context, title, summary string) ([]string, error) {
	stem := filepath.Join(e.dir, BaseName(title)+summarySuffix)
	return e.write(ctx, stem, []byte(summary), func(path string) error {
		return summaryToDocx(title+" (summary)", summary, path)
	})
}

func (e *implExporter) write(ctx context.Context, stem string, text []byte, docx func(path string) error) ([]string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	txtPath := stem + ".txt"
	if err := os.WriteFile(txtPath, text, 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", txtPath, err)
	}
	paths := []string{txtPath}
	e.logger.Info(ctx, "Wrote %s", txtPath)

	if !e.docx {
		return paths, nil
	}

	docxPath := stem + ".docx"
	if err := docx(docxPath); err != nil {
		return paths, fmt.Errorf("write %s: %w", docxPath, err)
	}
	e.logger.Info(ctx, "Wrote %s", docxPath)
	return append(paths, docxPath), nil
}
