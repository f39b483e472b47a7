// Package media describes user-supplied inputs and the compact audio payload
// produced from them, and enforces the intake ceilings.
package media

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lectern/transcribe-flow/internal/failure"
)

// Kind is the whitelisted MIME category of an input.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// extensionTypes is consulted when content sniffing is inconclusive.
var extensionTypes = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".flv":  "video/x-flv",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
}

// Input is one user-supplied blob awaiting processing.
type Input struct {
	Name     string
	MIMEType string
	Size     int64
	open     func() (io.ReadCloser, error)
}

// Kind returns the input's category, or "" when it matches neither prefix.
func (in Input) Kind() Kind {
	switch {
	case strings.HasPrefix(in.MIMEType, "video/"):
		return KindVideo
	case strings.HasPrefix(in.MIMEType, "audio/"):
		return KindAudio
	default:
		return ""
	}
}

// Open returns a fresh reader over the input's bytes.
func (in Input) Open() (io.ReadCloser, error) {
	if in.open == nil {
		return nil, fmt.Errorf("input %q has no content", in.Name)
	}
	return in.open()
}

// FromFile builds an Input backed by a file on disk. The MIME type is sniffed
// from content, falling back to the extension.
func FromFile(path string) (Input, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Input{}, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return Input{}, fmt.Errorf("input %s is a directory", path)
	}

	mimeType, err := detectFile(path)
	if err != nil {
		return Input{}, err
	}

	return Input{
		Name:     filepath.Base(path),
		MIMEType: mimeType,
		Size:     info.Size(),
		open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// FromBytes builds an in-memory Input. An empty mimeType is detected.
func FromBytes(name, mimeType string, data []byte) Input {
	if mimeType == "" {
		mimeType = detect(name, mimetype.Detect(data))
	}
	return Input{
		Name:     name,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		open:     func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func detectFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect input type: %w", err)
	}
	return detect(path, m), nil
}

func detect(name string, m *mimetype.MIME) string {
	if m != nil {
		t := m.String()
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		if strings.HasPrefix(t, "video/") || strings.HasPrefix(t, "audio/") {
			return t
		}
	}
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	if m != nil {
		return m.String()
	}
	return "application/octet-stream"
}

// IsMediaFile reports whether path has an extension the pipeline accepts.
func IsMediaFile(path string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Limits are the per-category intake ceilings.
type Limits struct {
	MaxVideoBytes int64
	MaxAudioBytes int64
}

// Check rejects inputs outside the whitelist or above their ceiling. It
// touches neither the network nor the codec.
func (l Limits) Check(in Input) error {
	var ceiling int64
	switch in.Kind() {
	case KindVideo:
		ceiling = l.MaxVideoBytes
	case KindAudio:
		ceiling = l.MaxAudioBytes
	default:
		return failure.New(failure.InputRejected, "intake",
			fmt.Sprintf("%s has unsupported type %q; choose a video or audio file", in.Name, in.MIMEType))
	}

	if in.Size <= 0 {
		return failure.New(failure.InputRejected, "intake", fmt.Sprintf("%s is empty", in.Name))
	}
	if ceiling > 0 && in.Size > ceiling {
		return failure.New(failure.InputRejected, "intake",
			fmt.Sprintf("%s is %s; %s files must be at most %s", in.Name, HumanSize(in.Size), in.Kind(), HumanSize(ceiling)))
	}
	return nil
}

// HumanSize renders a byte count in MB with one decimal.
func HumanSize(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
}
