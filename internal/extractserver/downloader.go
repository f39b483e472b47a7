package extractserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lectern/transcribe-flow/internal/youtube"
	"github.com/lectern/transcribe-flow/pkg/executor"
)

const maxDescription = 500

// Downloader fetches the audio track of videoURL into dir as an mp3 and
// returns the video metadata and the produced file name.
type Downloader interface {
	Download(ctx context.Context, videoURL, dir string) (youtube.Metadata, string, error)
}

type ytDlp struct {
	path     string
	minBytes int64
	exec     executor.Executor
}

// NewYtDlp creates a Downloader driving the yt-dlp binary at path. Files
// smaller than minBytes are treated as failed downloads.
func NewYtDlp(exec executor.Executor, path string, minBytes int64) Downloader {
	return &ytDlp{path: path, minBytes: minBytes, exec: exec}
}

type ytDlpInfo struct {
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	Description string  `json:"description"`
	UploadDate  string  `json:"upload_date"`
	ViewCount   int64   `json:"view_count"`
}

func ytDlpArgs(videoURL string) []string {
	return []string{
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3", "--audio-quality", "192K",
		"-o", "%(title)s.%(ext)s",
		"--restrict-filenames",
		"--no-playlist",
		"--no-simulate", "--dump-single-json",
		"--quiet", "--no-warnings",
		videoURL,
	}
}

func (d *ytDlp) Download(ctx context.Context, videoURL, dir string) (youtube.Metadata, string, error) {
	out, err := d.exec.ExecuteInDir(ctx, dir, d.path, ytDlpArgs(videoURL)...)
	if err != nil {
		return youtube.Metadata{}, "", fmt.Errorf("yt-dlp: %w", err)
	}

	var info ytDlpInfo
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &info); err != nil {
		return youtube.Metadata{}, "", fmt.Errorf("parse yt-dlp output: %w", err)
	}

	name, err := findAudio(dir)
	if err != nil {
		return youtube.Metadata{}, "", err
	}
	if err := verifyAudio(filepath.Join(dir, name), d.minBytes); err != nil {
		return youtube.Metadata{}, "", err
	}

	return toMetadata(info), name, nil
}

func toMetadata(info ytDlpInfo) youtube.Metadata {
	desc := info.Description
	if r := []rune(desc); len(r) > maxDescription {
		desc = string(r[:maxDescription]) + "..."
	}
	return youtube.Metadata{
		Title:       info.Title,
		Duration:    info.Duration,
		Uploader:    info.Uploader,
		Description: desc,
		UploadDate:  info.UploadDate,
		ViewCount:   info.ViewCount,
	}
}

func findAudio(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read download dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			return e.Name(), nil
		}
	}
	return "", fmt.Errorf("no mp3 file was produced")
}

// verifyAudio rejects truncated downloads and HTML error pages saved in
// place of the media.
func verifyAudio(path string, minBytes int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() < minBytes {
		return fmt.Errorf("downloaded audio is only %d bytes; the download probably failed", info.Size())
	}

	m, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect audio type: %w", err)
	}
	if m.Is("text/html") || looksLikeHTML(path) {
		return fmt.Errorf("downloaded file is a web page, not audio")
	}
	return nil
}

func looksLikeHTML(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	lower := bytes.ToLower(bytes.TrimSpace(head[:n]))
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}
