package codec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lectern/transcribe-flow/pkg/executor"
)

// processRuntime drives ffmpeg/ffprobe binaries inside a private scratch dir.
type processRuntime struct {
	ffmpeg   string
	ffprobe  string
	scratch  string
	executor executor.Executor
}

// NewProcessRuntime creates a Runtime around the given binaries with a fresh
// scratch directory under root.
func NewProcessRuntime(exec executor.Executor, ffmpegPath, ffprobePath, root string) (Runtime, error) {
	if root != "" {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("create scratch root: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(root, "codec-scratch-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	return &processRuntime{
		ffmpeg:   ffmpegPath,
		ffprobe:  ffprobePath,
		scratch:  scratch,
		executor: exec,
	}, nil
}

func (r *processRuntime) path(name string) string {
	// never escape the scratch dir
	return filepath.Join(r.scratch, filepath.Base(name))
}

func (r *processRuntime) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(r.path(name), data, 0644); err != nil {
		return fmt.Errorf("write scratch %s: %w", name, err)
	}
	return nil
}

func (r *processRuntime) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(r.path(name))
	if err != nil {
		return nil, fmt.Errorf("read scratch %s: %w", name, err)
	}
	return data, nil
}

func (r *processRuntime) DeleteFile(name string) error {
	if err := os.Remove(r.path(name)); err != nil {
		return fmt.Errorf("delete scratch %s: %w", name, err)
	}
	return nil
}

// Exec runs ffmpeg with args in the scratch dir; file args are bare names.
func (r *processRuntime) Exec(ctx context.Context, args ...string) error {
	if _, err := r.executor.ExecuteInDir(ctx, r.scratch, r.ffmpeg, args...); err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

type probeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (r *processRuntime) Probe(ctx context.Context, name string) (StreamInfo, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration:stream=codec_type,channels,sample_rate",
		"-of", "json",
		filepath.Base(name),
	}
	out, err := r.executor.ExecuteInDir(ctx, r.scratch, r.ffprobe, args...)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbe(out)
}

func parseProbe(out string) (StreamInfo, error) {
	var po probeOutput
	if err := json.Unmarshal([]byte(out), &po); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info StreamInfo
	if po.Format.Duration != "" {
		secs, err := strconv.ParseFloat(po.Format.Duration, 64)
		if err != nil {
			return StreamInfo{}, fmt.Errorf("invalid duration %q: %w", po.Format.Duration, err)
		}
		info.Duration = time.Duration(secs * float64(time.Second))
	}

	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
		case "audio":
			if info.HasAudio {
				continue // first audio stream is the one ffmpeg maps
			}
			info.HasAudio = true
			info.Channels = s.Channels
			if s.SampleRate != "" {
				info.SampleRate, _ = strconv.Atoi(s.SampleRate)
			}
		}
	}
	return info, nil
}
