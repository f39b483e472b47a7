package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lectern/transcribe-flow/internal/failure"
)

func TestKind(t *testing.T) {
	tests := []struct {
		mime string
		want Kind
	}{
		{"video/mp4", KindVideo},
		{"audio/mpeg", KindAudio},
		{"image/png", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := (Input{MIMEType: tt.mime}).Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLimitsCheck(t *testing.T) {
	limits := Limits{MaxVideoBytes: 50 * 1024 * 1024, MaxAudioBytes: 25 * 1024 * 1024}

	tests := []struct {
		name    string
		input   Input
		wantErr bool
	}{
		{"small video", Input{Name: "a.mp4", MIMEType: "video/mp4", Size: 3 * 1024 * 1024}, false},
		{"video at ceiling", Input{Name: "a.mp4", MIMEType: "video/mp4", Size: 50 * 1024 * 1024}, false},
		{"video above ceiling", Input{Name: "a.mp4", MIMEType: "video/mp4", Size: 50*1024*1024 + 1}, true},
		{"audio above audio ceiling", Input{Name: "a.mp3", MIMEType: "audio/mpeg", Size: 30 * 1024 * 1024}, true},
		{"unsupported type", Input{Name: "a.png", MIMEType: "image/png", Size: 10}, true},
		{"empty file", Input{Name: "a.mp3", MIMEType: "audio/mpeg", Size: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := limits.Check(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !failure.Is(err, failure.InputRejected) {
				t.Errorf("Check() category = %v, want %v", failure.CategoryOf(err), failure.InputRejected)
			}
		})
	}
}

func TestFromFileExtensionFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}

	in, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error = %v", err)
	}
	if in.MIMEType != "video/mp4" {
		t.Errorf("MIMEType = %q, want video/mp4", in.MIMEType)
	}
	if in.Name != "clip.mp4" {
		t.Errorf("Name = %q, want clip.mp4", in.Name)
	}
	if in.Size != int64(len("not really a video")) {
		t.Errorf("Size = %d", in.Size)
	}
}

func TestFromFileMissing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.mp4")); err == nil {
		t.Error("FromFile() should fail for a missing file")
	}
}

func TestFromFileDirectory(t *testing.T) {
	if _, err := FromFile(t.TempDir()); err == nil {
		t.Error("FromFile() should fail for a directory")
	}
}

func TestIsMediaFile(t *testing.T) {
	for path, want := range map[string]bool{
		"a.MP4":    true,
		"b.webm":   true,
		"c.mp3":    true,
		"d.txt":    false,
		"noext":    false,
		"e.tar.gz": false,
	} {
		if got := IsMediaFile(path); got != want {
			t.Errorf("IsMediaFile(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestReadAllReportsProgress(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, ReadChunk*2+17)
	in := FromBytes("big.wav", "audio/wav", data)

	var calls []int64
	got, err := ReadAll(context.Background(), in, func(read, total int64) {
		if total != int64(len(data)) {
			t.Errorf("total = %d, want %d", total, len(data))
		}
		calls = append(calls, read)
	})
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("ReadAll() returned different bytes")
	}
	if len(calls) < 3 {
		t.Fatalf("progress calls = %d, want at least 3", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if calls[i] <= calls[i-1] {
			t.Fatalf("progress not increasing: %v", calls)
		}
	}
	if calls[len(calls)-1] != int64(len(data)) {
		t.Errorf("final progress = %d, want %d", calls[len(calls)-1], len(data))
	}
}

func TestReadAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ReadAll(ctx, FromBytes("a.wav", "audio/wav", []byte("x")), nil); err == nil {
		t.Error("ReadAll() should fail on canceled context")
	}
}

func TestCompressionRatio(t *testing.T) {
	p := AudioPayload{Data: make([]byte, 100), SourceSize: 1000}
	if got := p.CompressionRatio(); got != 10 {
		t.Errorf("CompressionRatio() = %v, want 10", got)
	}
	if got := (AudioPayload{}).CompressionRatio(); got != 0 {
		t.Errorf("CompressionRatio() of empty = %v, want 0", got)
	}
}
