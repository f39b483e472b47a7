package transcoder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/media"
)

const (
	InputName  = "input.bin"
	OutputName = "output.mp3"

	// BitrateBits is the target audio bitrate in bits per second.
	BitrateBits = 48000
	SampleRate  = 16000
	OutputMIME  = "audio/mpeg"
)

// Args is the fixed codec profile: no video, 48 kbit/s mono at 16 kHz, no
// metadata, one decoding thread.
func Args() []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-threads", "1",
		"-i", InputName,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", strconv.Itoa(BitrateBits/1000) + "k",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", "1",
		"-map_metadata", "-1",
		"-y",
		OutputName,
	}
}

// ProjectedSize estimates the payload size for a source of the given length.
func ProjectedSize(info codec.StreamInfo) int64 {
	return int64(info.Duration.Seconds() * BitrateBits / 8)
}

// Transcode buffers the input, runs the codec profile against the runtime's
// scratch filesystem and returns the encoded audio.
func (t *implTranscoder) Transcode(ctx context.Context, rt codec.Runtime, in media.Input, progress media.ProgressFunc) (media.AudioPayload, error) {
	t.logger.Info(ctx, "Transcoding %s (%s, %s)", in.Name, in.MIMEType, media.HumanSize(in.Size))

	data, err := media.ReadAll(ctx, in, progress)
	if err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.TranscodeFailure, "read input", err)
	}

	if err := rt.WriteFile(InputName, data); err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.TranscodeFailure, "stage input", err)
	}
	data = nil
	defer t.discard(ctx, rt, InputName)
	defer t.discard(ctx, rt, OutputName)

	if info, err := rt.Probe(ctx, InputName); err != nil {
		t.logger.Warn(ctx, "Could not probe %s, skipping size projection: %v", in.Name, err)
	} else {
		if !info.HasAudio {
			return media.AudioPayload{}, failure.New(failure.TranscodeFailure, "probe input", in.Name+" has no audio track")
		}
		if projected := ProjectedSize(info); t.maxPayload > 0 && projected > t.maxPayload {
			return media.AudioPayload{}, failure.New(failure.PayloadTooLarge, "project payload",
				fmt.Sprintf("%s of audio would encode to about %s, above the %s limit",
					info.Duration.Round(time.Second), media.HumanSize(projected), media.HumanSize(t.maxPayload)))
		}
	}

	if err := rt.Exec(ctx, Args()...); err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.TranscodeFailure, "run codec", err)
	}

	out, err := rt.ReadFile(OutputName)
	if err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.TranscodeFailure, "read output", err)
	}
	t.discard(ctx, rt, InputName)

	if info, err := rt.Probe(ctx, OutputName); err != nil {
		t.logger.Warn(ctx, "Could not verify transcoded audio: %v", err)
	} else if info.Channels != 1 {
		return media.AudioPayload{}, failure.New(failure.TranscodeFailure, "verify output",
			fmt.Sprintf("codec produced %d channels, want mono", info.Channels))
	}

	payload := media.AudioPayload{Data: out, MIMEType: OutputMIME, SourceSize: in.Size}
	if t.maxPayload > 0 && payload.Size() > t.maxPayload {
		return media.AudioPayload{}, failure.New(failure.PayloadTooLarge, "check payload",
			fmt.Sprintf("transcoded audio is %s, above the %s limit", media.HumanSize(payload.Size()), media.HumanSize(t.maxPayload)))
	}

	// A source already encoded below the target bitrate comes out larger;
	// it is still returned as long as it fits the payload limit.
	if payload.Size() > in.Size {
		t.logger.Warn(ctx, "Transcoded audio (%s) is larger than the source %s (%s)",
			media.HumanSize(payload.Size()), in.Name, media.HumanSize(in.Size))
	}

	t.logger.Info(ctx, "Transcoded %s -> %s (ratio %.1fx)",
		media.HumanSize(in.Size), media.HumanSize(payload.Size()), payload.CompressionRatio())
	return payload, nil
}

// discard deletes a scratch file; failures are only logged.
func (t *implTranscoder) discard(ctx context.Context, rt codec.Runtime, name string) {
	if err := rt.DeleteFile(name); err != nil {
		t.logger.Debug(ctx, "Scratch cleanup of %s skipped: %v", name, err)
	}
}
