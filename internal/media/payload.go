package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// ReadChunk is the read size used when buffering inputs.
const ReadChunk = 1 << 20

// AudioPayload is the compact audio handed to the transcription client.
type AudioPayload struct {
	Data       []byte
	MIMEType   string
	SourceSize int64
}

// Size is the payload length in bytes.
func (p AudioPayload) Size() int64 {
	return int64(len(p.Data))
}

// CompressionRatio is source size over payload size, 0 when unknown.
func (p AudioPayload) CompressionRatio() float64 {
	if len(p.Data) == 0 || p.SourceSize <= 0 {
		return 0
	}
	return float64(p.SourceSize) / float64(len(p.Data))
}

// ProgressFunc receives cumulative bytes read out of total.
type ProgressFunc func(read, total int64)

// ReadAll buffers the input in ReadChunk pieces, reporting progress after
// each piece and checking ctx between them.
func ReadAll(ctx context.Context, in Input, progress ProgressFunc) ([]byte, error) {
	rc, err := in.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	if in.Size > 0 {
		buf.Grow(int(in.Size))
	}

	chunk := make([]byte, ReadChunk)
	var read int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := rc.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += int64(n)
			if progress != nil {
				progress(read, in.Size)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", in.Name, err)
		}
	}

	return buf.Bytes(), nil
}
