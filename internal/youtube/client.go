package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/media"
)

const defaultAudioMIME = "audio/mpeg"

func (c *implClient) Extract(ctx context.Context, videoURL string) (ExtractResponse, error) {
	const op = "extract audio"

	body, err := json.Marshal(ExtractRequest{URL: videoURL})
	if err != nil {
		return ExtractResponse{}, failure.Wrap(failure.ExtractionFailed, op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/extract-audio", bytes.NewReader(body))
	if err != nil {
		return ExtractResponse{}, failure.Wrap(failure.ExtractionFailed, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info(ctx, "Requesting audio extraction for %s", videoURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return ExtractResponse{}, failure.Wrap(failure.NetworkError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return ExtractResponse{}, backendError(op, resp)
	}

	var out ExtractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ExtractResponse{}, failure.Wrap(failure.ExtractionFailed, op, fmt.Errorf("decode response: %w", err))
	}
	if out.RequestID == "" || out.AudioFilename == "" {
		return ExtractResponse{}, failure.New(failure.ExtractionFailed, op, "backend response is missing request_id or audio_filename")
	}

	c.logger.Info(ctx, "Extracted %q as %s", out.Metadata.Title, out.AudioFilename)
	return out, nil
}

func (c *implClient) Download(ctx context.Context, requestID, filename string) (media.AudioPayload, error) {
	const op = "download audio"

	endpoint := fmt.Sprintf("%s/api/download-audio/%s/%s", c.baseURL, url.PathEscape(requestID), url.PathEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.ExtractionFailed, op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.NetworkError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return media.AudioPayload{}, backendError(op, resp)
	}

	if c.maxBytes > 0 && resp.ContentLength > c.maxBytes {
		return media.AudioPayload{}, tooLarge(op, resp.ContentLength, c.maxBytes)
	}

	var r io.Reader = resp.Body
	if c.maxBytes > 0 {
		r = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return media.AudioPayload{}, failure.Wrap(failure.NetworkError, op, err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return media.AudioPayload{}, tooLarge(op, int64(len(data)), c.maxBytes)
	}
	if len(data) == 0 {
		return media.AudioPayload{}, failure.New(failure.ExtractionFailed, op, "backend returned an empty audio file")
	}

	mimeType := defaultAudioMIME
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(mt, "audio/") {
		mimeType = mt
	}

	c.logger.Info(ctx, "Downloaded %s of extracted audio", media.HumanSize(int64(len(data))))
	return media.AudioPayload{Data: data, MIMEType: mimeType, SourceSize: int64(len(data))}, nil
}

func (c *implClient) Cleanup(ctx context.Context, requestID string) error {
	const op = "cleanup"

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/cleanup/"+url.PathEscape(requestID), nil)
	if err != nil {
		return failure.Wrap(failure.ExtractionFailed, op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return failure.Wrap(failure.NetworkError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return backendError(op, resp)
	}
	return nil
}

func (c *implClient) Health(ctx context.Context) error {
	const op = "health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return failure.Wrap(failure.ExtractionFailed, op, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return failure.Wrap(failure.NetworkError, op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return failure.New(failure.ExtractionFailed, op, fmt.Sprintf("backend answered %s", resp.Status))
	}
	return nil
}

// backendError reads the {error} body of a failed reply.
func backendError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e ErrorResponse
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &e) == nil && e.Error != "" {
		msg = e.Error
	}
	if msg == "" {
		msg = resp.Status
	}
	return failure.New(failure.ExtractionFailed, op, fmt.Sprintf("backend returned %d: %s", resp.StatusCode, msg))
}

func tooLarge(op string, size, limit int64) error {
	return failure.New(failure.PayloadTooLarge, op,
		fmt.Sprintf("extracted audio is %s, above the %s limit", media.HumanSize(size), media.HumanSize(limit)))
}
