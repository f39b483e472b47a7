// Package gemini builds the generative AI calls shared by transcription and
// summarization: one client construction, parameterized by Purpose.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// SafetyProfile is the per-category blocking configuration sent with a call.
type SafetyProfile []*genai.SafetySetting

// harmCategories are the categories the provider accepts thresholds for.
var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// Permissive turns off categorical blocking so lawful user audio is never
// silently refused.
func Permissive() SafetyProfile {
	profile := make(SafetyProfile, 0, len(harmCategories))
	for _, c := range harmCategories {
		profile = append(profile, &genai.SafetySetting{
			Category:  c,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	return profile
}

// Purpose is the configuration record for one kind of call.
type Purpose struct {
	Name   string
	Model  string
	Safety SafetyProfile
}

// ForTranscription is the purpose used for audio transcription.
func ForTranscription(model string) Purpose {
	return Purpose{Name: "transcription", Model: model, Safety: Permissive()}
}

// ForSummary is the purpose used for transcript summarization.
func ForSummary(model string) Purpose {
	return Purpose{Name: "summary", Model: model, Safety: Permissive()}
}

// Options point the client somewhere other than the public endpoint.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client sends one generation request and returns the text of the first
// candidate.
type Client interface {
	Generate(ctx context.Context, apiKey string, parts ...*genai.Part) (string, error)
}

type implClient struct {
	purpose Purpose
	opts    Options
}

// New creates a Client for purpose.
func New(purpose Purpose, opts Options) Client {
	return &implClient{purpose: purpose, opts: opts}
}

func (c *implClient) Generate(ctx context.Context, apiKey string, parts ...*genai.Part) (string, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.HTTPClient,
	}
	if c.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	contents := []*genai.Content{{Role: "user", Parts: parts}}
	result, err := client.Models.GenerateContent(ctx, c.purpose.Model, contents, &genai.GenerateContentConfig{
		SafetySettings: c.purpose.Safety,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return responseText(result)
}

func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil {
		return "", nil
	}
	if len(result.Candidates) == 0 {
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason)
		}
		return "", nil
	}

	content := result.Candidates[0].Content
	if content == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}

// TextPart wraps an instruction string.
func TextPart(text string) *genai.Part {
	return &genai.Part{Text: text}
}

// AudioPart wraps inline audio bytes; the SDK base64-encodes them on the wire.
func AudioPart(mimeType string, data []byte) *genai.Part {
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}
