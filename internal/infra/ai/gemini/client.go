package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/bryanwahyu/glowreader/internal/domain/analysis"
)

const defaultModel = "gemini-1.5-flash"

// blockMediumAndAbove is applied to every request.
var blockMediumAndAbove = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// Client generates analyses with Google's Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

// Options tweaks the underlying genai client. BaseURL is used by tests and proxies.
type Options struct {
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Gemini client for the given API key.
func NewClient(ctx context.Context, apiKey string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Name() string { return "gemini" }

// Generate sends the prompt and inline image, asking for application/json output.
func (c *Client) Generate(ctx context.Context, prompt string, photo *analysis.Photo) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if photo != nil && len(photo.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(photo.Data, photo.MimeType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SafetySettings:   blockMediumAndAbove,
	})
	if err != nil {
		if isQuota(err) {
			return "", fmt.Errorf("%w: %v", analysis.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("gemini generate content failed: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked by gemini: %s", resp.PromptFeedback.BlockReason)
	}
	return resp.Text(), nil
}

func isQuota(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	msg := err.Error()
	return strings.Contains(msg, "RESOURCE_EXHAUSTED") || strings.Contains(msg, "Error 429")
}
