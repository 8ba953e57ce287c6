package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const DefaultImageModel = "gemini-2.5-flash-image"

var ErrNoImage = errors.New("response did not include an image")

// ImageGenerator produces a PNG or JPEG for a prompt. seed identifies the
// subject so fallbacks can stay deterministic.
type ImageGenerator interface {
	Generate(ctx context.Context, seed, prompt string) ([]byte, error)
}

type GeminiImageClient struct {
	client *genai.Client
	model  string
}

func NewGeminiImageClient(ctx context.Context, apiKey, model string) (*GeminiImageClient, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	if model == "" {
		model = DefaultImageModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiImageClient{client: client, model: model}, nil
}

func (c *GeminiImageClient) Generate(ctx context.Context, _ string, prompt string) ([]byte, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	for _, cand := range res.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}
	return nil, ErrNoImage
}

// PlaceholderClient serves deterministic stock photos keyed by seed.
type PlaceholderClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPlaceholderClient(baseURL string, httpClient *http.Client) *PlaceholderClient {
	if baseURL == "" {
		baseURL = "https://picsum.photos"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &PlaceholderClient{baseURL: baseURL, httpClient: httpClient}
}

func (c *PlaceholderClient) Generate(ctx context.Context, seed, _ string) ([]byte, error) {
	u := fmt.Sprintf("%s/seed/%s/800/600", c.baseURL, url.PathEscape(seed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("placeholder status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Fallback tries primary and falls back to secondary on any error.
type Fallback struct {
	Primary   ImageGenerator
	Secondary ImageGenerator
	Log       *zap.Logger
}

func (f Fallback) Generate(ctx context.Context, seed, prompt string) ([]byte, error) {
	if f.Primary != nil {
		img, err := f.Primary.Generate(ctx, seed, prompt)
		if err == nil {
			return img, nil
		}
		if f.Log != nil {
			f.Log.Warn("image generation failed, using placeholder", zap.String("seed", seed), zap.Error(err))
		}
	}
	return f.Secondary.Generate(ctx, seed, prompt)
}
