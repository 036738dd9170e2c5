package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GoogleAdapter implements the Adapter interface for Gemini models.
type GoogleAdapter struct {
	client    *genai.Client
	webSearch bool
}

// GoogleOption configures a GoogleAdapter.
type GoogleOption func(*googleSettings)

type googleSettings struct {
	webSearch  bool
	baseURL    string
	httpClient *http.Client
}

// WithGoogleSearch attaches the Google Search grounding tool to every request.
func WithGoogleSearch(enabled bool) GoogleOption {
	return func(s *googleSettings) {
		s.webSearch = enabled
	}
}

// WithGoogleBaseURL points the client at another endpoint.
func WithGoogleBaseURL(baseURL string) GoogleOption {
	return func(s *googleSettings) {
		s.baseURL = baseURL
	}
}

// WithGoogleHTTPClient replaces the HTTP client.
func WithGoogleHTTPClient(c *http.Client) GoogleOption {
	return func(s *googleSettings) {
		s.httpClient = c
	}
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string, opts ...GoogleOption) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	settings := &googleSettings{}
	for _, opt := range opts {
		opt(settings)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: settings.baseURL}
	}
	if settings.httpClient != nil {
		clientCfg.HTTPClient = settings.httpClient
	}

	client, err := genai.NewClient(context.Background(), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &GoogleAdapter{
		client:    client,
		webSearch: settings.webSearch,
	}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return string(ProviderGemini)
}

// Models returns the list of supported Gemini models.
func (a *GoogleAdapter) Models() []string {
	return []string{
		"gemini-2.5-flash",
		"gemini-3-pro-preview",
	}
}

// Generate sends a prompt to Gemini and returns the generated text.
func (a *GoogleAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if a.webSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, upstreamError(a.Name(), apiErr.Code, apiErr.Message, err)
		}
		return nil, transportError(a.Name(), err)
	}

	out := &Response{Provider: a.Name(), Model: model}
	if resp == nil || len(resp.Candidates) == 0 {
		return out, nil
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				content += part.Text
			}
		}
	}
	out.Text = content

	if resp.UsageMetadata != nil {
		out.Usage = &Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}
