package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
)

// AnthropicAdapter implements the Adapter interface for Claude models.
type AnthropicAdapter struct {
	client anthropic.Client
}

// AnthropicOption configures an AnthropicAdapter.
type AnthropicOption func(*[]option.RequestOption)

// WithAnthropicBaseURL points the client at another endpoint.
func WithAnthropicBaseURL(baseURL string) AnthropicOption {
	return func(opts *[]option.RequestOption) {
		if baseURL != "" {
			*opts = append(*opts, option.WithBaseURL(baseURL))
		}
	}
}

// WithAnthropicHTTPClient replaces the HTTP client.
func WithAnthropicHTTPClient(c *http.Client) AnthropicOption {
	return func(opts *[]option.RequestOption) {
		if c != nil {
			*opts = append(*opts, option.WithHTTPClient(c))
		}
	}
}

// NewAnthropicAdapter creates a new Anthropic adapter.
func NewAnthropicAdapter(apiKey string, opts ...AnthropicOption) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	for _, opt := range opts {
		opt(&reqOpts)
	}
	return &AnthropicAdapter{client: anthropic.NewClient(reqOpts...)}, nil
}

// Name returns the adapter identifier.
func (a *AnthropicAdapter) Name() string {
	return string(ProviderAnthropic)
}

// Models returns the list of supported Claude models.
func (a *AnthropicAdapter) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// Generate sends a prompt to Claude and returns the generated text.
func (a *AnthropicAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.Models()[0]
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 8192,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, upstreamError(a.Name(), apiErr.StatusCode, anthropicReason(apiErr.RawJSON()), err)
		}
		return nil, transportError(a.Name(), err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &Response{
		Text:     content,
		Provider: a.Name(),
		Model:    model,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// anthropicReason pulls error.message out of an error body. Empty when the
// body carries none, so the caller falls back to the status text.
func anthropicReason(raw string) string {
	if raw == "" || !gjson.Valid(raw) {
		return ""
	}
	if msg := gjson.Get(raw, "error.message"); msg.Exists() {
		return msg.String()
	}
	return gjson.Get(raw, "message").String()
}
