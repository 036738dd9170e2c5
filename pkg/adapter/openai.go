package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const qwenBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/"

// OpenAIAdapter implements the Adapter interface for OpenAI-compatible chat
// completion endpoints. It backs both OpenAI itself and Qwen (DashScope
// compatible mode).
type OpenAIAdapter struct {
	client openai.Client
	name   string
	models []string
}

// OpenAIOption configures an OpenAIAdapter.
type OpenAIOption func(*openAISettings)

type openAISettings struct {
	baseURL    string
	httpClient *http.Client
}

// WithOpenAIBaseURL points the adapter at another compatible endpoint.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(s *openAISettings) {
		if baseURL != "" {
			s.baseURL = baseURL
		}
	}
}

// WithOpenAIHTTPClient replaces the HTTP client.
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(s *openAISettings) {
		s.httpClient = c
	}
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return newOpenAICompatible(string(ProviderOpenAI), apiKey, "", []string{"gpt-4o", "gpt-4o-mini"}, opts...), nil
}

// NewQwenAdapter creates an adapter for Qwen models through DashScope's
// OpenAI-compatible mode.
func NewQwenAdapter(apiKey string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("qwen API key is required")
	}
	return newOpenAICompatible(string(ProviderQwen), apiKey, qwenBaseURL, []string{"qwen-plus", "qwen-max", "qwen-turbo"}, opts...), nil
}

func newOpenAICompatible(name, apiKey, baseURL string, models []string, opts ...OpenAIOption) *OpenAIAdapter {
	settings := &openAISettings{baseURL: baseURL}
	for _, opt := range opts {
		opt(settings)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if settings.baseURL != "" {
		base := settings.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if settings.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(settings.httpClient))
	}

	return &OpenAIAdapter{
		client: openai.NewClient(reqOpts...),
		name:   name,
		models: models,
	}
}

// Name returns the adapter identifier.
func (a *OpenAIAdapter) Name() string {
	return a.name
}

// Models returns the list of supported models.
func (a *OpenAIAdapter) Models() []string {
	return append([]string(nil), a.models...)
}

// Generate sends a prompt to the chat completions endpoint.
func (a *OpenAIAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" && len(a.models) > 0 {
		model = a.models[0]
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, upstreamError(a.Name(), apiErr.StatusCode, apiErr.Message, err)
		}
		return nil, transportError(a.Name(), err)
	}

	out := &Response{
		Provider: a.Name(),
		Model:    model,
		Usage: &Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	if len(resp.Choices) > 0 {
		out.Text = resp.Choices[0].Message.Content
	}
	return out, nil
}
