package adapter

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

// Provider identifies an LLM backend. The set is closed: anything outside
// Providers() is an unsupported operation.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderQwen      Provider = "qwen"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderMock      Provider = "mock"
)

var knownProviders = map[Provider]struct{}{
	ProviderGemini:    {},
	ProviderDeepSeek:  {},
	ProviderQwen:      {},
	ProviderOpenAI:    {},
	ProviderAnthropic: {},
}

// Providers lists the supported backends in a stable order.
func Providers() []Provider {
	out := make([]Provider, 0, len(knownProviders))
	for p := range knownProviders {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseProvider accepts provider names case-insensitively, including the
// upper-case forms used by the browser client and "google"/"claude" aliases.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	switch p {
	case "google":
		p = ProviderGemini
	case "claude":
		p = ProviderAnthropic
	case "dashscope":
		p = ProviderQwen
	}
	if _, ok := knownProviders[p]; ok || p == ProviderMock {
		return p, nil
	}
	return "", apperr.New(apperr.KindUnsupported, "unsupported model provider %q", name)
}

// Valid reports whether p is in the closed set.
func (p Provider) Valid() bool {
	_, ok := knownProviders[p]
	return ok || p == ProviderMock
}

// UnmarshalText lets manifests and request bodies use any spelling
// ParseProvider accepts.
func (p *Provider) UnmarshalText(text []byte) error {
	parsed, err := ParseProvider(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Factory builds a provider adapter bound to one API key.
type Factory interface {
	New(provider Provider, apiKey string) (Adapter, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(provider Provider, apiKey string) (Adapter, error)

// New implements Factory.
func (f FactoryFunc) New(provider Provider, apiKey string) (Adapter, error) {
	return f(provider, apiKey)
}

// FactoryConfig holds per-provider settings for the default factory.
type FactoryConfig struct {
	BaseURLs        map[Provider]string
	GeminiWebSearch bool
	HTTPClient      *http.Client
}

// NewFactory returns the factory that builds the real SDK-backed adapters.
func NewFactory(cfg FactoryConfig) Factory {
	return FactoryFunc(func(provider Provider, apiKey string) (Adapter, error) {
		baseURL := cfg.BaseURLs[provider]
		switch provider {
		case ProviderGemini:
			return NewGoogleAdapter(apiKey,
				WithGoogleSearch(cfg.GeminiWebSearch),
				WithGoogleBaseURL(baseURL),
				WithGoogleHTTPClient(cfg.HTTPClient),
			)
		case ProviderDeepSeek:
			return NewDeepSeekAdapter(apiKey,
				WithDeepSeekBaseURL(baseURL),
				WithDeepSeekHTTPClient(cfg.HTTPClient),
			)
		case ProviderQwen:
			return NewQwenAdapter(apiKey,
				WithOpenAIBaseURL(baseURL),
				WithOpenAIHTTPClient(cfg.HTTPClient),
			)
		case ProviderOpenAI:
			return NewOpenAIAdapter(apiKey,
				WithOpenAIBaseURL(baseURL),
				WithOpenAIHTTPClient(cfg.HTTPClient),
			)
		case ProviderAnthropic:
			return NewAnthropicAdapter(apiKey,
				WithAnthropicBaseURL(baseURL),
				WithAnthropicHTTPClient(cfg.HTTPClient),
			)
		case ProviderMock:
			return NewMockAdapter(), nil
		default:
			return nil, apperr.New(apperr.KindUnsupported, "unsupported model provider %q", provider)
		}
	})
}

// String implements fmt.Stringer.
func (p Provider) String() string {
	return string(p)
}

// Label returns the display name used by the browser client.
func (p Provider) Label() string {
	switch p {
	case ProviderGemini:
		return "Gemini"
	case ProviderDeepSeek:
		return "DeepSeek"
	case ProviderQwen:
		return "Qwen"
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderAnthropic:
		return "Claude"
	case ProviderMock:
		return "Mock"
	default:
		return fmt.Sprintf("Provider(%s)", string(p))
	}
}
