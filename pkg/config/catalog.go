package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

// ModelOption is one selectable model.
type ModelOption struct {
	Provider adapter.Provider `yaml:"provider" json:"provider"`
	Name     string           `yaml:"name" json:"name"`
	Label    string           `yaml:"label" json:"label"`
}

// ModelCatalog lists the models a stage may be configured with and the
// aliases that resolve to them.
type ModelCatalog struct {
	Models  []ModelOption     `yaml:"models"`
	Aliases map[string]string `yaml:"aliases"`
}

// LoadModelCatalog reads a catalog from a YAML file.
func LoadModelCatalog(path string) (*ModelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var catalog ModelCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if catalog.Aliases == nil {
		catalog.Aliases = make(map[string]string)
	}
	for _, m := range catalog.Models {
		if m.Name == "" {
			return nil, fmt.Errorf("%s: model entry without a name", path)
		}
	}
	return &catalog, nil
}

// LoadModelCatalogWithFallback loads path when set, the built-in catalog
// otherwise.
func LoadModelCatalogWithFallback(path string) (*ModelCatalog, error) {
	if path == "" {
		return DefaultModelCatalog(), nil
	}
	return LoadModelCatalog(path)
}

// Canonical returns the canonical model name for an alias.
// If the input is not an alias, it returns the input unchanged.
func (c *ModelCatalog) Canonical(modelOrAlias string) string {
	if c == nil || c.Aliases == nil {
		return modelOrAlias
	}
	if canonical, ok := c.Aliases[strings.ToLower(modelOrAlias)]; ok {
		return canonical
	}
	return modelOrAlias
}

// IsAlias returns true if the given string is a known alias.
func (c *ModelCatalog) IsAlias(name string) bool {
	if c == nil || c.Aliases == nil {
		return false
	}
	_, ok := c.Aliases[strings.ToLower(name)]
	return ok
}

// Resolve canonicalizes model and checks that provider offers it. The mock
// provider accepts any model.
func (c *ModelCatalog) Resolve(provider adapter.Provider, model string) (string, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return "", apperr.New(apperr.KindValidation, "model name is required")
	}
	if provider == adapter.ProviderMock {
		return model, nil
	}
	canonical := c.Canonical(model)
	for _, m := range c.ForProvider(provider) {
		if m.Name == canonical {
			return canonical, nil
		}
	}
	return "", apperr.New(apperr.KindValidation, "model %q is not offered for provider %s", model, provider)
}

// ForProvider returns the models offered by provider.
func (c *ModelCatalog) ForProvider(provider adapter.Provider) []ModelOption {
	if c == nil {
		return nil
	}
	var out []ModelOption
	for _, m := range c.Models {
		if m.Provider == provider {
			out = append(out, m)
		}
	}
	return out
}

// ProviderFor returns the provider offering a canonical model.
func (c *ModelCatalog) ProviderFor(model string) (adapter.Provider, bool) {
	canonical := c.Canonical(model)
	for _, m := range c.Models {
		if m.Name == canonical {
			return m.Provider, true
		}
	}
	return "", false
}

// ListProviders returns the providers with at least one model, sorted.
func (c *ModelCatalog) ListProviders() []adapter.Provider {
	seen := make(map[adapter.Provider]bool)
	var out []adapter.Provider
	for _, m := range c.Models {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			out = append(out, m.Provider)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultModelCatalog returns the built-in model options.
func DefaultModelCatalog() *ModelCatalog {
	return &ModelCatalog{
		Models: []ModelOption{
			{Provider: adapter.ProviderGemini, Name: "gemini-2.5-flash", Label: "Gemini 2.5 Flash"},
			{Provider: adapter.ProviderGemini, Name: "gemini-3-pro-preview", Label: "Gemini 3.0 Pro"},
			{Provider: adapter.ProviderDeepSeek, Name: "deepseek-chat", Label: "DeepSeek"},
			{Provider: adapter.ProviderDeepSeek, Name: "deepseek-reasoner", Label: "DeepSeek Reasoner"},
			{Provider: adapter.ProviderQwen, Name: "qwen-plus", Label: "Qwen Plus"},
			{Provider: adapter.ProviderQwen, Name: "qwen-max", Label: "Qwen Max"},
			{Provider: adapter.ProviderAnthropic, Name: "claude-sonnet-4-20250514", Label: "Claude Sonnet 4"},
			{Provider: adapter.ProviderOpenAI, Name: "gpt-4o", Label: "GPT-4o"},
		},
		Aliases: map[string]string{
			"gemini-flash": "gemini-2.5-flash",
			"gemini-pro":   "gemini-3-pro-preview",
			"deepseek":     "deepseek-chat",
			"reason":       "deepseek-reasoner",
			"qwen":         "qwen-plus",
			"claude":       "claude-sonnet-4-20250514",
			"gpt":          "gpt-4o",
		},
	}
}
