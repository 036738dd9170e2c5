package pipeline

import (
	"sort"
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
)

// MarketCredential is the Credentials key for the market-data service.
const MarketCredential = "juhe"

// Credentials maps a provider name (or MarketCredential) to an API key.
type Credentials map[string]string

// Get returns the trimmed key for name, or "".
func (c Credentials) Get(name string) string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c[strings.ToLower(name)])
}

// For returns the key for an LLM provider.
func (c Credentials) For(p adapter.Provider) string {
	return c.Get(string(p))
}

// Clone returns a copy with normalized names and blank keys dropped.
func (c Credentials) Clone() Credentials {
	out := make(Credentials, len(c))
	for k, v := range c {
		if v = strings.TrimSpace(v); v != "" {
			out[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}
	return out
}

// Merge returns c overlaid with the non-blank keys of other.
func (c Credentials) Merge(other Credentials) Credentials {
	out := c.Clone()
	for k, v := range other.Clone() {
		out[k] = v
	}
	return out
}

// Names lists the names that have a key, for display without the secrets.
func (c Credentials) Names() []string {
	var out []string
	for k, v := range c {
		if strings.TrimSpace(v) != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
