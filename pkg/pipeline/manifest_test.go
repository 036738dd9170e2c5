package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/prompt"
)

func TestDefaultPipeline(t *testing.T) {
	p := DefaultPipeline()
	require.NoError(t, p.Validate())

	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"P1_RESEARCH", "P2_STRATEGY", "P5_BUY", "P6_SELL"}, ids)

	p1, _ := p.Stage("P1_RESEARCH")
	assert.Equal(t, adapter.ProviderGemini, p1.Provider)
	assert.Equal(t, "gemini-2.5-flash", p1.Model)
	assert.InDelta(t, 0.3, p1.Temperature, 1e-9)
	assert.False(t, prompt.Uses(p1.Prompt, prompt.Context))

	p2, _ := p.Stage("P2_STRATEGY")
	assert.Equal(t, adapter.ProviderDeepSeek, p2.Provider)
	assert.InDelta(t, 0.4, p2.Temperature, 1e-9)
	assert.True(t, prompt.Uses(p2.Prompt, prompt.Context))

	p6, _ := p.Stage("P6_SELL")
	assert.True(t, p6.Optional)
	assert.True(t, p6.Wants(InputHoldingCost))
	assert.True(t, prompt.Uses(p6.Prompt, prompt.Cost))

	for _, s := range p.Stages[:3] {
		assert.False(t, prompt.Uses(s.Prompt, prompt.Cost), s.ID)
		assert.True(t, prompt.Uses(s.Prompt, prompt.Ticker), s.ID)
	}
}

func TestLoadManifest(t *testing.T) {
	content := `name: short
description: test
stages:
  - id: A
    title: Stage A
    provider: MOCK
    model: mock-1
    temperature: 0.5
    prompt: "Hello {{Ticker}}"
  - id: B
    title: Stage B
    provider: google
    model: gemini-2.5-flash
    prompt: "Given {Context}, hold at {Cost}"
    inputs: [holding_cost]
    optional: true
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	p, err := LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, p.Stages, 2)
	assert.Equal(t, adapter.ProviderMock, p.Stages[0].Provider)
	assert.Equal(t, adapter.ProviderGemini, p.Stages[1].Provider)
}

func TestManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing name",
			content: "stages: []",
			errText: "pipeline name is required",
		},
		{
			name: "duplicate id",
			content: `name: x
stages:
  - {id: A, title: a, provider: mock, model: m, prompt: p}
  - {id: A, title: b, provider: mock, model: m, prompt: p}`,
			errText: "duplicate stage id",
		},
		{
			name: "optional not last",
			content: `name: x
stages:
  - {id: A, title: a, provider: mock, model: m, prompt: p}
  - {id: B, title: b, provider: mock, model: m, prompt: p, optional: true}
  - {id: C, title: c, provider: mock, model: m, prompt: p}`,
			errText: "only the last stage may be optional",
		},
		{
			name: "cost without input",
			content: `name: x
stages:
  - {id: A, title: a, provider: mock, model: m, prompt: "cost is [Holding Cost]"}`,
			errText: "references the holding cost",
		},
		{
			name: "temperature range",
			content: `name: x
stages:
  - {id: A, title: a, provider: mock, model: m, prompt: p, temperature: 2.5}`,
			errText: "outside [0, 2]",
		},
		{
			name: "unknown provider",
			content: `name: x
stages:
  - {id: A, title: a, provider: llama, model: m, prompt: p}`,
			errText: "unsupported model provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
