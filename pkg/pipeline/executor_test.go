package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/logging"
)

func TestExecutorCredentialPrecedence(t *testing.T) {
	b := newScriptedBackend()
	e := NewExecutor(b.factory(),
		WithDefaultCredentials(Credentials{"deepseek": "process-key"}),
		WithExecutorLogger(logging.NewNop()),
	)
	stage := &Stage{ID: "S", Provider: adapter.ProviderDeepSeek, Model: "deepseek-chat", Temperature: 0.4}

	_, err := e.Execute(context.Background(), stage, "p", Credentials{"deepseek": "caller-key"})
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), stage, "p", nil)
	require.NoError(t, err)

	calls := b.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "caller-key", calls[0].key)
	assert.Equal(t, "process-key", calls[1].key)
	assert.Equal(t, DefaultSystemPrompt, calls[0].req.System)
	assert.InDelta(t, 0.4, calls[0].req.Temperature, 1e-9)
}

func TestExecutorMissingCredentialMakesNoCall(t *testing.T) {
	b := newScriptedBackend()
	e := NewExecutor(b.factory(), WithExecutorLogger(logging.NewNop()))
	stage := &Stage{ID: "S", Provider: adapter.ProviderQwen, Model: "qwen-plus"}

	_, err := e.Execute(context.Background(), stage, "p", Credentials{"deepseek": "wrong-provider"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindMissingCredential))
	assert.Contains(t, err.Error(), "qwen")
	assert.Zero(t, b.created)
	assert.Empty(t, b.snapshot())
}

func TestExecutorUnsupportedProvider(t *testing.T) {
	e := NewExecutor(newScriptedBackend().factory(), WithExecutorLogger(logging.NewNop()))
	_, err := e.Execute(context.Background(), &Stage{ID: "S", Provider: "llama"}, "p", nil)
	assert.True(t, apperr.Is(err, apperr.KindUnsupported))
}

func TestExecutorMockProviderNeedsNoKey(t *testing.T) {
	e := NewExecutor(adapter.NewFactory(adapter.FactoryConfig{}),
		WithSystemPrompt("custom system"),
		WithExecutorLogger(logging.NewNop()),
	)
	resp, err := e.Execute(context.Background(), &Stage{ID: "S", Provider: adapter.ProviderMock, Model: "m"}, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock response:\nhello", resp.Text)
}

func TestExecutorPassesUpstreamErrorThrough(t *testing.T) {
	b := newScriptedBackend()
	b.fail[1] = apperr.Upstream("deepseek", 402, "Insufficient Balance", nil)
	e := NewExecutor(b.factory(), WithExecutorLogger(logging.NewNop()))

	_, err := e.Execute(context.Background(), &Stage{ID: "S", Provider: adapter.ProviderDeepSeek, Model: "deepseek-chat"}, "p", Credentials{"deepseek": "k"})
	require.Error(t, err)
	assert.Equal(t, "Insufficient Balance", ErrorMessage(err))
}

func TestExecutorInvokeDefaultsSystemPrompt(t *testing.T) {
	b := newScriptedBackend()
	e := NewExecutor(b.factory(), WithSystemPrompt("be brief"), WithExecutorLogger(logging.NewNop()))

	_, err := e.Invoke(context.Background(), adapter.ProviderQwen,
		adapter.Request{Model: "qwen-plus", Prompt: "hi"}, Credentials{"qwen": " k "})
	require.NoError(t, err)
	_, err = e.Invoke(context.Background(), adapter.ProviderQwen,
		adapter.Request{Model: "qwen-plus", System: "own", Prompt: "hi"}, Credentials{"qwen": "k"})
	require.NoError(t, err)

	calls := b.snapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "k", calls[0].key)
	assert.Equal(t, "be brief", calls[0].req.System)
	assert.Equal(t, "own", calls[1].req.System)

	_, err = e.Invoke(context.Background(), adapter.ProviderGemini, adapter.Request{Model: "m"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindMissingCredential))
}
