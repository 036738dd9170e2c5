package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/logging"
	"github.com/zen-systems/alphacouncil/pkg/market"
)

type recordedCall struct {
	provider adapter.Provider
	key      string
	req      adapter.Request
}

// scriptedBackend answers every provider, numbering its calls from 1.
type scriptedBackend struct {
	mu      sync.Mutex
	calls   []recordedCall
	fail    map[int]error
	created int

	// when set, call number blockOn signals entered and waits for release.
	blockOn int
	entered chan struct{}
	release chan struct{}
}

func newScriptedBackend() *scriptedBackend {
	return &scriptedBackend{fail: make(map[int]error)}
}

func (b *scriptedBackend) factory() adapter.Factory {
	return adapter.FactoryFunc(func(p adapter.Provider, key string) (adapter.Adapter, error) {
		b.mu.Lock()
		b.created++
		b.mu.Unlock()
		return &scriptedAdapter{b: b, provider: p, key: key}, nil
	})
}

func (b *scriptedBackend) snapshot() []recordedCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedCall(nil), b.calls...)
}

type scriptedAdapter struct {
	b        *scriptedBackend
	provider adapter.Provider
	key      string
}

func (a *scriptedAdapter) Name() string     { return string(a.provider) }
func (a *scriptedAdapter) Models() []string { return nil }

func (a *scriptedAdapter) Generate(ctx context.Context, req adapter.Request) (*adapter.Response, error) {
	a.b.mu.Lock()
	a.b.calls = append(a.b.calls, recordedCall{provider: a.provider, key: a.key, req: req})
	n := len(a.b.calls)
	err := a.b.fail[n]
	block := a.b.blockOn == n
	a.b.mu.Unlock()

	if block {
		close(a.b.entered)
		<-a.b.release
	}
	if err != nil {
		return nil, err
	}
	return &adapter.Response{
		Text:     fmt.Sprintf("output %d", n),
		Provider: string(a.provider),
		Model:    req.Model,
		Usage:    &adapter.Usage{TotalTokens: 10 * n},
	}, nil
}

type marketFunc func(ctx context.Context, symbol, apiKey string) *market.Quote

func (f marketFunc) Fetch(ctx context.Context, symbol, apiKey string) *market.Quote {
	return f(ctx, symbol, apiKey)
}

func noMarket() MarketSource {
	return marketFunc(func(context.Context, string, string) *market.Quote { return nil })
}

var fixedNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// testPipeline is a small catalogue whose prompts expose every placeholder.
func testPipeline() *Pipeline {
	return &Pipeline{
		Name: "test",
		Stages: []*Stage{
			{ID: "S1", Title: "First", Provider: adapter.ProviderGemini, Model: "gemini-2.5-flash", Temperature: 0.3,
				Prompt: "S1 [[Ticker]] {Context}"},
			{ID: "S2", Title: "Second", Provider: adapter.ProviderDeepSeek, Model: "deepseek-chat", Temperature: 0.4,
				Prompt: "S2 [Ticker] [Price Data] <<[Context]>>"},
			{ID: "S3", Title: "Third", Provider: adapter.ProviderDeepSeek, Model: "deepseek-chat", Temperature: 0.2,
				Prompt: "S3 {{Ticker}} <<{Context}>> on {CurrentDate}"},
			{ID: "S4", Title: "Fourth", Provider: adapter.ProviderDeepSeek, Model: "deepseek-chat", Temperature: 0.2,
				Prompt: "S4 <<{Context}>> cost {Cost}", Optional: true, Inputs: []string{InputHoldingCost}},
		},
	}
}

func newTestController(t *testing.T, p *Pipeline, b *scriptedBackend, src MarketSource, opts ...ControllerOption) *Controller {
	t.Helper()
	exec := NewExecutor(b.factory(), WithExecutorLogger(logging.NewNop()))
	base := []ControllerOption{
		WithMarket(src),
		WithLogger(logging.NewNop()),
		WithClock(func() time.Time { return fixedNow }),
	}
	return NewController(p, exec, append(base, opts...)...)
}

func allKeys() Credentials {
	return Credentials{"gemini": "g-key", "deepseek": "d-key", "qwen": "q-key", "juhe": "j-key"}
}
