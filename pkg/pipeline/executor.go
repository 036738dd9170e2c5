package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/logging"
)

// DefaultSystemPrompt is sent as the system message on every stage call.
const DefaultSystemPrompt = "You are a professional financial analysis assistant."

// Executor dispatches one rendered stage prompt to its provider.
type Executor struct {
	factory      adapter.Factory
	defaults     Credentials
	systemPrompt string
	logger       *slog.Logger
	metrics      *Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithDefaultCredentials sets the process-level keys used when the caller
// supplies none.
func WithDefaultCredentials(c Credentials) ExecutorOption {
	return func(e *Executor) {
		e.defaults = c.Clone()
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt.
func WithSystemPrompt(s string) ExecutorOption {
	return func(e *Executor) {
		if s != "" {
			e.systemPrompt = s
		}
	}
}

// WithExecutorLogger sets the logger.
func WithExecutorLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics attaches metrics collectors.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// NewExecutor creates an Executor over factory.
func NewExecutor(factory adapter.Factory, opts ...ExecutorOption) *Executor {
	e := &Executor{
		factory:      factory,
		defaults:     Credentials{},
		systemPrompt: DefaultSystemPrompt,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ResolveKey applies the credential policy: caller key, then process
// default. Mock needs no key.
func (e *Executor) ResolveKey(p adapter.Provider, creds Credentials) (string, error) {
	if key := creds.For(p); key != "" {
		return key, nil
	}
	if key := e.defaults.For(p); key != "" {
		return key, nil
	}
	if p == adapter.ProviderMock {
		return "", nil
	}
	return "", apperr.MissingCredential(string(p))
}

// HasDefault reports whether a process-level key exists for name.
func (e *Executor) HasDefault(name string) bool {
	return e.defaults.Get(name) != ""
}

// Invoke sends one request to provider under the credential policy. The
// key is resolved before the adapter is built, so a missing credential never
// reaches the network. An empty System uses the executor's system prompt.
func (e *Executor) Invoke(ctx context.Context, provider adapter.Provider, req adapter.Request, creds Credentials) (*adapter.Response, error) {
	if !provider.Valid() {
		return nil, apperr.New(apperr.KindUnsupported, "unsupported model provider %q", provider)
	}
	key, err := e.ResolveKey(provider, creds)
	if err != nil {
		return nil, err
	}

	impl, err := e.factory.New(provider, key)
	if err != nil {
		return nil, fmt.Errorf("create %s adapter: %w", provider, err)
	}

	if req.System == "" {
		req.System = e.systemPrompt
	}
	resp, err := impl.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &adapter.Response{Provider: string(provider), Model: req.Model}
	}
	return resp, nil
}

// Execute sends rendered to the stage's provider and returns the response.
// There are no retries.
func (e *Executor) Execute(ctx context.Context, stage *Stage, rendered string, creds Credentials) (*adapter.Response, error) {
	req := adapter.Request{
		Model:       stage.Model,
		System:      e.systemPrompt,
		Prompt:      rendered,
		Temperature: stage.Temperature,
	}
	logging.LLMRequest(ctx, e.logger, string(stage.Provider), stage.Model, stage.ID, req.System, req.Prompt)

	start := time.Now()
	resp, err := e.Invoke(ctx, stage.Provider, req, creds)
	elapsed := time.Since(start)
	if apperr.Is(err, apperr.KindMissingCredential) || apperr.Is(err, apperr.KindUnsupported) {
		return nil, err
	}
	e.metrics.stageFinished(stage.ID, string(stage.Provider), elapsed.Seconds(), err)
	if err != nil {
		e.logger.ErrorContext(ctx, "stage invocation failed",
			slog.String("stage", stage.ID),
			slog.String("provider", string(stage.Provider)),
			slog.String("model", stage.Model),
			slog.Duration("elapsed", elapsed),
			slog.Any("error", err),
		)
		return nil, err
	}

	logging.LLMResponse(ctx, e.logger, string(stage.Provider), stage.Model, stage.ID, resp.Text)
	e.logger.InfoContext(ctx, "stage invocation succeeded",
		slog.String("stage", stage.ID),
		slog.String("provider", string(stage.Provider)),
		slog.String("model", stage.Model),
		slog.Duration("elapsed", elapsed),
		slog.Int("chars", len(resp.Text)),
	)
	return resp, nil
}
