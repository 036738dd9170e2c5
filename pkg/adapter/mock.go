package adapter

import (
	"context"
	"fmt"
	"sync"
)

// MockAdapter returns deterministic responses for local runs and tests.
// Responses and failures are keyed by model name.
type MockAdapter struct {
	mu              sync.Mutex
	responses       map[string]string
	failures        map[string]error
	defaultResponse string
	calls           []Request
	Usage           *Usage
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		failures:        make(map[string]error),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined responses.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	m := NewMockAdapter()
	for k, v := range responses {
		m.responses[k] = v
	}
	if defaultResponse != "" {
		m.defaultResponse = defaultResponse
	}
	return m
}

// Respond scripts the text returned for model.
func (a *MockAdapter) Respond(model, text string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[model] = text
	return a
}

// Fail scripts an error for model.
func (a *MockAdapter) Fail(model string, err error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[model] = err
	return a
}

// Calls returns a copy of every request received so far.
func (a *MockAdapter) Calls() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.calls...)
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return string(ProviderMock)
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns the scripted response or error for the request's model.
func (a *MockAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = "mock-1"
	}

	a.mu.Lock()
	a.calls = append(a.calls, req)
	failure := a.failures[model]
	response, ok := a.responses[model]
	defaultResponse := a.defaultResponse
	a.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if !ok {
		response = fmt.Sprintf("%s\n%s", defaultResponse, req.Prompt)
	}
	return &Response{Text: response, Provider: a.Name(), Model: model, Usage: a.Usage}, nil
}
