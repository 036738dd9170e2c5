package adapter

import "context"

// Adapter defines the interface for LLM provider adapters. Each call is a
// single request/response with no internal retries.
type Adapter interface {
	// Generate sends one prompt to the model and returns the generated text.
	// An absent text field is a success with empty Text; transport and
	// upstream failures are returned as errors.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// ModelInfo holds metadata about a model.
type ModelInfo struct {
	ID          string
	Description string
}
