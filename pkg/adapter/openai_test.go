package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

func TestQwenGenerateThroughCompatibleMode(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer qwen-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"qwen-plus","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hold"}}],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`))
	}))
	defer srv.Close()

	a, err := NewQwenAdapter("qwen-key", WithOpenAIBaseURL(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "qwen", a.Name())

	resp, err := a.Generate(context.Background(), Request{Model: "qwen-plus", System: "sys", Prompt: "p", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "hold", resp.Text)
	assert.Equal(t, 6, resp.Usage.TotalTokens)

	assert.Equal(t, "qwen-plus", body["model"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestQwenUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	a, err := NewQwenAdapter("qwen-key", WithOpenAIBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Request{Model: "qwen-nope", Prompt: "p"})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUpstream, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}
