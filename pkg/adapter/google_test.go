package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

func newGeminiTestServer(t *testing.T, status int, body string, capture *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash:generateContent"), r.URL.Path)
		assert.Equal(t, "gemini-key", r.Header.Get("x-goog-api-key"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiGenerateWithSearchTool(t *testing.T) {
	var got map[string]any
	srv := newGeminiTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"fundamentals "},{"text":"look solid"}]}}],"usageMetadata":{"promptTokenCount":12,"candidatesTokenCount":4,"totalTokenCount":16}}`,
		&got)

	a, err := NewGoogleAdapter("gemini-key", WithGoogleSearch(true), WithGoogleBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), Request{
		Model:       "gemini-2.5-flash",
		System:      "You are a professional financial analysis assistant.",
		Prompt:      "research AAPL",
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "fundamentals look solid", resp.Text)
	assert.Equal(t, "gemini", resp.Provider)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 16, resp.Usage.TotalTokens)

	tools, ok := got["tools"].([]any)
	require.True(t, ok, "tools missing from request")
	require.Len(t, tools, 1)
	tool, ok := tools[0].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, tool, "googleSearch")
	assert.Contains(t, got, "systemInstruction")
}

func TestGeminiGenerateWithoutSearchTool(t *testing.T) {
	var got map[string]any
	srv := newGeminiTestServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`, &got)

	a, err := NewGoogleAdapter("gemini-key", WithGoogleSearch(false), WithGoogleBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), Request{Prompt: "research AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.NotContains(t, got, "tools")
}

func TestGeminiUpstreamErrorCarriesReason(t *testing.T) {
	srv := newGeminiTestServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, nil)

	a, err := NewGoogleAdapter("gemini-key", WithGoogleBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = a.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUpstream, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", appErr.Reason())
}

func TestGeminiEmptyCandidatesIsEmptyText(t *testing.T) {
	srv := newGeminiTestServer(t, http.StatusOK, `{"candidates":[]}`, nil)

	a, err := NewGoogleAdapter("gemini-key", WithGoogleBaseURL(srv.URL))
	require.NoError(t, err)

	resp, err := a.Generate(context.Background(), Request{Prompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Text)
}

func TestNewGoogleAdapterRequiresKey(t *testing.T) {
	_, err := NewGoogleAdapter("")
	assert.Error(t, err)
}
