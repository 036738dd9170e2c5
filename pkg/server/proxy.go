package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/market"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// aiRequest is the body of POST /api/ai/{provider}.
type aiRequest struct {
	Model        string  `json:"model"`
	SystemPrompt string  `json:"systemPrompt"`
	Prompt       string  `json:"prompt"`
	Temperature  float64 `json:"temperature"`
	APIKey       string  `json:"apiKey"`
}

type proxyResponse struct {
	Success   bool   `json:"success"`
	Text      string `json:"text,omitempty"`
	Data      any    `json:"data,omitempty"`
	Formatted string `json:"formatted,omitempty"`
	Error     string `json:"error,omitempty"`
}

func respondProxyErr(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatusFor(err), proxyResponse{Error: pipeline.ErrorMessage(err)})
}

// handleAIProxy forwards one prompt to a provider under the same credential
// policy as pipeline stages.
func (s *Server) handleAIProxy(w http.ResponseWriter, r *http.Request) {
	provider, err := adapter.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		respondProxyErr(w, err)
		return
	}

	var req aiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondProxyErr(w, apperr.Wrap(apperr.KindValidation, err, "invalid request body"))
		return
	}
	if req.Model == "" || req.Prompt == "" {
		respondProxyErr(w, apperr.New(apperr.KindValidation, "model and prompt are required"))
		return
	}

	resp, err := s.deps.Executor.Invoke(r.Context(), provider, adapter.Request{
		Model:       s.deps.Catalog.Canonical(req.Model),
		System:      req.SystemPrompt,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	}, pipeline.Credentials{string(provider): req.APIKey})
	if err != nil {
		respondProxyErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proxyResponse{Success: true, Text: resp.Text})
}

// handleStockProxy returns the normalized quote and its prompt block. The
// body is optional.
func (s *Server) handleStockProxy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondProxyErr(w, apperr.Wrap(apperr.KindValidation, err, "invalid request body"))
		return
	}
	if s.deps.Quotes == nil {
		respondProxyErr(w, apperr.New(apperr.KindUnsupported, "market data is not configured"))
		return
	}

	quote, err := s.deps.Quotes.Quote(r.Context(), chi.URLParam(r, "symbol"), req.APIKey)
	if err != nil {
		respondProxyErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, proxyResponse{
		Success:   true,
		Data:      quote,
		Formatted: market.FormatForPrompt(quote),
	})
}
