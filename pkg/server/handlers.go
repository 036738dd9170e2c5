package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
	"github.com/zen-systems/alphacouncil/pkg/report"
)

// handleHealth reports liveness and which process-default keys exist.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	configured := make(map[string]bool)
	for _, p := range adapter.Providers() {
		configured[string(p)] = s.deps.Executor != nil && s.deps.Executor.HasDefault(string(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"time":      s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
		"providers": configured,
		"market":    s.deps.Executor != nil && s.deps.Executor.HasDefault(pipeline.MarketCredential),
	})
}

type providerModels struct {
	ID     adapter.Provider `json:"id"`
	Label  string           `json:"label"`
	Models []modelEntry     `json:"models"`
}

type modelEntry struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

func (s *Server) handleModels(w http.ResponseWriter, _ *http.Request) {
	var out []providerModels
	for _, p := range adapter.Providers() {
		entry := providerModels{ID: p, Label: p.Label()}
		for _, m := range s.deps.Catalog.ForProvider(p) {
			entry.Models = append(entry.Models, modelEntry{Name: m.Name, Label: m.Label})
		}
		if len(entry.Models) > 0 {
			out = append(out, entry)
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"providers": out,
		"aliases":   s.deps.Catalog.Aliases,
	})
}

func (s *Server) handleStages(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"stages": sessionFrom(r).Controller.Stages(),
	})
}

func (s *Server) handleConfigureStage(w http.ResponseWriter, r *http.Request) {
	var o pipeline.Override
	if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if o.Empty() {
		respondError(w, http.StatusBadRequest, "no stage field to change")
		return
	}
	stage, err := sessionFrom(r).Controller.Configure(chi.URLParam(r, "id"), o)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stage)
}

// runRequest is the body of POST /api/runs.
type runRequest struct {
	Symbol      string            `json:"symbol"`
	Keys        map[string]string `json:"keys"`
	IncludeExit bool              `json:"include_exit"`
	HoldingCost string            `json:"holding_cost"`
}

// handleStartRun validates and starts a run, then drives it in the
// background. Clients poll /api/state for progress.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess := sessionFrom(r)
	exec, err := sess.Controller.Start(pipeline.RunRequest{
		Symbol:      req.Symbol,
		Credentials: pipeline.Credentials(req.Keys),
		IncludeExit: req.IncludeExit,
		HoldingCost: req.HoldingCost,
	})
	if err != nil {
		respondErr(w, err)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		state := exec.Execute(context.WithoutCancel(s.runCtx))
		s.logger.Info("run finished",
			slog.String("session", sess.ID),
			slog.String("run_id", exec.RunID()),
			slog.String("status", string(state.Status)),
		)
	}()

	respondJSON(w, http.StatusAccepted, map[string]any{
		"run_id": exec.RunID(),
		"state":  sess.Controller.State(),
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r).Controller.State())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, sessionFrom(r).Controller.Reset())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	doc, err := report.Markdown(sessionFrom(r).Controller.State(), s.now())
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}
