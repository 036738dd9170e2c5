package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// RunRecord is the run-level metadata written next to the report.
type RunRecord struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Status      pipeline.Status `json:"status"`
	Stages      []string        `json:"stages"`
	MarketLive  bool            `json:"market_live"`
	Error       string          `json:"error,omitempty"`
	FailedStage string          `json:"failed_stage,omitempty"`
	StartedAt   time.Time       `json:"started_at,omitzero"`
	FinishedAt  time.Time       `json:"finished_at,omitzero"`
}

// Writer writes exported runs to disk under baseDir/<runID>.
type Writer struct {
	baseDir string
	now     func() time.Time
}

// NewWriter creates a writer rooted at baseDir.
func NewWriter(baseDir string) (*Writer, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	return &Writer{baseDir: baseDir, now: time.Now}, nil
}

// Write stores report.md, run.json and stages/<stage>.json for state and
// returns the run directory.
func (w *Writer) Write(state pipeline.WorkflowState) (string, error) {
	if state.RunID == "" {
		return "", fmt.Errorf("run ID is required")
	}
	doc, err := Markdown(state, w.now())
	if err != nil {
		return "", err
	}

	runDir := filepath.Join(w.baseDir, state.RunID)
	if err := os.MkdirAll(filepath.Join(runDir, "stages"), 0755); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(runDir, "report.md"), []byte(doc), 0644); err != nil {
		return "", err
	}
	record := RunRecord{
		ID:          state.RunID,
		Symbol:      state.Symbol,
		Status:      state.Status,
		Stages:      state.StageIDs,
		MarketLive:  state.MarketLive,
		Error:       state.Error,
		FailedStage: state.FailedStage,
		StartedAt:   state.StartedAt,
		FinishedAt:  state.FinishedAt,
	}
	if err := writeJSON(filepath.Join(runDir, "run.json"), record); err != nil {
		return "", err
	}
	for _, out := range state.OrderedOutputs() {
		path := filepath.Join(runDir, "stages", fmt.Sprintf("%s.json", out.StageID))
		if err := writeJSON(path, out); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
