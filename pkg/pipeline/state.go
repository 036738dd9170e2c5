package pipeline

import (
	"time"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/artifact"
)

// Status is the run lifecycle state.
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusFetching  Status = "FETCHING_DATA"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
)

// Active reports whether a run is in flight.
func (s Status) Active() bool {
	return s == StatusFetching || s == StatusRunning
}

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// WorkflowState is the session-scoped record of one run. CurrentStepIndex
// is 1-based while running and 0 before a run starts. Outputs only holds
// stages positioned before the cursor.
type WorkflowState struct {
	RunID            string                           `json:"run_id,omitempty"`
	Status           Status                           `json:"status"`
	CurrentStepIndex int                              `json:"current_step_index"`
	StageIDs         []string                         `json:"stage_ids,omitempty"`
	Symbol           string                           `json:"symbol"`
	MarketContext    string                           `json:"market_context"`
	MarketLive       bool                             `json:"market_live"`
	HoldingCost      string                           `json:"holding_cost,omitempty"`
	Outputs          map[string]*artifact.StageOutput `json:"outputs"`
	Error            string                           `json:"error,omitempty"`
	ErrorKind        apperr.Kind                      `json:"error_kind,omitempty"`
	FailedStage      string                           `json:"failed_stage,omitempty"`
	StartedAt        time.Time                        `json:"started_at,omitzero"`
	FinishedAt       time.Time                        `json:"finished_at,omitzero"`
}

func newIdleState() *WorkflowState {
	return &WorkflowState{
		Status:  StatusIdle,
		Outputs: make(map[string]*artifact.StageOutput),
	}
}

// Snapshot returns a deep copy safe to hand to readers.
func (s *WorkflowState) Snapshot() WorkflowState {
	c := *s
	c.StageIDs = append([]string(nil), s.StageIDs...)
	c.Outputs = make(map[string]*artifact.StageOutput, len(s.Outputs))
	for id, out := range s.Outputs {
		o := *out
		c.Outputs[id] = &o
	}
	return c
}

// OrderedOutputs returns the recorded outputs in pipeline order.
func (s WorkflowState) OrderedOutputs() []*artifact.StageOutput {
	out := make([]*artifact.StageOutput, 0, len(s.Outputs))
	for _, id := range s.StageIDs {
		if o, ok := s.Outputs[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// Progress returns completed and total stage counts.
func (s WorkflowState) Progress() (done, total int) {
	return len(s.Outputs), len(s.StageIDs)
}
