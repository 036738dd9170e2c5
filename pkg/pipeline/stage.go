package pipeline

import (
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
)

// InputHoldingCost is the extra input declared by the exit/hold stage.
const InputHoldingCost = "holding_cost"

// Stage is one prompt-producing step of the pipeline. Loaded stages are
// treated as immutable; overrides produce a new Stage.
type Stage struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Title       string           `yaml:"title" json:"title"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Provider    adapter.Provider `yaml:"provider" json:"provider"`
	Model       string           `yaml:"model" json:"model"`
	Temperature float64          `yaml:"temperature" json:"temperature"`
	Prompt      string           `yaml:"prompt" json:"prompt"`
	Inputs      []string         `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Optional    bool             `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Clone returns a deep copy.
func (s *Stage) Clone() *Stage {
	c := *s
	c.Inputs = append([]string(nil), s.Inputs...)
	return &c
}

// Wants reports whether the stage declares the named extra input.
func (s *Stage) Wants(input string) bool {
	for _, in := range s.Inputs {
		if strings.EqualFold(in, input) {
			return true
		}
	}
	return false
}

// Override carries the session-editable fields of a stage. Nil fields are
// left unchanged.
type Override struct {
	Title       *string  `json:"title,omitempty"`
	Prompt      *string  `json:"prompt,omitempty"`
	Provider    *string  `json:"provider,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Empty reports whether the override changes nothing.
func (o Override) Empty() bool {
	return o.Title == nil && o.Prompt == nil && o.Provider == nil && o.Model == nil && o.Temperature == nil
}
