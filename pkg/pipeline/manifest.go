package pipeline

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zen-systems/alphacouncil/pkg/prompt"
)

//go:embed defaults.yaml
var defaultManifest []byte

// knownInputs lists the extra inputs a stage may declare.
var knownInputs = map[string]bool{
	InputHoldingCost: true,
}

// DefaultPipeline returns the built-in four-stage catalogue.
func DefaultPipeline() *Pipeline {
	p, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(fmt.Sprintf("built-in pipeline manifest is invalid: %v", err))
	}
	return p
}

// LoadManifest reads a pipeline definition from a YAML file.
func LoadManifest(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ParseManifest decodes and validates a pipeline definition.
func ParseManifest(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, err
	}
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// Validate checks the pipeline configuration for errors.
func (p *Pipeline) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline must define at least one stage")
	}

	seen := make(map[string]struct{})
	for i, stage := range p.Stages {
		if stage == nil {
			return fmt.Errorf("stage %d is empty", i)
		}
		if stage.ID == "" {
			return fmt.Errorf("stage id is required")
		}
		if _, ok := seen[stage.ID]; ok {
			return fmt.Errorf("duplicate stage id: %s", stage.ID)
		}
		seen[stage.ID] = struct{}{}

		if err := stage.Validate(); err != nil {
			return err
		}
		if stage.Optional && i != len(p.Stages)-1 {
			return fmt.Errorf("stage %s: only the last stage may be optional", stage.ID)
		}
	}
	if p.Stages[0].Optional {
		return fmt.Errorf("stage %s: the first stage cannot be optional", p.Stages[0].ID)
	}
	return nil
}

// Validate checks a single stage.
func (s *Stage) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("stage %s must have a title", s.ID)
	}
	if s.Prompt == "" {
		return fmt.Errorf("stage %s must have a prompt", s.ID)
	}
	if !s.Provider.Valid() {
		return fmt.Errorf("stage %s: unsupported provider %q", s.ID, s.Provider)
	}
	if s.Model == "" {
		return fmt.Errorf("stage %s must name a model", s.ID)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("stage %s: temperature %.2f outside [0, 2]", s.ID, s.Temperature)
	}
	for _, in := range s.Inputs {
		if !knownInputs[in] {
			return fmt.Errorf("stage %s declares unknown input %q", s.ID, in)
		}
	}
	if prompt.Uses(s.Prompt, prompt.Cost) && !s.Wants(InputHoldingCost) {
		return fmt.Errorf("stage %s references the holding cost without declaring the %s input", s.ID, InputHoldingCost)
	}
	return nil
}
