package pipeline

import (
	"fmt"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
)

// Pipeline is the full stage catalogue loaded from a manifest.
type Pipeline struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Stages      []*Stage `yaml:"stages"`
}

// Stage returns the stage with the given id.
func (p *Pipeline) Stage(id string) (*Stage, bool) {
	for _, s := range p.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// IDs lists every stage id in catalogue order, optional stages included.
func (p *Pipeline) IDs() []string {
	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.ID
	}
	return ids
}

// Clone returns a deep copy.
func (p *Pipeline) Clone() *Pipeline {
	c := &Pipeline{Name: p.Name, Description: p.Description, Stages: make([]*Stage, len(p.Stages))}
	for i, s := range p.Stages {
		c.Stages[i] = s.Clone()
	}
	return c
}

// Spec is the ordered stage list resolved for one run. It is read-only once
// built.
type Spec struct {
	stages []*Stage
}

// Build resolves the stages for a run. Optional stages are included only when
// includeOptional is set; order follows the catalogue.
func Build(p *Pipeline, includeOptional bool) (*Spec, error) {
	if p == nil || len(p.Stages) == 0 {
		return nil, apperr.New(apperr.KindValidation, "pipeline has no stages")
	}
	spec := &Spec{}
	for _, s := range p.Stages {
		if s.Optional && !includeOptional {
			continue
		}
		spec.stages = append(spec.stages, s.Clone())
	}
	if len(spec.stages) == 0 {
		return nil, apperr.New(apperr.KindValidation, "pipeline resolved to zero stages")
	}
	return spec, nil
}

// Len returns the number of stages.
func (s *Spec) Len() int {
	return len(s.stages)
}

// At returns the stage at 0-based index i.
func (s *Spec) At(i int) *Stage {
	return s.stages[i]
}

// IDs returns the stage ids in execution order.
func (s *Spec) IDs() []string {
	ids := make([]string, len(s.stages))
	for i, st := range s.stages {
		ids[i] = st.ID
	}
	return ids
}

// Stages returns copies of the stages in execution order.
func (s *Spec) Stages() []*Stage {
	out := make([]*Stage, len(s.stages))
	for i, st := range s.stages {
		out[i] = st.Clone()
	}
	return out
}

func (s *Spec) String() string {
	return fmt.Sprintf("%v", s.IDs())
}
