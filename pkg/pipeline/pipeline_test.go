package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/prompt"
)

func TestBuildWithExitStage(t *testing.T) {
	spec, err := Build(DefaultPipeline(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1_RESEARCH", "P2_STRATEGY", "P5_BUY", "P6_SELL"}, spec.IDs())
}

func TestBuildWithoutExitStageNeverReferencesHoldingCost(t *testing.T) {
	spec, err := Build(DefaultPipeline(), false)
	require.NoError(t, err)
	require.Equal(t, 3, spec.Len())
	assert.Equal(t, []string{"P1_RESEARCH", "P2_STRATEGY", "P5_BUY"}, spec.IDs())

	for _, s := range spec.Stages() {
		assert.NotContains(t, prompt.References(s.Prompt), prompt.Cost, s.ID)
	}
}

func TestBuildCopiesStages(t *testing.T) {
	p := DefaultPipeline()
	spec, err := Build(p, false)
	require.NoError(t, err)

	p.Stages[0].Title = "changed"
	assert.NotEqual(t, "changed", spec.At(0).Title)

	spec.Stages()[0].Title = "changed too"
	assert.NotEqual(t, "changed too", spec.At(0).Title)
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(&Pipeline{Name: "x"}, true)
	assert.Error(t, err)
}

func TestPipelineIDsIncludesOptional(t *testing.T) {
	assert.Equal(t, []string{"S1", "S2", "S3", "S4"}, testPipeline().IDs())
}
