package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zen-systems/alphacouncil/pkg/artifact"
)

func TestSnapshotIsDeepCopy(t *testing.T) {
	s := newIdleState()
	s.StageIDs = []string{"A", "B"}
	s.Outputs["A"] = artifact.New("A", "a", "text", "mock", "m", time.Now())

	snap := s.Snapshot()
	snap.StageIDs[0] = "Z"
	snap.Outputs["A"].Text = "changed"
	delete(snap.Outputs, "A")

	assert.Equal(t, "A", s.StageIDs[0])
	assert.Equal(t, "text", s.Outputs["A"].Text)
}

func TestOrderedOutputsFollowsStageOrder(t *testing.T) {
	s := newIdleState()
	s.StageIDs = []string{"A", "B", "C"}
	s.Outputs["B"] = artifact.New("B", "b", "2", "mock", "m", time.Now())
	s.Outputs["A"] = artifact.New("A", "a", "1", "mock", "m", time.Now())

	got := s.Snapshot().OrderedOutputs()
	assert.Len(t, got, 2)
	assert.Equal(t, "A", got[0].StageID)
	assert.Equal(t, "B", got[1].StageID)

	done, total := s.Snapshot().Progress()
	assert.Equal(t, 2, done)
	assert.Equal(t, 3, total)
}

func TestStatusPredicates(t *testing.T) {
	assert.True(t, StatusFetching.Active())
	assert.True(t, StatusRunning.Active())
	assert.False(t, StatusIdle.Active())
	assert.True(t, StatusError.Terminal())
	assert.False(t, StatusRunning.Terminal())
}

func TestCredentials(t *testing.T) {
	c := Credentials{"DeepSeek": " d ", "gemini": ""}.Clone()
	assert.Equal(t, "d", c.Get("deepseek"))
	assert.Equal(t, []string{"deepseek"}, c.Names())

	merged := c.Merge(Credentials{"deepseek": "", "qwen": "q"})
	assert.Equal(t, "d", merged.Get("deepseek"))
	assert.Equal(t, "q", merged.Get("qwen"))
	assert.Equal(t, "", Credentials(nil).Get("qwen"))
}
