package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zen-systems/alphacouncil/pkg/artifact"
)

func TestBuildContextEmptyForFirstStage(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil, nil))
}

func TestBuildContextOrderedWithHeaders(t *testing.T) {
	at := time.Now()
	prior := []*artifact.StageOutput{
		artifact.New("P1_RESEARCH", "recorded title", "base profile", "gemini", "g", at),
		artifact.New("P2_STRATEGY", "", "regime memo", "deepseek", "d", at),
		artifact.New("X", "", "third", "mock", "m", at),
	}
	titles := map[string]string{
		"P1_RESEARCH": "P1 - Research",
		"P2_STRATEGY": "P2 - Diagnosis",
	}

	got := BuildContext(prior, titles)
	want := "【P1 - Research report】:\nbase profile" + ContextSeparator +
		"【P2 - Diagnosis report】:\nregime memo" + ContextSeparator +
		"【X report】:\nthird"
	assert.Equal(t, want, got)
	assert.Equal(t, 2, strings.Count(got, ContextSeparator))

	got = BuildContext(prior[:1], nil)
	assert.Equal(t, "【recorded title report】:\nbase profile", got)
}
