// Package report exports a run as a Markdown research document.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/zen-systems/alphacouncil/pkg/apperr"
	"github.com/zen-systems/alphacouncil/pkg/pipeline"
)

// TimeLayout formats timestamps in the report header.
const TimeLayout = "2006-01-02 15:04:05 MST"

// Markdown renders every produced stage of state, in pipeline order, after a
// header and the market block. A state without outputs has nothing to export.
func Markdown(state pipeline.WorkflowState, generatedAt time.Time) (string, error) {
	outputs := state.OrderedOutputs()
	if len(outputs) == 0 {
		return "", apperr.New(apperr.KindNotFound, "no stage output to export")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Investment research report: %s\n\n", state.Symbol)
	fmt.Fprintf(&sb, "- Generated: %s\n", generatedAt.Format(TimeLayout))
	if state.RunID != "" {
		fmt.Fprintf(&sb, "- Run: %s\n", state.RunID)
	}
	done, total := state.Progress()
	fmt.Fprintf(&sb, "- Status: %s (%d/%d stages)\n", state.Status, done, total)
	if state.HoldingCost != "" {
		fmt.Fprintf(&sb, "- Holding cost: %s\n", state.HoldingCost)
	}

	source := "live"
	if !state.MarketLive {
		source = "unavailable"
	}
	fmt.Fprintf(&sb, "\n## Market data (%s)\n\n", source)
	sb.WriteString("```\n")
	sb.WriteString(strings.TrimSpace(state.MarketContext))
	sb.WriteString("\n```\n")

	for _, out := range outputs {
		title := out.Title
		if title == "" {
			title = out.StageID
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)
		sb.WriteString(strings.TrimSpace(out.Text))
		sb.WriteString("\n\n")
		fmt.Fprintf(&sb, "_%s / %s, %s_\n", out.Provider, out.Model, out.ProducedAt.Format(TimeLayout))
	}

	if state.Status == pipeline.StatusError {
		sb.WriteString("\n## Run stopped\n\n")
		if state.FailedStage != "" {
			fmt.Fprintf(&sb, "Stage %s failed: ", state.FailedStage)
		}
		sb.WriteString(state.Error)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
