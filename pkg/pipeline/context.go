package pipeline

import (
	"fmt"
	"strings"

	"github.com/zen-systems/alphacouncil/pkg/artifact"
)

// ContextSeparator divides stage reports in the accumulated transcript.
const ContextSeparator = "\n\n----------------\n\n"

// BuildContext concatenates prior stage outputs, given in execution order,
// each under a header naming the stage title. titles maps stage id to title
// and falls back to the title recorded on the output. No prior output yields
// the empty string.
func BuildContext(prior []*artifact.StageOutput, titles map[string]string) string {
	if len(prior) == 0 {
		return ""
	}
	sections := make([]string, 0, len(prior))
	for _, out := range prior {
		title := titles[out.StageID]
		if title == "" {
			title = out.Title
		}
		if title == "" {
			title = out.StageID
		}
		sections = append(sections, fmt.Sprintf("【%s report】:\n%s", title, out.Text))
	}
	return strings.Join(sections, ContextSeparator)
}
