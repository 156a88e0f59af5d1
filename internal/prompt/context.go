package prompt

import (
	"fmt"
	"strings"

	"github.com/nickcecere/ldebate/internal/knowledge"
)

// FormatContext renders ranked search results as the context block given to
// every agent, keeping their order. No results render as "".
func FormatContext(results []knowledge.Result) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant Facts:\n")

	for _, r := range results {
		fmt.Fprintf(&sb, "From %s (relevance: %.2f):\n", r.Filename, r.Score)

		if r.Content.IsRecord() {
			for _, f := range r.Content.Fields {
				fmt.Fprintf(&sb, "- %s: %s\n", f.Key, f.Display())
			}
		} else {
			sb.WriteString(r.Content.Text)
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
