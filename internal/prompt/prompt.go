// Package prompt builds the per-role prompts of a debate.
package prompt

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/nickcecere/ldebate/internal/synthesis"
)

// TemplateVersion identifies the template set. Bump it together with any
// change to the synthesis markers.
const TemplateVersion = "2"

// Role is a debate participant.
type Role string

const (
	RoleOptimist    Role = "optimist"
	RolePessimist   Role = "pessimist"
	RoleSynthesizer Role = "synthesizer"
)

// Roles lists the participants in speaking order.
var Roles = []Role{RoleOptimist, RolePessimist, RoleSynthesizer}

// ErrUnknownAgentType is returned for a role without a template.
var ErrUnknownAgentType = errors.New("unknown agent type")

// ParseRole resolves a role name case-insensitively.
func ParseRole(name string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := templates[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgentType, name)
	}
	return role, nil
}

// Title returns the capitalised role name.
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

// Input carries the values a template can reference.
type Input struct {
	Topic   string
	Context string
	Prior   string
}

const optimistTemplate = `You are the Optimist in a strategic debate. Your role is to:
- Focus on growth opportunities and potential upsides
- Identify quick wins and competitive advantages
- Emphasize speed and first-mover advantages
- Counterbalance risk aversion with bold vision

When making arguments:
1. Always cite specific facts from provided context
2. Quantify opportunities where possible
3. Propose concrete action steps
4. Acknowledge valid counterpoints but reframe positively

Current debate topic: {{.Topic}}
Relevant context: {{.Context}}

Your analysis:`

const pessimistTemplate = `You are the Pessimist in a strategic debate. Your role is to:
- Identify risks, costs, and potential failure modes
- Highlight regulatory and competitive challenges
- Stress-test assumptions in the optimistic view
- Ensure realistic timelines and budgets

When making arguments:
1. Always cite specific facts from provided context
2. Quantify risks where possible
3. Identify mitigation requirements
4. Acknowledge valid opportunities but highlight constraints
{{if .Prior}}
Debate so far:
{{.Prior}}
{{end}}
Current debate topic: {{.Topic}}
Relevant context: {{.Context}}

Your analysis:`

// The section layout references the parser's markers so the two cannot drift.
var synthesizerTemplate = `You are the Synthesizer in a strategic debate. Your role is to:
- Analyze the FULL debate history below
- Identify key points of agreement and remaining disagreements
- Focus on new insights rather than repeating arguments
- Format your response with these exact sections:

` + synthesis.MarkerSummary + `
Brief overview considering all exchanges

` + synthesis.MarkerAgreements + `
- Points both sides converged on

` + synthesis.MarkerDisputes + `
- Unresolved disagreements

` + synthesis.MarkerActionPlan + `
- Numbered steps incorporating all perspectives

` + synthesis.MarkerRecommendation + `
Clear decision accounting for the full debate

` + synthesis.MarkerConfidence + `
Percentage (50-100%) with explanation

FULL DEBATE HISTORY:
{{.Prior}}

Current debate topic: {{.Topic}}
Relevant context: {{.Context}}

Your synthesis:`

var templates = map[Role]*template.Template{
	RoleOptimist:    template.Must(template.New(string(RoleOptimist)).Parse(optimistTemplate)),
	RolePessimist:   template.Must(template.New(string(RolePessimist)).Parse(pessimistTemplate)),
	RoleSynthesizer: template.Must(template.New(string(RoleSynthesizer)).Parse(synthesizerTemplate)),
}

// Render builds the prompt for role. Inputs are inserted verbatim; any
// characters are allowed.
func Render(role Role, topic, context, prior string) (string, error) {
	tmpl, ok := templates[role]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAgentType, role)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, Input{Topic: topic, Context: context, Prior: prior}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", role, err)
	}
	return sb.String(), nil
}
