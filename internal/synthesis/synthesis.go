// Package synthesis extracts structured sections from the synthesizer's
// free-text answer. Parsing is best effort and never fails.
package synthesis

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Section markers the synthesizer is asked to emit. The prompt templates
// reference these constants so both sides change together.
const (
	MarkerSummary        = "[Summary]"
	MarkerAgreements     = "[Key Agreements]"
	MarkerDisputes       = "[Remaining Disputes]"
	MarkerActionPlan     = "[Action Plan]"
	MarkerRecommendation = "[Final Recommendation]"
	MarkerConfidence     = "[Confidence]"
)

// Older marker spellings still accepted.
const (
	MarkerOpportunities     = "[Opportunities]"
	MarkerRisks             = "[Risks]"
	MarkerRecommendationAlt = "[Recommendation]"
)

// Labels recognised for opportunities when no marker is present.
var opportunityLabels = []string{"Opportunities:", "Key advantages:"}

var percentRe = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)\s*%`)

// Sections is the structured view of a synthesis.
type Sections struct {
	Summary        string   `json:"summary"`
	Opportunities  []string `json:"opportunities"`
	Risks          []string `json:"risks"`
	Actions        []string `json:"actions"`
	Recommendation string   `json:"recommendation"`
	Confidence     string   `json:"confidence"`
}

// Parse extracts sections from text. Missing sections are left empty.
func Parse(text string) Sections {
	s := Sections{
		Opportunities: []string{},
		Risks:         []string{},
		Actions:       []string{},
	}

	if body, ok := section(text, MarkerSummary); ok {
		s.Summary = body
	} else {
		s.Summary = firstParagraph(text)
	}

	if body, ok := section(text, MarkerAgreements, MarkerOpportunities); ok {
		s.Opportunities = listItems(body)
	} else if body, ok := labelled(text, opportunityLabels...); ok {
		s.Opportunities = listItems(body)
	}

	if body, ok := section(text, MarkerDisputes, MarkerRisks); ok {
		s.Risks = listItems(body)
	}

	if body, ok := section(text, MarkerActionPlan); ok {
		s.Actions = listItems(body)
	}

	if body, ok := section(text, MarkerRecommendation, MarkerRecommendationAlt); ok {
		s.Recommendation = capitalize(body)
	}

	if body, ok := section(text, MarkerConfidence); ok {
		s.Confidence = confidence(body)
	}

	return s
}

// section returns the trimmed text after the first marker found, up to the
// next '[' or the end. Markers are tried in order.
func section(text string, markers ...string) (string, bool) {
	for _, marker := range markers {
		idx := strings.Index(text, marker)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(marker):]
		if end := strings.IndexByte(rest, '['); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// labelled is like section for plain "Label:" headings, whose content runs
// to the next blank line.
func labelled(text string, labels ...string) (string, bool) {
	for _, label := range labels {
		idx := strings.Index(text, label)
		if idx < 0 {
			continue
		}
		rest := strings.TrimLeft(text[idx+len(label):], " \t")
		rest = strings.TrimPrefix(rest, "\n")
		if end := strings.Index(rest, "\n\n"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if end := strings.Index(text, "\n\n"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// listItems keeps lines that start with '-' or a digit and strips the
// bullet or "N." / "N)" numbering.
func listItems(body string) []string {
	items := []string{}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-"):
			line = strings.TrimPrefix(line, "-")
		case line[0] >= '0' && line[0] <= '9':
			line = stripNumber(line)
		default:
			continue
		}

		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

func stripNumber(line string) string {
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i < len(line) && (line[i] == '.' || line[i] == ')') {
		return line[i+1:]
	}
	// A line like "30 days of runway" is content, not numbering
	return line
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// confidence normalises a confidence section to "<number>%". Text without a
// percent sign yields "".
func confidence(body string) string {
	if !strings.Contains(body, "%") {
		return ""
	}
	if m := percentRe.FindStringSubmatch(body); m != nil {
		return m[1] + "%"
	}
	head := strings.TrimSpace(body[:strings.Index(body, "%")])
	return head + "%"
}

// Format renders sections back into the marker layout. Parsing the result
// yields the same sections.
func (s Sections) Format() string {
	var sb strings.Builder

	writeBlock := func(marker, body string) {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(marker)
		sb.WriteString("\n")
		if body != "" {
			sb.WriteString(body)
			sb.WriteString("\n")
		}
	}
	writeList := func(marker string, items []string) {
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = "- " + item
		}
		writeBlock(marker, strings.Join(lines, "\n"))
	}

	writeBlock(MarkerSummary, s.Summary)
	writeList(MarkerAgreements, s.Opportunities)
	writeList(MarkerDisputes, s.Risks)
	writeList(MarkerActionPlan, s.Actions)
	writeBlock(MarkerRecommendation, s.Recommendation)
	writeBlock(MarkerConfidence, s.Confidence)

	return sb.String()
}

// Empty reports whether no section was recovered.
func (s Sections) Empty() bool {
	return s.Summary == "" && len(s.Opportunities) == 0 && len(s.Risks) == 0 &&
		len(s.Actions) == 0 && s.Recommendation == "" && s.Confidence == ""
}
