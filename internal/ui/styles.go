package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary   = lipgloss.Color("39")  // Cyan
	ColorSecondary = lipgloss.Color("212") // Pink
	ColorSuccess   = lipgloss.Color("82")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
	ColorMuted     = lipgloss.Color("245") // Gray
	ColorHighlight = lipgloss.Color("226") // Yellow
)

// Styles for various UI elements
var (
	// Text styles
	Bold      = lipgloss.NewStyle().Bold(true)
	Dim       = lipgloss.NewStyle().Foreground(ColorMuted)
	Highlight = lipgloss.NewStyle().Foreground(ColorHighlight)
	Header    = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	// Status styles
	Success = lipgloss.NewStyle().Foreground(ColorSuccess)
	Warning = lipgloss.NewStyle().Foreground(ColorWarning)
	Error   = lipgloss.NewStyle().Foreground(ColorError)

	FilePath = lipgloss.NewStyle().Foreground(ColorPrimary)

	// Search result styles
	ResultScore = lipgloss.NewStyle().
			Foreground(ColorSuccess)
	ResultContent = lipgloss.NewStyle().
			Foreground(ColorMuted).
			PaddingLeft(2)

	// Debate turn headers
	OptimistTitle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true).
			MarginTop(1)
	PessimistTitle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true).
			MarginTop(1)
	SynthesizerTitle = lipgloss.NewStyle().
				Foreground(ColorSecondary).
				Bold(true).
				MarginTop(1)

	Divider = lipgloss.NewStyle().
		Foreground(ColorMuted)
)

// HorizontalRule returns a styled horizontal divider.
func HorizontalRule(width int) string {
	if width < 0 {
		width = 0
	}
	return Divider.Render(strings.Repeat("─", width))
}

// FormatScore formats a cosine similarity the way the agents see it.
func FormatScore(score float64) string {
	return ResultScore.Render(fmt.Sprintf("(relevance: %.2f)", score))
}

// RoleTitle renders a debate role heading.
func RoleTitle(role string) string {
	title := role
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}

	switch role {
	case "optimist":
		return OptimistTitle.Render(title)
	case "pessimist":
		return PessimistTitle.Render(title)
	case "synthesizer":
		return SynthesizerTitle.Render(title)
	default:
		return Header.Render(title)
	}
}
