package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const wrapAt = 78

var (
	keywordStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"})
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})
	voiceStyle   = lipgloss.NewStyle().Bold(true)
)

// keyword renders a highlighted term for help output.
func keyword(s string) string {
	return keywordStyle.Render(s)
}

// subtle renders de-emphasized text.
func subtle(s string) string {
	return subtleStyle.Render(s)
}

// paragraph wraps and indents help text the way the rest of the CLI output
// is formatted.
func paragraph(s string) string {
	return strings.TrimRight(indent.String(wordwrap.String(s, wrapAt), 2), "\n")
}
