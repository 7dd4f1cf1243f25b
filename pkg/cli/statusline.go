package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Voice status line colors.
var (
	listeningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	speakingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58a6ff"))
	neutralStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6e7681"))
	meterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
	meterDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#30363d"))
)

// meterWidth is the number of cells in the level meter.
const meterWidth = 20

// StatusLine renders one carriage-returned line for the live voice view:
// a colored status label plus a microphone level meter.
func StatusLine(status string, level float64) string {
	var style lipgloss.Style
	switch status {
	case "listening":
		style = listeningStyle
	case "speaking":
		style = speakingStyle
	default:
		style = neutralStyle
	}

	lit := int(level * meterWidth)
	if lit > meterWidth {
		lit = meterWidth
	}
	meter := meterStyle.Render(strings.Repeat("█", lit)) +
		meterDimStyle.Render(strings.Repeat("░", meterWidth-lit))

	return "\r\033[K" + style.Render(strings.ToUpper(status)) + "  " + meter
}
