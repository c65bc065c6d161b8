package components

import (
	"strings"

	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints on the left, an
// optional flash message in the middle, info on the right.
func RenderStatusBar(width int, hints, flash, info string) string {
	t := theme.Active

	hintStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	flashStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	fill := lipgloss.NewStyle().Background(t.Surface)

	left := hintStyle.Render(" " + hints)
	right := infoStyle.Render(info + " ")
	mid := ""
	if flash != "" {
		mid = flashStyle.Render("  " + flash)
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(mid) - lipgloss.Width(right)
	if gap < 0 {
		// Drop the hints before the flash when space runs out.
		left = ""
		gap = max(0, width-lipgloss.Width(mid)-lipgloss.Width(right))
	}
	return left + mid + fill.Render(strings.Repeat(" ", gap)) + right
}
