package components

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// ColorForPct returns green/yellow/orange/red based on a 0..1 fill level.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct >= 1:
		return t.Danger
	case pct >= 0.8:
		return t.Warning
	default:
		return t.Saving
	}
}

func bar(color lipgloss.Color, width int) progress.Model {
	p := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(max(width, 4)),
		progress.WithoutPercentage(),
	)
	p.EmptyColor = string(theme.Active.TextDim)
	return p
}

// DueBar renders the next-payment urgency bar. It fills as the charge day
// approaches.
func DueBar(daysUntil, width int) string {
	t := theme.Active
	color := t.DueColor(daysUntil)
	pct := float64(pipeline.DueProgress(daysUntil)) / 100

	label := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	text := pipeline.DueLabel(daysUntil)
	barW := width - lipgloss.Width(text) - 1
	return bar(color, barW).ViewAs(pct) + space + label.Render(text)
}

// BudgetBar renders monthly spend against limit. It returns "" when no
// limit is set.
func BudgetBar(spent, limit decimal.Decimal, width int) string {
	if !limit.IsPositive() {
		return ""
	}
	t := theme.Active

	pct, _ := spent.Div(limit).Float64()
	color := ColorForPct(pct)
	pctText := fmt.Sprintf("%3.0f%%", pct*100)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	space := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	barW := width - len(pctText) - 1
	return bar(color, barW).ViewAs(min(pct, 1)) + space + pctStyle.Render(pctText)
}
