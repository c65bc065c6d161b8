package tui

import (
	"strings"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

var insightMarkers = map[model.InsightType]string{
	model.InsightSaving:   "$",
	model.InsightWarning:  "!",
	model.InsightPositive: "+",
}

func (a App) renderInsightsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if a.tracker.Busy() {
		spin := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render(a.spinner.View())
		return components.FocusCard("Insights", spin+muted.Render(" Analyzing your subscriptions..."), cw)
	}

	insights, ok := a.tracker.Current()
	if !ok {
		hint := "Press r to analyze your subscriptions."
		if !a.advisor.Configured() {
			hint += "\nSet ANTHROPIC_API_KEY or run `subtrack setup` to enable AI insights."
		}
		return components.ContentCard("Insights", muted.Render(hint), cw)
	}

	inner := components.CardInnerWidth(cw)
	cards := make([]string, 0, len(insights))
	for _, in := range insights {
		color := t.InsightColor(in.Type)
		title := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
		desc := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner)

		body := title.Render(insightMarkers[in.Type]+" "+in.Title) + "\n" + desc.Render(in.Description)
		cards = append(cards, components.ContentCard(strings.ToUpper(string(in.Type)), body, cw))
	}
	return strings.Join(cards, "\n")
}
