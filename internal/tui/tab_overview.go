package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderOverviewTab(subs []model.Subscription, now time.Time, cw int) string {
	t := theme.Active
	sum := pipeline.Summarize(subs)
	var b strings.Builder

	// Row 1: metric cards
	next := components.Metric{Label: "Next payment", Value: "none", Delta: "nothing scheduled"}
	up, hasNext := pipeline.NextPayment(subs, now)
	if hasNext {
		next.Value = up.Subscription.Name
		next.Delta = cli.FormatPrice(up.Subscription.Price) + " " + pipeline.DueLabel(up.DaysUntil)
		next.Accent = t.DueColor(up.DaysUntil)
	}
	cats := fmt.Sprintf("%d categories", sum.CategoryCount)
	if sum.CategoryCount == 1 {
		cats = "1 category"
	}
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Monthly", Value: cli.FormatPrice(sum.TotalMonthly), Accent: t.Money},
		{Label: "Yearly", Value: cli.FormatPrice(sum.TotalYearly), Delta: "monthly × 12"},
		{Label: "Active", Value: fmt.Sprint(sum.ActiveCount), Delta: cats},
		next,
	}, cw))
	b.WriteString("\n")

	if len(subs) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		b.WriteString(components.ContentCard("Getting started",
			muted.Render("No subscriptions yet. Press a to add one."), cw))
		return b.String()
	}

	// Row 2: next payment urgency and budget
	halves := components.LayoutRow(cw, 2)
	dueBody := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(
		fmt.Sprintf("%s on the %s", up.Subscription.Name, cli.FormatOrdinal(up.Subscription.DayOfMonth)),
	) + "\n" + components.DueBar(up.DaysUntil, components.CardInnerWidth(halves[0]))
	dueCard := components.ContentCard("Due next", dueBody, halves[0])

	if bar := components.BudgetBar(sum.TotalMonthly, a.budget, components.CardInnerWidth(halves[1])); bar != "" {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		body := muted.Render(fmt.Sprintf("%s of %s", cli.FormatPrice(sum.TotalMonthly), cli.FormatPrice(a.budget))) +
			"\n" + bar
		b.WriteString(components.CardRow([]string{dueCard, components.ContentCard("Budget", body, halves[1])}))
	} else {
		b.WriteString(components.ContentCard("Due next", dueBody, cw))
	}
	b.WriteString("\n")

	// Row 3: category breakdown and daily charges
	chartH := 8
	if a.isCompactLayout() {
		b.WriteString(a.renderCategoryCard(subs, sum, cw))
		b.WriteString("\n")
		chartH = 5
		b.WriteString(a.renderDailyCard(subs, cw, chartH))
		return b.String()
	}
	b.WriteString(components.CardRow([]string{
		a.renderCategoryCard(subs, sum, halves[0]),
		a.renderDailyCard(subs, halves[1], chartH),
	}))
	return b.String()
}

func (a App) renderCategoryCard(subs []model.Subscription, sum pipeline.Summary, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	const nameW, priceW, shareW = 14, 10, 7
	barMax := max(inner-nameW-priceW-shareW-3, 4)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	priceStyle := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var body strings.Builder
	for i, ct := range pipeline.ByCategory(subs) {
		if i > 0 {
			body.WriteString("\n")
		}
		share := pipeline.CategoryShare(ct.Total, sum.TotalMonthly)
		filled := int(share / 100 * float64(barMax))
		barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ct.Color)).Background(t.Surface)

		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", nameW, truncStr(ct.Category.String(), nameW))))
		body.WriteString(space.Render(" "))
		body.WriteString(barStyle.Render(strings.Repeat("█", filled)))
		body.WriteString(space.Render(strings.Repeat(" ", barMax-filled+1)))
		body.WriteString(priceStyle.Render(fmt.Sprintf("%*s", priceW, cli.FormatPrice(ct.Total))))
		body.WriteString(mutedStyle.Render(fmt.Sprintf(" %*s", shareW-1, cli.FormatPercent(share))))
	}
	return components.ContentCard("By category", body.String(), w)
}

func (a App) renderDailyCard(subs []model.Subscription, w, h int) string {
	load := cli.DailyLoad(pipeline.Timeline(subs))
	chart := components.DayChart(load, theme.Active.Accent, components.CardInnerWidth(w), h)
	return components.ContentCard("Charges by day of month", chart, w)
}
