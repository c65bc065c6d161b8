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

func (a App) renderCalendarTab(subs []model.Subscription, now time.Time, cw int) string {
	grid := a.cursor.Build(subs, now)

	if a.isCompactLayout() {
		return components.ContentCard(a.calendarTitle(grid), renderGrid(grid, components.CardInnerWidth(cw)), cw)
	}

	widths := []int{cw * 2 / 3, cw - cw*2/3}
	return components.CardRow([]string{
		components.ContentCard(a.calendarTitle(grid), renderGrid(grid, components.CardInnerWidth(widths[0])), widths[0]),
		components.ContentCard("Charges this month", renderCharges(grid, components.CardInnerWidth(widths[1])), widths[1]),
	})
}

func (a App) calendarTitle(g pipeline.MonthGrid) string {
	return fmt.Sprintf("%s · %s", a.cursor.Label(), cli.FormatPrice(g.Total()))
}

// renderGrid draws the month Sunday first. Each cell shows the day number,
// the day's total and the initials of its first subscription.
func renderGrid(g pipeline.MonthGrid, inner int) string {
	t := theme.Active
	cellW := max(inner/7, 5)

	surface := lipgloss.NewStyle().Background(t.Surface)
	header := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Bold(true)
	dayStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	chargedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	todayStyle := lipgloss.NewStyle().Foreground(t.Background).Background(t.Accent).Bold(true)
	amountStyle := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)

	cell := func(s string, style lipgloss.Style) string {
		return style.Render(s) + surface.Render(strings.Repeat(" ", max(0, cellW-lipgloss.Width(s))))
	}

	var b strings.Builder
	for d := 0; d < 7; d++ {
		b.WriteString(cell(cli.FormatDayOfWeek(d), header))
	}

	for _, week := range g.Weeks() {
		var days, amounts, names strings.Builder
		for _, c := range week {
			if c.Blank {
				for _, sb := range []*strings.Builder{&days, &amounts, &names} {
					sb.WriteString(surface.Render(strings.Repeat(" ", cellW)))
				}
				continue
			}

			num := fmt.Sprintf("%2d", c.Day)
			switch {
			case c.IsToday:
				days.WriteString(cell(num, todayStyle))
			case len(c.Subscriptions) > 0:
				days.WriteString(cell(num, chargedStyle))
			default:
				days.WriteString(cell(num, dayStyle))
			}

			if len(c.Subscriptions) == 0 {
				amounts.WriteString(cell("", surface))
				names.WriteString(cell("", surface))
				continue
			}
			amounts.WriteString(cell(truncStr(cli.FormatPriceShort(c.Total), cellW-1), amountStyle))

			first := c.Subscriptions[0]
			label := first.Initials()
			if extra := len(c.Subscriptions) - 1; extra > 0 {
				label += fmt.Sprintf("+%d", extra)
			}
			badge := lipgloss.NewStyle().Foreground(lipgloss.Color(first.DisplayColor())).Background(t.Surface)
			names.WriteString(cell(truncStr(label, cellW-1), badge))
		}
		b.WriteString("\n\n")
		b.WriteString(days.String())
		b.WriteString("\n")
		b.WriteString(amounts.String())
		b.WriteString("\n")
		b.WriteString(names.String())
	}
	return b.String()
}

func renderCharges(g pipeline.MonthGrid, inner int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	name := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	price := lipgloss.NewStyle().Foreground(t.Money).Background(t.Surface)

	const dayW, priceW = 6, 10
	nameW := max(inner-dayW-priceW, 6)

	var lines []string
	for _, c := range g.Cells {
		for _, s := range c.Subscriptions {
			lines = append(lines,
				muted.Render(fmt.Sprintf("%-*s", dayW, cli.FormatOrdinal(c.Day)))+
					name.Render(fmt.Sprintf("%-*s", nameW, truncStr(s.Name, nameW)))+
					price.Render(fmt.Sprintf("%*s", priceW, cli.FormatPrice(s.Price))))
		}
	}
	if len(lines) == 0 {
		return muted.Render("No charges this month.")
	}
	return strings.Join(lines, "\n")
}
