package cli

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	mutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	priceStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(ColorOrange)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	todayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)
)

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	width := 55
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

func separator(left, mid, right string, widths []int) string {
	var b strings.Builder
	b.WriteString(dimStyle.Render(left))
	for i, w := range widths {
		b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		if i < len(widths)-1 {
			b.WriteString(dimStyle.Render(mid))
		}
	}
	b.WriteString(dimStyle.Render(right))
	b.WriteString("\n")
	return b.String()
}

func pad(s string, w int, right bool) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// RenderTable renders a bordered table with headers and rows. A row holding
// the single cell "---" draws a separator.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	numCols := len(t.Headers)
	if numCols == 0 && len(t.Rows) > 0 {
		numCols = len(t.Rows[0])
	}

	widths := make([]int, numCols)
	if t.Widths != nil {
		copy(widths, t.Widths)
	} else {
		for i, h := range t.Headers {
			widths[i] = max(widths[i], lipgloss.Width(h))
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < numCols {
					widths[i] = max(widths[i], lipgloss.Width(cell))
				}
			}
		}
	}

	var b strings.Builder

	if t.Title != "" {
		b.WriteString("  ")
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(separator("╭", "┬", "╮", widths))

	if len(t.Headers) > 0 {
		b.WriteString(dimStyle.Render("│"))
		for i, h := range t.Headers {
			b.WriteString(headerStyle.Render(" " + pad(h, widths[i], false) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
		b.WriteString(separator("├", "┼", "┤", widths))
	}

	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == "---" {
			b.WriteString(separator("├", "┼", "┤", widths))
			continue
		}

		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			// Right-align every column but the first.
			b.WriteString(valueStyle.Render(" " + pad(cell, widths[i], i > 0) + " "))
			if i < numCols-1 {
				b.WriteString(dimStyle.Render("│"))
			}
		}
		b.WriteString(dimStyle.Render("│"))
		b.WriteString("\n")
	}

	b.WriteString(separator("╰", "┴", "╯", widths))
	return b.String()
}

// RenderBudgetBar renders spend against a monthly limit. Over-budget bars
// turn red.
func RenderBudgetBar(spent, limit decimal.Decimal, width int) string {
	if !limit.IsPositive() {
		return ""
	}

	pct, _ := spent.Div(limit).Float64()
	filled := int(min(pct, 1) * float64(width))

	style := priceStyle
	switch {
	case pct > 1:
		style = lipgloss.NewStyle().Foreground(ColorRed)
	case pct > 0.8:
		style = warnStyle
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s of %s (%s)",
		style.Render(bar),
		FormatPrice(spent),
		FormatPrice(limit),
		FormatPercent(pct*100),
	)
}

// RenderSparkline generates a unicode block sparkline from a series of values.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	peak := values[0]
	for _, v := range values[1:] {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int(v / peak * float64(len(blocks)-1))
		idx = max(0, min(idx, len(blocks)-1))
		b.WriteRune(blocks[idx])
	}

	return b.String()
}

// DailyLoad returns the amount charged on each day 1..31, for sparklines.
func DailyLoad(points []pipeline.TimelinePoint) []float64 {
	load := make([]float64, 31)
	for _, p := range points {
		if p.Day >= 1 && p.Day <= 31 {
			f, _ := p.Amount.Float64()
			load[p.Day-1] += f
		}
	}
	return load
}

// RenderHorizontalBar renders a labelled horizontal bar chart entry.
func RenderHorizontalBar(label string, value, maxValue float64, maxWidth int, color lipgloss.Color) string {
	if maxValue <= 0 {
		return fmt.Sprintf("  %s", label)
	}
	barLen := max(0, int(value/maxValue*float64(maxWidth)))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", barLen))
	return fmt.Sprintf("  %s %s", label, bar)
}

// RenderCalendar draws a month grid, Sunday first, marking charge days with
// their total and today with brackets.
func RenderCalendar(g pipeline.MonthGrid) string {
	const cellWidth = 9

	var b strings.Builder
	label := pipeline.MonthCursor{Year: g.Year, Month: g.Month}.Label()
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(label))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(FormatPrice(g.Total()) + " this month"))
	b.WriteString("\n\n  ")
	for d := 0; d < 7; d++ {
		b.WriteString(mutedStyle.Render(pad(FormatDayOfWeek(d), cellWidth, false)))
	}
	b.WriteString("\n")

	for _, week := range g.Weeks() {
		// Day numbers, then amounts underneath.
		var days, amounts strings.Builder
		for _, c := range week {
			if c.Blank {
				days.WriteString(strings.Repeat(" ", cellWidth))
				amounts.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			num := fmt.Sprintf("%2d", c.Day)
			switch {
			case c.IsToday:
				num = todayStyle.Render("[" + num + "]")
			case len(c.Subscriptions) > 0:
				num = valueStyle.Render(" " + num)
			default:
				num = dimStyle.Render(" " + num)
			}
			days.WriteString(pad(num, cellWidth, false))

			amt := ""
			if len(c.Subscriptions) > 0 {
				amt = priceStyle.Render(FormatPriceShort(c.Total))
			}
			amounts.WriteString(pad(amt, cellWidth, false))
		}
		b.WriteString("  ")
		b.WriteString(strings.TrimRight(days.String(), " "))
		b.WriteString("\n  ")
		b.WriteString(strings.TrimRight(amounts.String(), " "))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderInsight renders one insight with a type marker.
func RenderInsight(in model.Insight) string {
	marker, style := "•", valueStyle
	switch in.Type {
	case model.InsightSaving:
		marker, style = "$", priceStyle
	case model.InsightWarning:
		marker, style = "!", warnStyle
	case model.InsightPositive:
		marker, style = "+", lipgloss.NewStyle().Foreground(ColorBlue)
	}
	return fmt.Sprintf("  %s %s\n    %s\n",
		style.Render(marker),
		style.Bold(true).Render(in.Title),
		mutedStyle.Render(in.Description),
	)
}
