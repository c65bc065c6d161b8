package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderSubscriptionsTab(subs []model.Subscription, cw, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	if len(subs) == 0 {
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		return components.ContentCard("Subscriptions", muted.Render("Nothing tracked yet. Press a to add a subscription."), cw)
	}

	const badgeW, catW, dayW, priceW, idW = 4, 14, 6, 11, 10
	showID := !a.isCompactLayout()
	nameW := inner - badgeW - catW - dayW - priceW
	if showID {
		nameW -= idW
	}
	nameW = max(nameW, 8)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	row := func(badge, name, cat, day, price, id string) string {
		s := fmt.Sprintf("%-*s%-*s%-*s%*s%*s", badgeW, badge, nameW, name, catW, cat, dayW, day, priceW, price)
		if showID {
			s += fmt.Sprintf("  %-*s", idW-2, id)
		}
		return s
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render(row("", "Name", "Category", "Day", "Price", "ID")))
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render(strings.Repeat("─", inner)))

	// Rows visible inside the card: border, title, header and rule take 5.
	visible := max(h-5, 1)
	cursor := min(a.listCursor, len(subs)-1)
	offset := 0
	if cursor >= visible {
		offset = cursor - visible + 1
	}

	for i := offset; i < len(subs) && i < offset+visible; i++ {
		s := subs[i]
		bg := t.Surface
		if i == cursor {
			bg = t.SurfaceHover
		}
		if a.pending != nil && a.pending.Subscription.ID == s.ID {
			bg = t.Danger
		}
		text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg)
		badge := lipgloss.NewStyle().Foreground(lipgloss.Color(s.DisplayColor())).Background(bg).Bold(true)

		line := row("", truncStr(s.Name, nameW-1), s.Category.String(), cli.FormatOrdinal(s.DayOfMonth),
			cli.FormatPrice(s.Price), cli.ShortID(s.ID))
		body.WriteString("\n")
		body.WriteString(badge.Render(fmt.Sprintf("%-*s", badgeW, s.Initials())))
		body.WriteString(text.Render(line[badgeW:]))
	}

	title := fmt.Sprintf("Subscriptions (%d)", len(subs))
	if len(subs) > visible {
		title += fmt.Sprintf(" · %d-%d", offset+1, min(offset+visible, len(subs)))
	}
	return components.ContentCard(title, body.String(), cw)
}
