package pipeline

import (
	"time"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

// DayCell is one square of the month grid. Blank cells pad the first week.
type DayCell struct {
	Blank         bool                 `json:"blank"`
	Day           int                  `json:"day,omitempty"`
	Subscriptions []model.Subscription `json:"subscriptions,omitempty"`
	Total         decimal.Decimal      `json:"total"`
	IsToday       bool                 `json:"isToday"`
}

// MonthGrid is a calendar month laid out Sunday first.
type MonthGrid struct {
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	LeadingBlanks int        `json:"leadingBlanks"`
	Cells         []DayCell  `json:"cells"`
}

// BuildMonth lays out month with each day's charges. A subscription billed
// on a day the month lacks (31 in a 30-day month) appears on no cell.
func BuildMonth(year int, month time.Month, subs []model.Subscription, now time.Time) MonthGrid {
	// Normalise out-of-range months the way time.Date does.
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), first.Month()

	lead := int(first.Weekday())
	days := DaysIn(year, month)
	g := MonthGrid{
		Year:          year,
		Month:         month,
		LeadingBlanks: lead,
		Cells:         make([]DayCell, lead+days),
	}
	for i := 0; i < lead; i++ {
		g.Cells[i] = DayCell{Blank: true, Total: decimal.Zero}
	}

	byDay := make(map[int][]model.Subscription)
	for _, s := range subs {
		byDay[s.DayOfMonth] = append(byDay[s.DayOfMonth], s)
	}

	ny, nm, nd := now.Date()
	for d := 1; d <= days; d++ {
		hits := byDay[d]
		g.Cells[lead+d-1] = DayCell{
			Day:           d,
			Subscriptions: hits,
			Total:         TotalMonthly(hits),
			IsToday:       ny == year && nm == month && nd == d,
		}
	}
	return g
}

// BuildMonthIndex is BuildMonth with a zero-based month (0 = January).
func BuildMonthIndex(year, monthIndex int, subs []model.Subscription, now time.Time) MonthGrid {
	return BuildMonth(year, time.Month(monthIndex+1), subs, now)
}

// Weeks splits the grid into rows of seven, padding the last row with
// trailing blanks. Cells is left untouched.
func (g MonthGrid) Weeks() [][]DayCell {
	var weeks [][]DayCell
	for i := 0; i < len(g.Cells); i += 7 {
		row := make([]DayCell, 7)
		n := copy(row, g.Cells[i:min(i+7, len(g.Cells))])
		for j := n; j < 7; j++ {
			row[j] = DayCell{Blank: true, Total: decimal.Zero}
		}
		weeks = append(weeks, row)
	}
	return weeks
}

// Total sums every charge in the month.
func (g MonthGrid) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range g.Cells {
		total = total.Add(c.Total)
	}
	return total
}

// MonthCursor is the month being viewed. It has no bounds.
type MonthCursor struct {
	Year  int
	Month time.Month
}

// CursorAt returns the cursor for now's month.
func CursorAt(now time.Time) MonthCursor {
	return MonthCursor{Year: now.Year(), Month: now.Month()}
}

// Next moves one month forward, rolling December into January.
func (c MonthCursor) Next() MonthCursor {
	if c.Month == time.December {
		return MonthCursor{Year: c.Year + 1, Month: time.January}
	}
	return MonthCursor{Year: c.Year, Month: c.Month + 1}
}

// Prev moves one month back, rolling January into December.
func (c MonthCursor) Prev() MonthCursor {
	if c.Month == time.January {
		return MonthCursor{Year: c.Year - 1, Month: time.December}
	}
	return MonthCursor{Year: c.Year, Month: c.Month - 1}
}

// Shift moves n months; negative n moves back.
func (c MonthCursor) Shift(n int) MonthCursor {
	total := c.Year*12 + int(c.Month-1) + n
	y, m := total/12, total%12
	if m < 0 {
		y, m = y-1, m+12
	}
	return MonthCursor{Year: y, Month: time.Month(m + 1)}
}

// Today resets the cursor to now's month.
func (c MonthCursor) Today(now time.Time) MonthCursor {
	return CursorAt(now)
}

// Label renders the cursor as "October 2026".
func (c MonthCursor) Label() string {
	return time.Date(c.Year, c.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// Build lays out the cursor's month.
func (c MonthCursor) Build(subs []model.Subscription, now time.Time) MonthGrid {
	return BuildMonth(c.Year, c.Month, subs, now)
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (MonthCursor, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthCursor{}, err
	}
	return MonthCursor{Year: t.Year(), Month: t.Month()}, nil
}
