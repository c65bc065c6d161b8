// Package pipeline derives totals, calendars and breakdowns from a
// subscription snapshot. Nothing here holds state; every call recomputes.
package pipeline

import (
	"fmt"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Summary is the headline numbers shown on the overview.
type Summary struct {
	TotalMonthly  decimal.Decimal `json:"totalMonthly"`
	TotalYearly   decimal.Decimal `json:"totalYearly"`
	ActiveCount   int             `json:"activeCount"`
	CategoryCount int             `json:"categoryCount"`
}

// Upcoming is the projected next charge.
type Upcoming struct {
	Subscription model.Subscription `json:"subscription"`
	// DaysUntil is 0 when the charge is due today.
	DaysUntil int `json:"daysUntil"`
}

// Summarize computes totals and counts for subs.
func Summarize(subs []model.Subscription) Summary {
	s := Summary{
		TotalMonthly: TotalMonthly(subs),
		ActiveCount:  len(subs),
	}
	s.TotalYearly = s.TotalMonthly.Mul(twelve)

	seen := make(map[model.Category]struct{})
	for _, sub := range subs {
		seen[sub.Category] = struct{}{}
	}
	s.CategoryCount = len(seen)
	return s
}

// TotalMonthly sums all prices.
func TotalMonthly(subs []model.Subscription) decimal.Decimal {
	total := decimal.Zero
	for _, s := range subs {
		total = total.Add(s.Price)
	}
	return total
}

// NextPayment finds the subscription charged soonest on or after now's day
// of month, wrapping into next month when every day has already passed.
// Records sharing the chosen day resolve to the smallest id.
func NextPayment(subs []model.Subscription, now time.Time) (Upcoming, bool) {
	if len(subs) == 0 {
		return Upcoming{}, false
	}
	today := now.Day()

	var (
		best     model.Subscription
		found    bool
		earliest model.Subscription
	)
	for i, s := range subs {
		if i == 0 || before(s, earliest) {
			earliest = s
		}
		if s.DayOfMonth < today {
			continue
		}
		if !found || before(s, best) {
			best, found = s, true
		}
	}
	if !found {
		best = earliest
	}

	days := best.DayOfMonth - today
	if days < 0 {
		days += DaysIn(now.Year(), now.Month())
	}
	return Upcoming{Subscription: best, DaysUntil: days}, true
}

func before(a, b model.Subscription) bool {
	if a.DayOfMonth != b.DayOfMonth {
		return a.DayOfMonth < b.DayOfMonth
	}
	return a.ID < b.ID
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DueLabel renders a days-until count for display.
func DueLabel(daysUntil int) string {
	switch daysUntil {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	}
	return fmt.Sprintf("in %d days", daysUntil)
}

// DueProgress is the urgency bar fill, in percent. It never drops below 5.
func DueProgress(daysUntil int) int {
	return max(5, 100-3*daysUntil)
}
