package pipeline

import (
	"sort"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the spend of one category.
type CategoryTotal struct {
	Category model.Category  `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Color    string          `json:"color"`
	Count    int             `json:"count"`
}

// TimelinePoint is one subscription placed on the day-of-month axis.
type TimelinePoint struct {
	Day    int             `json:"day"`
	Amount decimal.Decimal `json:"amount"`
	Name   string          `json:"name"`
}

// ByCategory groups spend by category in order of first appearance. The
// first member of a category decides its color.
func ByCategory(subs []model.Subscription) []CategoryTotal {
	idx := make(map[model.Category]int)
	var out []CategoryTotal
	for _, s := range subs {
		i, ok := idx[s.Category]
		if !ok {
			i = len(out)
			idx[s.Category] = i
			out = append(out, CategoryTotal{
				Category: s.Category,
				Total:    decimal.Zero,
				Color:    s.DisplayColor(),
			})
		}
		out[i].Total = out[i].Total.Add(s.Price)
		out[i].Count++
	}
	return out
}

// Timeline returns one point per subscription, ordered by day. Equal days
// keep their collection order. subs is not modified.
func Timeline(subs []model.Subscription) []TimelinePoint {
	points := make([]TimelinePoint, len(subs))
	for i, s := range subs {
		points[i] = TimelinePoint{Day: s.DayOfMonth, Amount: s.Price, Name: s.Name}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Day < points[j].Day
	})
	return points
}

// CategoryShare returns part as a percentage of total, 0 when total is zero.
func CategoryShare(part, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	f, _ := part.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	return f
}
