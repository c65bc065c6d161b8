package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

func sub(id string, price string, day int, cat model.Category) model.Subscription {
	return model.Subscription{
		ID:         id,
		Name:       "sub " + id,
		Price:      decimal.RequireFromString(price),
		DayOfMonth: day,
		Category:   cat,
		Color:      cat.Color(),
	}
}

func on(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 14, 30, 0, 0, time.Local)
}

func TestSummarize(t *testing.T) {
	subs := []model.Subscription{
		sub("a", "15.49", 5, model.CategoryEntertainment),
		sub("b", "9.99", 12, model.CategoryEntertainment),
		sub("c", "0.01", 20, model.CategorySoftware),
	}
	s := Summarize(subs)
	if got := s.TotalMonthly.String(); got != "25.49" {
		t.Errorf("TotalMonthly = %s, want 25.49", got)
	}
	if !s.TotalYearly.Equal(s.TotalMonthly.Mul(decimal.NewFromInt(12))) {
		t.Errorf("TotalYearly = %s, want 12 x %s", s.TotalYearly, s.TotalMonthly)
	}
	if got := s.TotalYearly.String(); got != "305.88" {
		t.Errorf("TotalYearly = %s, want 305.88", got)
	}
	if s.ActiveCount != 3 || s.CategoryCount != 2 {
		t.Errorf("counts = %d/%d, want 3/2", s.ActiveCount, s.CategoryCount)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if !s.TotalMonthly.IsZero() || !s.TotalYearly.IsZero() || s.ActiveCount != 0 || s.CategoryCount != 0 {
		t.Errorf("Summarize(nil) = %+v, want zeros", s)
	}
}

func TestNextPayment_PicksSoonestAndBreaksTies(t *testing.T) {
	subs := []model.Subscription{
		sub("m", "1", 5, model.CategoryOther),
		sub("z", "1", 20, model.CategoryOther),
		sub("b", "1", 20, model.CategoryOther),
	}
	now := on(2026, time.October, 15)

	first, ok := NextPayment(subs, now)
	if !ok {
		t.Fatal("NextPayment ok = false, want true")
	}
	if first.Subscription.ID != "b" || first.DaysUntil != 5 {
		t.Errorf("NextPayment = %s in %d, want b in 5", first.Subscription.ID, first.DaysUntil)
	}

	reversed := []model.Subscription{subs[2], subs[1], subs[0]}
	for i := 0; i < 3; i++ {
		again, _ := NextPayment(reversed, now)
		if again.Subscription.ID != first.Subscription.ID {
			t.Fatalf("call %d picked %s, want %s", i, again.Subscription.ID, first.Subscription.ID)
		}
	}
}

func TestNextPayment_DueToday(t *testing.T) {
	subs := []model.Subscription{sub("a", "1", 15, model.CategoryOther), sub("b", "1", 16, model.CategoryOther)}
	up, _ := NextPayment(subs, on(2026, time.October, 15))
	if up.Subscription.ID != "a" || up.DaysUntil != 0 {
		t.Errorf("NextPayment = %s in %d, want a in 0", up.Subscription.ID, up.DaysUntil)
	}
}

func TestNextPayment_WrapsIntoNextMonth(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		days []int
		want int
	}{
		{"30-day month", on(2026, time.September, 28), []int{3}, 5},
		{"31-day month", on(2026, time.October, 28), []int{3}, 6},
		{"february", on(2026, time.February, 27), []int{10, 2}, 3},
		{"leap february", on(2028, time.February, 27), []int{2}, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var subs []model.Subscription
			for i, d := range tc.days {
				subs = append(subs, sub(string(rune('a'+i)), "1", d, model.CategoryOther))
			}
			up, ok := NextPayment(subs, tc.now)
			if !ok {
				t.Fatal("ok = false")
			}
			if up.DaysUntil != tc.want {
				t.Errorf("DaysUntil = %d, want %d", up.DaysUntil, tc.want)
			}
		})
	}
}

func TestNextPayment_Empty(t *testing.T) {
	if _, ok := NextPayment(nil, time.Now()); ok {
		t.Error("NextPayment(nil) ok = true, want false")
	}
}

func TestDaysIn(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2026, time.February, 28},
		{2028, time.February, 29},
		{2100, time.February, 28},
		{2026, time.April, 30},
		{2026, time.December, 31},
	}
	for _, tc := range cases {
		if got := DaysIn(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysIn(%d, %s) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestDueLabelAndProgress(t *testing.T) {
	labels := map[int]string{0: "Today", 1: "Tomorrow", 9: "in 9 days"}
	for d, want := range labels {
		if got := DueLabel(d); got != want {
			t.Errorf("DueLabel(%d) = %q, want %q", d, got, want)
		}
	}
	progress := map[int]int{0: 100, 10: 70, 30: 10, 31: 7, 40: 5}
	for d, want := range progress {
		if got := DueProgress(d); got != want {
			t.Errorf("DueProgress(%d) = %d, want %d", d, got, want)
		}
	}
}
