package pipeline

import (
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"
)

func TestBuildMonth_WednesdayStart(t *testing.T) {
	// April 2026 starts on a Wednesday and has 30 days.
	g := BuildMonth(2026, time.April, nil, on(2026, time.October, 14))

	if g.LeadingBlanks != 3 {
		t.Fatalf("LeadingBlanks = %d, want 3", g.LeadingBlanks)
	}
	if len(g.Cells) != 33 {
		t.Fatalf("len(Cells) = %d, want 33", len(g.Cells))
	}
	for i := 0; i < 3; i++ {
		if !g.Cells[i].Blank {
			t.Errorf("cell %d Blank = false, want true", i)
		}
	}
	for i, c := range g.Cells[3:] {
		if c.Blank || c.Day != i+1 {
			t.Errorf("cell %d = %+v, want day %d", i+3, c, i+1)
		}
		if c.IsToday {
			t.Errorf("day %d IsToday = true in a month that is not now's", c.Day)
		}
	}
}

func TestBuildMonth_PlacesSubscriptions(t *testing.T) {
	subs := []model.Subscription{
		sub("a", "9.99", 14, model.CategoryEntertainment),
		sub("b", "15.00", 14, model.CategorySoftware),
		sub("c", "4", 31, model.CategoryOther),
		sub("d", "2", 1, model.CategoryOther),
	}
	now := on(2026, time.November, 14)
	g := BuildMonth(2026, time.November, subs, now)

	// November 2026 starts on a Sunday.
	if g.LeadingBlanks != 0 || len(g.Cells) != 30 {
		t.Fatalf("grid = %d blanks %d cells, want 0 and 30", g.LeadingBlanks, len(g.Cells))
	}
	day14 := g.Cells[13]
	if len(day14.Subscriptions) != 2 || day14.Subscriptions[0].ID != "a" || day14.Subscriptions[1].ID != "b" {
		t.Errorf("day 14 subscriptions = %+v, want [a b]", day14.Subscriptions)
	}
	if got := day14.Total.String(); got != "24.99" {
		t.Errorf("day 14 Total = %s, want 24.99", got)
	}
	if !day14.IsToday {
		t.Error("day 14 IsToday = false, want true")
	}
	if got := g.Total().String(); got != "26.99" {
		t.Errorf("month Total = %s, want 26.99 (day 31 never lands in November)", got)
	}
}

func TestBuildMonth_TodayNeedsExactDate(t *testing.T) {
	g := BuildMonth(2025, time.October, nil, on(2026, time.October, 14))
	for _, c := range g.Cells {
		if c.IsToday {
			t.Fatalf("day %d of Oct 2025 marked today for Oct 14 2026", c.Day)
		}
	}
}

func TestBuildMonthIndex_IsZeroBased(t *testing.T) {
	g := BuildMonthIndex(2026, 0, nil, time.Now())
	if g.Month != time.January || len(g.Cells)-g.LeadingBlanks != 31 {
		t.Errorf("BuildMonthIndex(0) = %s with %d days, want January with 31", g.Month, len(g.Cells)-g.LeadingBlanks)
	}
	g = BuildMonthIndex(2026, 12, nil, time.Now())
	if g.Year != 2027 || g.Month != time.January {
		t.Errorf("BuildMonthIndex(12) = %s %d, want January 2027", g.Month, g.Year)
	}
}

func TestWeeks_PadsTrailingRow(t *testing.T) {
	g := BuildMonth(2026, time.April, nil, time.Now())
	weeks := g.Weeks()
	if len(weeks) != 5 {
		t.Fatalf("len(Weeks) = %d, want 5", len(weeks))
	}
	last := weeks[4]
	if last[4].Day != 30 || !last[5].Blank || !last[6].Blank {
		t.Errorf("last week = %+v, want day 30 then two blanks", last)
	}
	if len(g.Cells) != 33 {
		t.Errorf("Weeks changed Cells to %d entries", len(g.Cells))
	}
}

func TestMonthCursor_RollsOver(t *testing.T) {
	c := MonthCursor{Year: 2026, Month: time.December}
	if got := c.Next(); got != (MonthCursor{Year: 2027, Month: time.January}) {
		t.Errorf("Dec 2026 Next = %+v, want Jan 2027", got)
	}
	c = MonthCursor{Year: 2026, Month: time.January}
	if got := c.Prev(); got != (MonthCursor{Year: 2025, Month: time.December}) {
		t.Errorf("Jan 2026 Prev = %+v, want Dec 2025", got)
	}
	if got := c.Shift(-13); got != (MonthCursor{Year: 2024, Month: time.December}) {
		t.Errorf("Shift(-13) = %+v, want Dec 2024", got)
	}
	if got := c.Shift(14); got != (MonthCursor{Year: 2027, Month: time.March}) {
		t.Errorf("Shift(14) = %+v, want Mar 2027", got)
	}
}

func TestMonthCursor_ShiftLargeOffsets(t *testing.T) {
	tests := []struct {
		from MonthCursor
		n    int
		want MonthCursor
	}{
		{MonthCursor{Year: 2026, Month: time.December}, 13, MonthCursor{Year: 2028, Month: time.January}},
		{MonthCursor{Year: 2026, Month: time.October}, 0, MonthCursor{Year: 2026, Month: time.October}},
		{MonthCursor{Year: 2026, Month: time.March}, -3, MonthCursor{Year: 2025, Month: time.December}},
		{MonthCursor{Year: 2026, Month: time.January}, -1_200_000_000, MonthCursor{Year: -99997974, Month: time.January}},
		{MonthCursor{Year: 2026, Month: time.January}, 1_200_000_000, MonthCursor{Year: 100002026, Month: time.January}},
	}
	for _, tt := range tests {
		if got := tt.from.Shift(tt.n); got != tt.want {
			t.Errorf("%+v.Shift(%d) = %+v, want %+v", tt.from, tt.n, got, tt.want)
		}
	}
}

func TestMonthCursor_TodayAndLabel(t *testing.T) {
	now := on(2026, time.October, 14)
	c := MonthCursor{Year: 1999, Month: time.March}.Today(now)
	if c.Label() != "October 2026" {
		t.Errorf("Label = %q, want October 2026", c.Label())
	}
}

func TestParseMonth(t *testing.T) {
	c, err := ParseMonth("2027-02")
	if err != nil {
		t.Fatal(err)
	}
	if c.Year != 2027 || c.Month != time.February {
		t.Errorf("ParseMonth = %+v, want Feb 2027", c)
	}
	if _, err := ParseMonth("02/2027"); err == nil {
		t.Error("ParseMonth(02/2027) = nil error, want error")
	}
}
