package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

func TestByCategory_SumsAndKeepsFirstColor(t *testing.T) {
	first := sub("a", "9.99", 3, model.CategoryEntertainment)
	first.Color = "#111111"
	second := sub("b", "15.00", 9, model.CategoryEntertainment)
	second.Color = "#222222"
	other := sub("c", "5", 1, model.CategoryFitness)
	other.Color = ""

	got := ByCategory([]model.Subscription{first, other, second})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	ent := got[0]
	if ent.Category != model.CategoryEntertainment || ent.Total.String() != "24.99" || ent.Color != "#111111" || ent.Count != 2 {
		t.Errorf("entertainment = %+v, want 24.99 #111111 x2", ent)
	}
	if got[1].Category != model.CategoryFitness || got[1].Color != model.DefaultColor {
		t.Errorf("fitness = %+v, want default color", got[1])
	}
}

func TestByCategory_Empty(t *testing.T) {
	if got := ByCategory(nil); len(got) != 0 {
		t.Errorf("ByCategory(nil) = %+v, want empty", got)
	}
}

func TestTimeline_StableByDayWithoutMutating(t *testing.T) {
	subs := []model.Subscription{
		sub("a", "1", 20, model.CategoryOther),
		sub("b", "2", 5, model.CategoryOther),
		sub("c", "3", 20, model.CategoryOther),
		sub("d", "4", 5, model.CategoryOther),
	}
	points := Timeline(subs)

	wantNames := []string{"sub b", "sub d", "sub a", "sub c"}
	if len(points) != len(wantNames) {
		t.Fatalf("len = %d, want %d", len(points), len(wantNames))
	}
	for i, p := range points {
		if p.Name != wantNames[i] {
			t.Errorf("point %d = %s, want %s", i, p.Name, wantNames[i])
		}
	}
	if subs[0].ID != "a" || subs[1].ID != "b" {
		t.Error("Timeline reordered its input")
	}
}

func TestCategoryShare(t *testing.T) {
	got := CategoryShare(decimal.NewFromInt(1), decimal.NewFromInt(4))
	if math.Abs(got-25) > 1e-9 {
		t.Errorf("CategoryShare(1, 4) = %v, want 25", got)
	}
	if got := CategoryShare(decimal.NewFromInt(1), decimal.Zero); got != 0 {
		t.Errorf("CategoryShare(1, 0) = %v, want 0", got)
	}
}
