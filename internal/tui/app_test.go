package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/advisor"
	"github.com/theirongolddev/subtrack/internal/ledger"
	"github.com/theirongolddev/subtrack/internal/logging"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/store"
	"github.com/theirongolddev/subtrack/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

type stubGenerator struct{ calls int }

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return `{"insights":[{"title":"Trim streaming","description":"Two video services overlap.","type":"saving"}]}`, nil
}

var fixedNow = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (App, *ledger.Repository, *stubGenerator) {
	t.Helper()
	n := 0
	repo := ledger.Open(context.Background(), store.NewMemory(), ledger.Options{
		Logger: logging.Discard(),
		NewID:  func() string { n++; return fmt.Sprintf("id-%02d", n) },
	})
	for _, d := range []model.Draft{
		model.NewDraft("Netflix", decimal.RequireFromString("15.49"), 16, model.CategoryEntertainment),
		model.NewDraft("Gym", decimal.RequireFromString("30"), 1, model.CategoryFitness),
	} {
		if _, err := repo.Add(context.Background(), d); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	gen := &stubGenerator{}
	app := NewApp(Options{
		Repo:    repo,
		Advisor: advisor.New(gen, logging.Discard()),
		Now:     func() time.Time { return fixedNow },
		Logger:  logging.Discard(),
	})
	m, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m.(App), repo, gen
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

// insightsFrom runs cmd and returns the InsightsMsg it produced, if any.
func insightsFrom(t *testing.T, cmd tea.Cmd) InsightsMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("cmd = nil, want an insights command")
	}
	switch msg := cmd().(type) {
	case InsightsMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if im, ok := c().(InsightsMsg); ok {
				return im
			}
		}
	}
	t.Fatal("command produced no InsightsMsg")
	return InsightsMsg{}
}

func TestTabKeys(t *testing.T) {
	a, _, _ := newTestApp(t)

	cases := []struct {
		key  string
		want int
	}{
		{"c", components.TabCalendar},
		{"s", components.TabSubscriptions},
		{"i", components.TabInsights},
		{"right", components.TabOverview},
		{"left", components.TabInsights},
		{"o", components.TabOverview},
	}
	for _, tc := range cases {
		a, _ = press(t, a, tc.key)
		if a.activeTab != tc.want {
			t.Errorf("after %q activeTab = %d, want %d", tc.key, a.activeTab, tc.want)
		}
	}
}

func TestMonthNavigation(t *testing.T) {
	a, _, _ := newTestApp(t)

	a, _ = press(t, a, "l", "l", "l")
	if want := (pipeline.MonthCursor{Year: 2027, Month: time.January}); a.cursor != want {
		t.Errorf("after 3×l cursor = %+v, want %+v", a.cursor, want)
	}
	a, _ = press(t, a, "h")
	if a.cursor.Month != time.December || a.cursor.Year != 2026 {
		t.Errorf("after h cursor = %+v, want December 2026", a.cursor)
	}
	a, _ = press(t, a, "t")
	if a.cursor != pipeline.CursorAt(fixedNow) {
		t.Errorf("after t cursor = %+v, want current month", a.cursor)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	a, repo, _ := newTestApp(t)

	a, _ = press(t, a, "s", "d")
	if a.pending == nil {
		t.Fatal("d did not start a delete")
	}
	if repo.Len() != 2 {
		t.Fatalf("Len = %d before confirm, want 2", repo.Len())
	}

	a, _ = press(t, a, "n")
	if a.pending != nil || repo.Len() != 2 {
		t.Errorf("n: pending=%v Len=%d, want nil and 2", a.pending, repo.Len())
	}

	a, _ = press(t, a, "j", "d", "y")
	if repo.Len() != 1 {
		t.Fatalf("Len = %d after confirm, want 1", repo.Len())
	}
	if left := repo.List(); left[0].ID != "id-01" {
		t.Errorf("confirmed delete removed the wrong subscription, left %s", left[0].ID)
	}
	if a.listCursor != 0 {
		t.Errorf("listCursor = %d, want clamped to 0", a.listCursor)
	}
}

func TestDeleteOnlyFromSubscriptionsTab(t *testing.T) {
	a, _, _ := newTestApp(t)
	a, _ = press(t, a, "d")
	if a.pending != nil {
		t.Error("d on the overview tab started a delete")
	}
}

func TestInsightsRefreshAndInvalidate(t *testing.T) {
	a, _, gen := newTestApp(t)

	a, cmd := press(t, a, "r")
	if a.activeTab != components.TabInsights {
		t.Errorf("activeTab = %d, want insights", a.activeTab)
	}
	if _, again := press(t, a, "r"); again != nil {
		t.Error("second r while in flight issued another request")
	}

	m, _ := a.Update(insightsFrom(t, cmd))
	a = m.(App)
	got, ok := a.tracker.Current()
	if !ok || len(got) != 1 || got[0].Type != model.InsightSaving {
		t.Fatalf("Current = %+v, %v", got, ok)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}

	a, _ = press(t, a, "s", "d", "y")
	if _, ok := a.tracker.Current(); ok {
		t.Error("insights survived a delete")
	}
}

func TestStaleInsightsDiscarded(t *testing.T) {
	a, _, _ := newTestApp(t)

	a, cmd := press(t, a, "r")
	msg := insightsFrom(t, cmd)

	a, _ = press(t, a, "s", "d", "y")
	m, _ := a.Update(msg)
	a = m.(App)
	if _, ok := a.tracker.Current(); ok {
		t.Error("result for the previous collection was kept")
	}
}

func TestAddFormOpensAndCancels(t *testing.T) {
	a, repo, _ := newTestApp(t)

	a, _ = press(t, a, "a")
	if a.addForm == nil {
		t.Fatal("a did not open the add form")
	}
	if !strings.Contains(a.View(), "Name") {
		t.Error("add form view missing the Name field")
	}

	a, _ = press(t, a, "esc")
	if a.addForm != nil {
		t.Error("esc did not close the add form")
	}
	if repo.Len() != 2 {
		t.Errorf("Len = %d, want 2", repo.Len())
	}
}

func TestSaveDraftAddsAndInvalidates(t *testing.T) {
	a, repo, _ := newTestApp(t)
	tk, _ := a.tracker.Begin(repo.Version())
	a.tracker.Complete(tk, nil)

	a.addVals = &AddValues{Name: "Spotify", Price: "9.99", Day: "3", Category: "entertainment"}
	a.saveDraft()

	if repo.Len() != 3 {
		t.Fatalf("Len = %d, want 3", repo.Len())
	}
	if a.flash != "Added Spotify" {
		t.Errorf("flash = %q", a.flash)
	}
	if _, ok := a.tracker.Current(); ok {
		t.Error("insights survived an add")
	}

	a.addVals = &AddValues{Name: " ", Price: "1", Day: "1", Category: "Other"}
	a.saveDraft()
	if repo.Len() != 3 || !strings.HasPrefix(a.flash, "Not added") {
		t.Errorf("invalid draft: Len=%d flash=%q", repo.Len(), a.flash)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a, _, _ := newTestApp(t)

	wants := map[string][]string{
		"o": {"Monthly", "$45.49", "Next payment", "Netflix"},
		"c": {"October 2026", "Sun", "Charges this month"},
		"s": {"Subscriptions (2)", "Gym", "1st"},
		"i": {"Press r"},
	}
	for key, want := range wants {
		a, _ = press(t, a, key)
		view := a.View()
		for _, w := range want {
			if !strings.Contains(view, w) {
				t.Errorf("tab %q view missing %q", key, w)
			}
		}
	}
}

func TestViewTooNarrow(t *testing.T) {
	a, _, _ := newTestApp(t)
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	if !strings.Contains(m.View(), "too narrow") {
		t.Error("narrow terminal did not show the width notice")
	}
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 0
		for i, tab := range components.Tabs {
			w := components.TabVisualWidth(tab, i == active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + 1
		}
		if got := a.tabAtX(pos + 50); got != -1 {
			t.Errorf("click past the last tab = %d, want -1", got)
		}
	}
}
