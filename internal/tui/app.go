// Package tui provides the interactive subscription dashboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/theirongolddev/subtrack/internal/advisor"
	"github.com/theirongolddev/subtrack/internal/ledger"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/pipeline"
	"github.com/theirongolddev/subtrack/internal/tui/components"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// InsightsMsg carries the result of an advisor run back to the model.
type InsightsMsg struct {
	Ticket   advisor.Ticket
	Insights []model.Insight
}

// Options configures NewApp.
type Options struct {
	Repo    *ledger.Repository
	Advisor *advisor.Advisor
	// Budget is the monthly limit. Zero hides the budget bar.
	Budget decimal.Decimal
	Now    func() time.Time
	Logger *slog.Logger
}

// App is the bubbletea model for the dashboard.
type App struct {
	repo    *ledger.Repository
	advisor *advisor.Advisor
	tracker *advisor.Tracker
	budget  decimal.Decimal
	now     func() time.Time
	log     *slog.Logger

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	flash     string

	cursor     pipeline.MonthCursor
	listCursor int

	// Two-step delete awaiting y/n
	pending *ledger.PendingDelete

	// Add form (huh). Values live behind a pointer because App is copied
	// on every Update.
	addForm *huh.Form
	addVals *AddValues

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	compactWidth     = 100
	maxContentWidth  = 160
	minContentHeight = 5
)

// NewApp creates the dashboard model.
func NewApp(opts Options) App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	adv := opts.Advisor
	if adv == nil {
		adv = advisor.New(nil, logger)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		repo:    opts.Repo,
		advisor: adv,
		tracker: &advisor.Tracker{},
		budget:  opts.Budget,
		now:     now,
		log:     logger.With("component", "tui"),
		cursor:  pipeline.CursorAt(now()),
		spinner: sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.EnableMouseCellMotion
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.addForm != nil {
			a.addForm = a.addForm.WithWidth(min(msg.Width, 60))
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.addForm != nil {
			return a.updateAddForm(msg)
		}
		if a.pending != nil {
			return a.updateDeleteConfirm(msg)
		}
		return a.updateKeys(msg)

	case tea.MouseMsg:
		if a.addForm != nil || a.showHelp {
			return a, nil
		}
		return a.updateMouse(msg)

	case InsightsMsg:
		if !a.tracker.Complete(msg.Ticket, msg.Insights) {
			a.log.Debug("discarded stale insights", "seq", msg.Ticket.Seq, "version", msg.Ticket.Version)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.tracker.Busy() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	// Cursor blinks and other form-internal messages.
	if a.addForm != nil {
		return a.updateAddForm(msg)
	}
	return a, nil
}

func (a App) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showHelp {
		a.showHelp = false
		return a, nil
	}
	a.flash = ""

	switch key {
	case "?":
		a.showHelp = true
	case "q":
		return a, tea.Quit
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "h":
		a.cursor = a.cursor.Prev()
	case "l":
		a.cursor = a.cursor.Next()
	case "t":
		a.cursor = a.cursor.Today(a.now())
	case "j", "down":
		if a.listCursor < a.repo.Len()-1 {
			a.listCursor++
		}
	case "k", "up":
		if a.listCursor > 0 {
			a.listCursor--
		}
	case "a":
		return a.openAddForm()
	case "d":
		return a.requestDelete()
	case "r":
		return a.requestInsights()
	default:
		if len(msg.Runes) == 1 {
			if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == components.TabSubscriptions && a.listCursor > 0 {
			a.listCursor--
		}
	case tea.MouseButtonWheelDown:
		if a.activeTab == components.TabSubscriptions && a.listCursor < a.repo.Len()-1 {
			a.listCursor++
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// ─── Mutations ──────────────────────────────────────────────────

func (a App) openAddForm() (tea.Model, tea.Cmd) {
	a.addVals = NewAddValues()
	a.addForm = NewAddForm(a.addVals)
	if a.width > 0 {
		a.addForm = a.addForm.WithWidth(min(a.width, 60))
	}
	return a, a.addForm.Init()
}

func (a App) updateAddForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		a.addForm, a.addVals = nil, nil
		a.flash = "Add cancelled"
		return a, nil
	}

	form, cmd := a.addForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.addForm = f
	}

	switch a.addForm.State {
	case huh.StateCompleted:
		a.saveDraft()
		a.addForm, a.addVals = nil, nil
		return a, nil
	case huh.StateAborted:
		a.addForm, a.addVals = nil, nil
		return a, nil
	}
	return a, cmd
}

func (a *App) saveDraft() {
	d, err := a.addVals.Draft()
	if err == nil {
		var sub model.Subscription
		sub, err = a.repo.Add(context.Background(), d)
		if err == nil {
			a.flash = "Added " + sub.Name
			a.listCursor = a.repo.Len() - 1
			a.afterMutation()
			return
		}
	}
	a.log.Warn("add subscription failed", "error", err)
	a.flash = "Not added: " + err.Error()
}

func (a App) requestDelete() (tea.Model, tea.Cmd) {
	subs := a.repo.List()
	if a.activeTab != components.TabSubscriptions || len(subs) == 0 {
		return a, nil
	}
	sel := subs[min(a.listCursor, len(subs)-1)]
	pd, err := a.repo.RequestDelete(sel.ID)
	if err != nil {
		a.flash = err.Error()
		return a, nil
	}
	a.pending = &pd
	return a, nil
}

func (a App) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pd := *a.pending
	switch msg.String() {
	case "y", "Y", "enter":
		a.pending = nil
		if err := a.repo.Confirm(context.Background(), pd.Token); err != nil {
			a.log.Warn("delete failed", "id", pd.Subscription.ID, "error", err)
			a.flash = "Delete failed: " + err.Error()
			return a, nil
		}
		a.flash = "Removed " + pd.Subscription.Name
		a.afterMutation()
	case "n", "N", "esc":
		a.pending = nil
		if err := a.repo.Cancel(pd.Token); err != nil && !errors.Is(err, ledger.ErrTokenUsed) {
			a.log.Warn("cancel delete failed", "error", err)
		}
		a.flash = "Kept " + pd.Subscription.Name
	}
	return a, nil
}

// afterMutation drops insights that no longer describe the collection.
func (a *App) afterMutation() {
	a.tracker.Invalidate(a.repo.Version())
	if n := a.repo.Len(); a.listCursor >= n {
		a.listCursor = max(0, n-1)
	}
}

func (a App) requestInsights() (tea.Model, tea.Cmd) {
	a.activeTab = components.TabInsights
	tk, ok := a.tracker.Begin(a.repo.Version())
	if !ok {
		return a, nil
	}
	return a, tea.Batch(insightsCmd(a.advisor, tk, a.repo.List()), a.spinner.Tick)
}

func insightsCmd(adv *advisor.Advisor, tk advisor.Ticket, subs []model.Subscription) tea.Cmd {
	return func() tea.Msg {
		return InsightsMsg{Ticket: tk, Insights: adv.Analyze(context.Background(), subs)}
	}
}

// ─── Views ──────────────────────────────────────────────────────

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.addForm != nil {
		return a.viewAddForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  subtrack needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewAddForm() string {
	t := theme.Active
	body := components.FocusCard("New subscription", a.addForm.View(), min(a.width, 64))
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Render("Esc to cancel")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		body+"\n"+hint, lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o c s i", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"h l", "Previous / Next month"},
			{"t", "Back to this month"},
			{"j k", "Move in the list"},
		}},
		{"Actions", [][2]string{
			{"a", "Add a subscription"},
			{"d", "Delete the selected one"},
			{"r", "Refresh insights"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
		cardStyle.Render(b.String()), lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	subs := a.repo.List()
	now := a.now()

	// 1. Header: tab bar plus the month being viewed
	monthStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	month := dimStyle.Render(" ‹h ") + monthStyle.Render(a.cursor.Label()) + dimStyle.Render(" l› ")
	if a.cursor != pipeline.CursorAt(now) {
		month += dimStyle.Render("[t]oday ")
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(month)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.statusHints(), a.statusFlash(), a.statusInfo(len(subs)))

	// 3. Content zone
	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case components.TabOverview:
		content = a.renderOverviewTab(subs, now, cw)
	case components.TabCalendar:
		content = a.renderCalendarTab(subs, now, cw)
	case components.TabSubscriptions:
		content = a.renderSubscriptionsTab(subs, cw, contentH)
	case components.TabInsights:
		content = a.renderInsightsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	if a.pending != nil {
		return "[y]es  [n]o"
	}
	if a.isCompactLayout() {
		return "[a]dd [d]el [r]efresh [?]help [q]uit"
	}
	return "[a]dd  [d]elete  [r]efresh insights  [?]help  [q]uit"
}

func (a App) statusFlash() string {
	if a.pending != nil {
		return fmt.Sprintf("Delete %s?", a.pending.Subscription.Name)
	}
	return a.flash
}

func (a App) statusInfo(n int) string {
	info := fmt.Sprintf("%d subscriptions", n)
	if n == 1 {
		info = "1 subscription"
	}
	if a.tracker.Busy() {
		info = a.spinner.View() + " analyzing · " + info
	}
	return info
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX maps a click column in the tab bar to a tab index, or -1.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}

func truncStr(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 1 {
		return string(r[:limit])
	}
	return string(r[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
