// Package theme defines color themes for the subtrack dashboard.
package theme

import (
	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color roles used throughout the TUI.
type Theme struct {
	Name         string
	Background   lipgloss.Color // app background
	Surface      lipgloss.Color // card and panel fill
	SurfaceHover lipgloss.Color // selected row, active tab
	Border       lipgloss.Color
	BorderAccent lipgloss.Color // focused card, overlays
	TextDim      lipgloss.Color
	TextMuted    lipgloss.Color
	TextPrimary  lipgloss.Color
	Accent       lipgloss.Color
	AccentBright lipgloss.Color
	Saving       lipgloss.Color
	Warning      lipgloss.Color
	Positive     lipgloss.Color
	Danger       lipgloss.Color
	Money        lipgloss.Color
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default theme.
var FlexokiDark = Theme{
	Name:         "flexoki-dark",
	Background:   lipgloss.Color("#100F0F"),
	Surface:      lipgloss.Color("#1C1B1A"),
	SurfaceHover: lipgloss.Color("#282726"),
	Border:       lipgloss.Color("#403E3C"),
	BorderAccent: lipgloss.Color("#3AA99F"),
	TextDim:      lipgloss.Color("#575653"),
	TextMuted:    lipgloss.Color("#878580"),
	TextPrimary:  lipgloss.Color("#FFFCF0"),
	Accent:       lipgloss.Color("#3AA99F"),
	AccentBright: lipgloss.Color("#5BC8BE"),
	Saving:       lipgloss.Color("#879A39"),
	Warning:      lipgloss.Color("#DA702C"),
	Positive:     lipgloss.Color("#4385BE"),
	Danger:       lipgloss.Color("#D14D41"),
	Money:        lipgloss.Color("#A3B859"),
}

// FlexokiLight is the paper-colored variant for light terminals.
var FlexokiLight = Theme{
	Name:         "flexoki-light",
	Background:   lipgloss.Color("#FFFCF0"),
	Surface:      lipgloss.Color("#F2F0E5"),
	SurfaceHover: lipgloss.Color("#E6E4D9"),
	Border:       lipgloss.Color("#CECDC3"),
	BorderAccent: lipgloss.Color("#24837B"),
	TextDim:      lipgloss.Color("#B7B5AC"),
	TextMuted:    lipgloss.Color("#6F6E69"),
	TextPrimary:  lipgloss.Color("#100F0F"),
	Accent:       lipgloss.Color("#24837B"),
	AccentBright: lipgloss.Color("#1C6C66"),
	Saving:       lipgloss.Color("#66800B"),
	Warning:      lipgloss.Color("#BC5215"),
	Positive:     lipgloss.Color("#205EA6"),
	Danger:       lipgloss.Color("#AF3029"),
	Money:        lipgloss.Color("#66800B"),
}

// TokyoNight is a cool blue/purple theme.
var TokyoNight = Theme{
	Name:         "tokyo-night",
	Background:   lipgloss.Color("#1A1B26"),
	Surface:      lipgloss.Color("#24283B"),
	SurfaceHover: lipgloss.Color("#343A52"),
	Border:       lipgloss.Color("#565F89"),
	BorderAccent: lipgloss.Color("#7AA2F7"),
	TextDim:      lipgloss.Color("#565F89"),
	TextMuted:    lipgloss.Color("#A9B1D6"),
	TextPrimary:  lipgloss.Color("#C0CAF5"),
	Accent:       lipgloss.Color("#7AA2F7"),
	AccentBright: lipgloss.Color("#A9C1FF"),
	Saving:       lipgloss.Color("#9ECE6A"),
	Warning:      lipgloss.Color("#FF9E64"),
	Positive:     lipgloss.Color("#7DCFFF"),
	Danger:       lipgloss.Color("#F7768E"),
	Money:        lipgloss.Color("#B9E87A"),
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:         "terminal",
	Background:   lipgloss.Color("0"),
	Surface:      lipgloss.Color("0"),
	SurfaceHover: lipgloss.Color("8"),
	Border:       lipgloss.Color("8"),
	BorderAccent: lipgloss.Color("6"),
	TextDim:      lipgloss.Color("8"),
	TextMuted:    lipgloss.Color("7"),
	TextPrimary:  lipgloss.Color("15"),
	Accent:       lipgloss.Color("6"),
	AccentBright: lipgloss.Color("14"),
	Saving:       lipgloss.Color("2"),
	Warning:      lipgloss.Color("3"),
	Positive:     lipgloss.Color("4"),
	Danger:       lipgloss.Color("1"),
	Money:        lipgloss.Color("10"),
}

// All available themes.
var All = []Theme{FlexokiDark, FlexokiLight, TokyoNight, Terminal}

// Names returns the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// ByName returns a theme by its name, defaulting to FlexokiDark.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive sets the active theme by name.
func SetActive(name string) {
	Active = ByName(name)
}

// InsightColor maps an insight type to its accent.
func (t Theme) InsightColor(kind model.InsightType) lipgloss.Color {
	switch kind {
	case model.InsightSaving:
		return t.Saving
	case model.InsightWarning:
		return t.Warning
	case model.InsightPositive:
		return t.Positive
	}
	return t.TextMuted
}

// DueColor colors a countdown: red for today, orange within a week.
func (t Theme) DueColor(daysUntil int) lipgloss.Color {
	switch {
	case daysUntil <= 0:
		return t.Danger
	case daysUntil <= 7:
		return t.Warning
	}
	return t.Accent
}
