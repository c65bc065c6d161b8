package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// AddValues holds the raw input of the add form.
type AddValues struct {
	Name     string
	Price    string
	Day      string
	Category string
	Color    string
}

// NewAddValues returns form values with the default category selected.
func NewAddValues() *AddValues {
	return &AddValues{Day: "1", Category: string(model.CategoryOther)}
}

// Draft parses the form input. Parse failures and validation failures are
// reported the same way, as a *model.ValidationError where possible.
func (v *AddValues) Draft() (model.Draft, error) {
	price, err := parsePrice(v.Price)
	if err != nil {
		return model.Draft{}, err
	}
	day, err := parseDay(v.Day)
	if err != nil {
		return model.Draft{}, err
	}
	cat, err := model.ParseCategory(v.Category)
	if err != nil {
		return model.Draft{}, err
	}

	d := model.NewDraft(v.Name, price, day, cat)
	if c := strings.TrimSpace(v.Color); c != "" {
		d.Color = c
	}
	return d, d.Validate()
}

func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	p, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number", s)
	}
	if p.IsNegative() {
		return decimal.Zero, errors.New("price must not be negative")
	}
	return p, nil
}

func parseDay(s string) (int, error) {
	d, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || d < 1 || d > 31 {
		return 0, fmt.Errorf("day %q must be a number from 1 to 31", s)
	}
	return d, nil
}

// NewAddForm builds the huh form for a new subscription bound to v.
func NewAddForm(v *AddValues) *huh.Form {
	cats := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		cats[i] = huh.NewOption(c.String(), c.String())
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Netflix").
				Value(&v.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Monthly price").
				Placeholder("15.49").
				Value(&v.Price).
				Validate(func(s string) error {
					_, err := parsePrice(s)
					return err
				}),
			huh.NewInput().
				Title("Charged on day").
				Description("1-31").
				Value(&v.Day).
				Validate(func(s string) error {
					_, err := parseDay(s)
					return err
				}),
			huh.NewSelect[string]().
				Title("Category").
				Options(cats...).
				Value(&v.Category),
		),
	).WithShowHelp(true)
}

// SetupValues holds the answers of the setup wizard.
type SetupValues struct {
	APIKey  string
	Model   string
	Theme   string
	DataDir string
	Budget  string
}

// SetupValuesFrom seeds the wizard from an existing config. The API key is
// left blank so an empty answer keeps the stored key.
func SetupValuesFrom(cfg config.Config) *SetupValues {
	v := &SetupValues{
		Model:   cfg.Advisor.Model,
		Theme:   cfg.Appearance.Theme,
		DataDir: cfg.General.DataDir,
	}
	if cfg.Budget.Monthly != nil {
		v.Budget = strconv.FormatFloat(*cfg.Budget.Monthly, 'f', -1, 64)
	}
	return v
}

// Apply copies the answers into cfg.
func (v *SetupValues) Apply(cfg *config.Config) error {
	if key := strings.TrimSpace(v.APIKey); key != "" {
		cfg.Advisor.APIKey = key
	}
	if m := strings.TrimSpace(v.Model); m != "" {
		cfg.Advisor.Model = m
	}
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	cfg.General.DataDir = strings.TrimSpace(v.DataDir)

	b := strings.TrimSpace(v.Budget)
	if b == "" {
		cfg.Budget.Monthly = nil
		return nil
	}
	limit, err := strconv.ParseFloat(b, 64)
	if err != nil || limit < 0 {
		return fmt.Errorf("budget %q must be a non-negative number", b)
	}
	cfg.Budget.Monthly = &limit
	return nil
}

// NewSetupForm builds the first-run wizard bound to v.
func NewSetupForm(v *SetupValues, maskedKey string) *huh.Form {
	themes := make([]huh.Option[string], len(theme.All))
	for i, t := range theme.All {
		themes[i] = huh.NewOption(t.Name, t.Name)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to subtrack").
				Description("Track recurring payments and get budgeting tips.\nPress Enter to begin."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Anthropic API key").
				Description("Used for spending insights. Current: "+maskedKey+"\nLeave blank to keep it.").
				Placeholder("sk-ant-...").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIKey),
			huh.NewInput().
				Title("Model").
				Value(&v.Model),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Monthly budget").
				Description("Optional. Shown as a bar on the overview.").
				Placeholder("100").
				Value(&v.Budget),
			huh.NewInput().
				Title("Data directory").
				Description("Leave blank for the default location.").
				Value(&v.DataDir),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
		),
	).WithShowHelp(false)
}
