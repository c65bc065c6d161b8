package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagAddName     string
	flagAddPrice    string
	flagAddDay      string
	flagAddCategory string
	flagAddColor    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a subscription (interactive without flags)",
	Example: `  subtrack add
  subtrack add --name Netflix --price 15.49 --day 16 --category Entertainment`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&flagAddName, "name", "", "Subscription name")
	addCmd.Flags().StringVar(&flagAddPrice, "price", "", "Monthly price")
	addCmd.Flags().StringVar(&flagAddDay, "day", "1", "Day of month it is charged (1-31)")
	addCmd.Flags().StringVar(&flagAddCategory, "category", "Other", "Category")
	addCmd.Flags().StringVar(&flagAddColor, "color", "", "Display color as #RRGGBB (default: category color)")
	rootCmd.AddCommand(addCmd)
}

var addFlagNames = []string{"name", "price", "day", "category", "color"}

// addFlagsGiven reports whether any add-specific flag was set. Inherited
// flags such as --data-dir do not count.
func addFlagsGiven(cmd *cobra.Command) bool {
	for _, name := range addFlagNames {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func runAdd(cmd *cobra.Command, _ []string) error {
	vals := &tui.AddValues{
		Name:     flagAddName,
		Price:    flagAddPrice,
		Day:      flagAddDay,
		Category: flagAddCategory,
		Color:    flagAddColor,
	}

	if !addFlagsGiven(cmd) {
		vals = tui.NewAddValues()
		if err := tui.NewAddForm(vals).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("  Cancelled, nothing added.")
				return nil
			}
			return err
		}
	}

	draft, err := vals.Draft()
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	sub, err := e.repo.Add(cmd.Context(), draft)
	if err != nil {
		return err
	}
	fmt.Printf("  Added %s  %s/mo on the %s  (id %s)\n",
		sub.Name, cli.FormatPrice(sub.Price), cli.FormatOrdinal(sub.DayOfMonth), cli.ShortID(sub.ID))
	return nil
}
