package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagCalMonth  string
	flagCalOffset int
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Month grid of payment days",
	Example: `  subtrack calendar
  subtrack calendar --month 2026-12
  subtrack calendar --offset -1`,
	RunE: runCalendar,
}

func init() {
	calendarCmd.Flags().StringVar(&flagCalMonth, "month", "", "Month to show as YYYY-MM (default: current)")
	calendarCmd.Flags().IntVar(&flagCalOffset, "offset", 0, "Months forward (or back, if negative) from --month")
	rootCmd.AddCommand(calendarCmd)
}

func runCalendar(cmd *cobra.Command, _ []string) error {
	now := time.Now()
	cursor := pipeline.CursorAt(now)
	if flagCalMonth != "" {
		c, err := pipeline.ParseMonth(flagCalMonth)
		if err != nil {
			return err
		}
		cursor = c
	}
	cursor = cursor.Shift(flagCalOffset)

	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	grid := cursor.Build(e.repo.List(), now)
	fmt.Println()
	fmt.Print(cli.RenderCalendar(grid))

	var rows [][]string
	for _, c := range grid.Cells {
		for _, s := range c.Subscriptions {
			rows = append(rows, []string{cli.FormatOrdinal(c.Day), s.Name, cli.FormatPrice(s.Price)})
		}
	}
	if len(rows) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Day", "Subscription", "Amount"},
			Rows:    rows,
		}))
	}
	return nil
}
