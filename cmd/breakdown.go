package cmd

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Spending by category and by day of month",
	RunE:  runBreakdown,
}

func init() {
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	subs := e.repo.List()
	fmt.Println()
	fmt.Println(cli.RenderTitle("BREAKDOWN"))
	fmt.Println()
	if len(subs) == 0 {
		fmt.Print(emptyHint)
		return nil
	}

	total := pipeline.TotalMonthly(subs)
	cats := pipeline.ByCategory(subs)

	var peak float64
	for _, c := range cats {
		f, _ := c.Total.Float64()
		peak = max(peak, f)
	}

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			c.Category.String(),
			cli.FormatNumber(int64(c.Count)),
			cli.FormatPrice(c.Total),
			cli.FormatPercent(pipeline.CategoryShare(c.Total, total)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By category",
		Headers: []string{"Category", "Subs", "Monthly", "Share"},
		Rows:    rows,
	}))
	fmt.Println()

	const barWidth = 30
	for _, c := range cats {
		f, _ := c.Total.Float64()
		label := fmt.Sprintf("%-14s %9s", c.Category.String(), cli.FormatPrice(c.Total))
		fmt.Println(cli.RenderHorizontalBar(label, f, peak, barWidth, lipgloss.Color(c.Color)))
	}
	fmt.Println()

	points := pipeline.Timeline(subs)
	fmt.Printf("  Charges by day  1 %s 31\n", cli.RenderSparkline(cli.DailyLoad(points)))
	fmt.Println()

	trows := make([][]string, 0, len(points))
	for _, p := range points {
		trows = append(trows, []string{cli.FormatOrdinal(p.Day), p.Name, cli.FormatPrice(p.Amount)})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Timeline",
		Headers: []string{"Day", "Subscription", "Amount"},
		Rows:    trows,
	}))
	return nil
}
