package cmd

import (
	"fmt"
	"time"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Monthly and yearly totals with the next payment",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	now := time.Now()
	subs := e.repo.List()

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUBSCRIPTIONS  " + pipeline.CursorAt(now).Label()))
	fmt.Println()

	if len(subs) == 0 {
		fmt.Print(emptyHint)
		return nil
	}

	sum := pipeline.Summarize(subs)
	rows := [][]string{
		{"Monthly", cli.FormatPrice(sum.TotalMonthly)},
		{"Yearly", cli.FormatPrice(sum.TotalYearly)},
		{"---"},
		{"Active", cli.FormatNumber(int64(sum.ActiveCount))},
		{"Categories", cli.FormatNumber(int64(sum.CategoryCount))},
	}
	if next, ok := pipeline.NextPayment(subs, now); ok {
		rows = append(rows, []string{"---"}, []string{"Next payment", fmt.Sprintf("%s %s on the %s (%s)",
			next.Subscription.Name,
			cli.FormatPrice(next.Subscription.Price),
			cli.FormatOrdinal(next.Subscription.DayOfMonth),
			pipeline.DueLabel(next.DaysUntil),
		)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	if limit := e.budget(); limit.IsPositive() {
		fmt.Println()
		fmt.Printf("  Budget  %s\n", cli.RenderBudgetBar(sum.TotalMonthly, limit, 30))
	}
	return nil
}
