package cmd

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/cli"
	"github.com/theirongolddev/subtrack/internal/pipeline"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List subscriptions in entry order",
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	subs := e.repo.List()
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("SUBSCRIPTIONS  %d active", len(subs))))
	fmt.Println()
	if len(subs) == 0 {
		fmt.Print(emptyHint)
		return nil
	}

	rows := make([][]string, 0, len(subs)+2)
	for _, s := range subs {
		rows = append(rows, []string{
			cli.ShortID(s.ID),
			s.Name,
			s.Category.String(),
			cli.FormatOrdinal(s.DayOfMonth),
			cli.FormatPrice(s.Price),
		})
	}
	rows = append(rows, []string{"---"}, []string{"", "Total", "", "", cli.FormatPrice(pipeline.TotalMonthly(subs))})

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Category", "Day", "Monthly"},
		Rows:    rows,
	}))
	return nil
}
