package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/theirongolddev/subtrack/internal/cli"

	"github.com/spf13/cobra"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Ask the AI advisor for saving tips and spending observations",
	RunE:  runInsights,
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	e, err := openEnv(ctx, false)
	if err != nil {
		return err
	}
	defer e.Close()

	adv := e.advisor()
	subs := e.repo.List()
	if adv.Configured() && len(subs) > 0 {
		progress("  Analyzing %d subscriptions...\n", len(subs))
	}

	insights := adv.Analyze(ctx, subs)
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("INSIGHTS"))
	fmt.Println()
	for _, in := range insights {
		fmt.Println(cli.RenderInsight(in))
	}
	return nil
}
