package cmd

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/cli"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var flagRmYes bool

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a subscription by id or id prefix",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&flagRmYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.Close()

	sub, err := e.repo.Resolve(args[0])
	if err != nil {
		return err
	}
	pending, err := e.repo.RequestDelete(sub.ID)
	if err != nil {
		return err
	}

	confirmed := flagRmYes
	if !confirmed {
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %s (%s/mo)?", sub.Name, cli.FormatPrice(sub.Price))).
			Affirmative("Delete").
			Negative("Keep").
			Value(&confirmed).
			Run()
		if err != nil {
			_ = e.repo.Cancel(pending.Token)
			return err
		}
	}

	if !confirmed {
		_ = e.repo.Cancel(pending.Token)
		fmt.Printf("  Kept %s\n", sub.Name)
		return nil
	}
	if err := e.repo.Confirm(cmd.Context(), pending.Token); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s (id %s)\n", sub.Name, cli.ShortID(sub.ID))
	return nil
}
