package cmd

import (
	"fmt"

	"github.com/theirongolddev/subtrack/internal/advisor"
	"github.com/theirongolddev/subtrack/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.DataDir())
	fmt.Printf("    Database:       %s\n", cfg.DBPath())
	fmt.Printf("    Log level:      %s\n", cfg.General.LogLevel)
	fmt.Println()

	fmt.Println("  [Advisor]")
	key := config.GetAPIKey(cfg)
	if key != "" && !advisor.KeyLooksValid(key) {
		fmt.Printf("    API key:    %s (ignored: not an sk-ant- key)\n", config.MaskKey(key))
	} else {
		fmt.Printf("    API key:    %s\n", config.MaskKey(key))
	}
	fmt.Printf("    Model:      %s\n", cfg.Advisor.Model)
	fmt.Printf("    Max tokens: %d\n", cfg.Advisor.MaxTokens)
	fmt.Printf("    Timeout:    %s\n", cfg.AdvisorTimeout())
	if cfg.Advisor.BaseURL != "" {
		fmt.Printf("    Base URL:   %s\n", cfg.Advisor.BaseURL)
	}
	fmt.Println()

	fmt.Println("  [Budget]")
	if cfg.Budget.Monthly != nil {
		fmt.Printf("    Monthly budget: $%.2f\n", *cfg.Budget.Monthly)
	} else {
		fmt.Println("    Monthly budget: not set")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.DaemonInterval())
	fmt.Println()

	fmt.Println("  Run `subtrack setup` to reconfigure.")
	return nil
}
