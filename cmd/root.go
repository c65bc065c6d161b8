// Package cmd implements the subtrack CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/theirongolddev/subtrack/internal/advisor"
	"github.com/theirongolddev/subtrack/internal/config"
	"github.com/theirongolddev/subtrack/internal/ledger"
	"github.com/theirongolddev/subtrack/internal/logging"
	"github.com/theirongolddev/subtrack/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagDataDir   string
	flagEphemeral bool
	flagQuiet     bool
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:          "subtrack",
	Short:        "Subscription expense tracker",
	Long:         "Track recurring subscriptions: monthly totals, payment calendar, category breakdown and AI insights.",
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Data directory (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagEphemeral, "ephemeral", false, "Keep subscriptions in memory only")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// env bundles what a command needs to work with the collection.
type env struct {
	cfg     config.Config
	repo    *ledger.Repository
	log     *slog.Logger
	closers []io.Closer
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i].Close()
	}
}

func (e *env) budget() decimal.Decimal {
	return budgetFrom(e.cfg)
}

func (e *env) advisor() *advisor.Advisor {
	return newAdvisor(e.cfg, e.log)
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if flagDataDir != "" {
		cfg.General.DataDir = flagDataDir
	}
	if flagLogLevel != "" {
		cfg.General.LogLevel = flagLogLevel
	}
	return cfg, nil
}

// openEnv loads config, sets up logging and opens the repository.
func openEnv(ctx context.Context, fullscreen bool) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, closer, err := setupLogging(cfg, fullscreen)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: logger, closers: []io.Closer{closer}}

	kv, err := openStore(cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	if c, ok := kv.(io.Closer); ok {
		e.closers = append(e.closers, c)
	}

	e.repo = ledger.Open(ctx, kv, ledger.Options{Logger: logger})
	return e, nil
}

// setupLogging writes to the data dir log file. Debug logs go to stderr
// unless a full-screen UI owns the terminal.
func setupLogging(cfg config.Config, fullscreen bool) (*slog.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(cfg.General.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	lc := logging.Config{Level: level}
	switch {
	case level == slog.LevelDebug && !fullscreen:
		lc.Writer = os.Stderr
	case flagEphemeral:
		lc.Writer = io.Discard
	default:
		lc.File = cfg.LogPath()
	}
	return logging.Setup(lc)
}

func openStore(cfg config.Config) (store.KV, error) {
	if flagEphemeral {
		return store.NewMemory(), nil
	}
	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return db, nil
}

func newAdvisor(cfg config.Config, logger *slog.Logger) *advisor.Advisor {
	return advisor.NewFromConfig(advisor.AnthropicConfig{
		APIKey:    config.GetAPIKey(cfg),
		Model:     cfg.Advisor.Model,
		MaxTokens: cfg.Advisor.MaxTokens,
		BaseURL:   cfg.Advisor.BaseURL,
		Timeout:   cfg.AdvisorTimeout(),
	}, logger)
}

func budgetFrom(cfg config.Config) decimal.Decimal {
	if cfg.Budget.Monthly == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*cfg.Budget.Monthly)
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

const emptyHint = "  No subscriptions yet. Add one with `subtrack add`.\n"
