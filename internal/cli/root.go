// Package cli provides the command-line interface for dbtlens.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/dbtlens/internal/cli/commands"
	"github.com/leapstack-labs/dbtlens/internal/cli/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbtlens",
		Short: "dbtlens - dbt Cloud run telemetry analyzer",
		Long: `dbtlens analyzes execution telemetry from dbt Cloud: freshness
configuration coverage, per-model run statuses, reuse rate, SLO
compliance, cost and ROI estimates, and cross-job overlap.

Credentials come from dbtlens.yaml, DBTLENS_-prefixed environment
variables, or flags.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			// Store config and logger in context
			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), newLogger(cmd, cfg.Verbose))
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Run telemetry analyzer for dbt Cloud
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dbtlens.yaml)")
	rootCmd.PersistentFlags().String("api-base", "", "dbt Cloud instance URL")
	rootCmd.PersistentFlags().String("api-key", "", "dbt Cloud API token")
	rootCmd.PersistentFlags().Int64("account-id", 0, "dbt Cloud account id")
	rootCmd.PersistentFlags().Int64("environment-id", 0, "dbt Cloud environment id")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Concurrent run analyses")
	rootCmd.PersistentFlags().Int("days", 0, "Only analyze runs created within this many days")
	rootCmd.PersistentFlags().String("history-path", "", "Path to the history database")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|csv|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewFreshnessCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewCostCommand())
	rootCmd.AddCommand(commands.NewOverlapCommand())
	rootCmd.AddCommand(commands.NewEnvCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	// Return default config if none in context
	return &config.Config{
		APIBase:      config.DefaultAPIBase,
		Concurrency:  config.DefaultConcurrency,
		PageSize:     config.DefaultPageSize,
		MaxRuns:      config.DefaultMaxRuns,
		Days:         config.DefaultDays,
		CostPerHour:  config.DefaultCostPerHour,
		OutputFormat: config.DefaultOutput,
	}
}

// newLogger builds the CLI logger. Verbose mode logs key-value records to
// stderr at debug level; otherwise output is discarded.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
