package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/spf13/cobra"
)

// freshnessColumns is the fixed column order of the coverage report.
var freshnessColumns = []string{
	"UNIQUE_ID", "TYPE", "NAME", "CONFIGURED",
	"WARN_COUNT", "WARN_PERIOD", "ERROR_COUNT", "ERROR_PERIOD",
	"BUILD_COUNT", "BUILD_PERIOD", "UPDATES_ON",
}

// NewFreshnessCommand creates the freshness command.
func NewFreshnessCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "freshness <run-id>",
		Short: "Report freshness-configuration coverage for a run",
		Long: `Fetch the manifest of a run and report which models and sources
carry a freshness configuration.

Models count as configured with any non-empty freshness config; sources
only count when a warn_after or error_after count is set.`,
		Example: `  # Coverage for run 12345
  dbtlens freshness 12345

  # Save the snapshot to the history database
  dbtlens freshness 12345 --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid run id %q: %w", args[0], err)
			}
			return runFreshness(cmd, runID, save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Persist the snapshot to the history database")
	return cmd
}

func runFreshness(cmd *cobra.Command, runID int64, save bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	manifest, err := cmdCtx.Client.FetchManifest(ctx, runID)
	if err != nil {
		return err
	}

	rows := analyze.FreshnessReport(manifest)

	if save {
		store, err := cmdCtx.openHistory(true)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		id, err := store.SaveFreshnessRows(ctx, cmdCtx.Cfg.AccountID, rows)
		if err != nil {
			return err
		}
		cmdCtx.Logger.Info("snapshot saved", "analysis_id", id, "rows", len(rows))
	}

	configured := 0
	tableRows := make([][]any, len(rows))
	for i, row := range rows {
		if row.IsConfigured {
			configured++
		}
		tableRows[i] = []any{
			row.UniqueID, row.ResourceType, row.Name, row.IsConfigured,
			row.WarnAfterCount, row.WarnAfterPeriod,
			row.ErrorAfterCount, row.ErrorAfterPeriod,
			row.BuildAfterCount, row.BuildAfterPeriod, row.UpdatesOn,
		}
	}

	rep := &report{columns: freshnessColumns, rows: tableRows, value: rows}
	if err := rep.render(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat != "json" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d of %d nodes have freshness configured\n", configured, len(rows))
	}
	return nil
}
