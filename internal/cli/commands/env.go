package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
	"github.com/spf13/cobra"
)

// envColumns is the fixed column order of the environment overview.
var envColumns = []string{
	"NAME", "PACKAGE", "LAST_STATUS", "MATERIALIZED",
	"HOURS_SINCE_RUN", "EXPECTED_HOURS", "OUTSIDE_SLO",
}

// NewEnvCommand creates the env command.
func NewEnvCommand() *cobra.Command {
	var (
		environmentID int64
		metadataURL   string
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Environment overview from the Discovery API",
		Long: `Query the Discovery (GraphQL) API for every applied model in an
environment and report reuse and SLO compliance: how long ago each model
last executed versus its configured build_after interval.`,
		Example: `  # Overview of the configured environment
  dbtlens env

  # A specific environment
  dbtlens env --environment 9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnv(cmd, environmentID, metadataURL)
		},
	}

	cmd.Flags().Int64Var(&environmentID, "environment", 0, "Environment to inspect (default from config)")
	cmd.Flags().StringVar(&metadataURL, "metadata-url", "", "Discovery API endpoint (default multi-tenant)")
	return cmd
}

func runEnv(cmd *cobra.Command, environmentID int64, metadataURL string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if environmentID == 0 {
		environmentID = cmdCtx.Cfg.EnvironmentID
	}
	if environmentID == 0 {
		return fmt.Errorf("environment_id is required (set DBTLENS_ENVIRONMENT_ID or use --environment)")
	}

	metadata := dbtcloud.NewMetadataClient(cmdCtx.Client, metadataURL, cmdCtx.Cfg.PageSize)
	models, err := metadata.ListEnvironmentModels(cmd.Context(), environmentID)
	if err != nil {
		return err
	}

	envReport := analyze.BuildEnvironmentReport(models, time.Now())

	tableRows := make([][]any, len(envReport.Rows))
	for i, row := range envReport.Rows {
		tableRows[i] = []any{
			row.Name, row.PackageName, row.LastRunStatus, row.Materialization,
			row.HoursSinceRun, row.ExpectedHours, row.OutsideSLO,
		}
	}

	rep := &report{columns: envColumns, rows: tableRows, value: envReport}
	if err := rep.render(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat != "json" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"%d models, %d reused last run (%.1f%%), %d with freshness, %d outside SLO\n",
			envReport.TotalModels, envReport.ReusedModels, envReport.ReuseRate(),
			envReport.WithFreshness, envReport.OutsideSLO)
	}
	return nil
}
