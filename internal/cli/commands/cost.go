package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/spf13/cobra"
)

// costColumns is the fixed column order of the cost report.
var costColumns = []string{
	"RUN_ID", "JOB", "UNIQUE_ID", "STATUS", "SECONDS", "COST", "SAVINGS",
}

// NewCostCommand creates the cost command.
func NewCostCommand() *cobra.Command {
	var (
		jobID       int64
		maxRuns     int
		costPerHour float64
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Estimate execution cost and reuse savings across recent runs",
		Long: `Reconcile recent runs and price every model execution at the configured
hourly rate. Reused and skipped executions cost nothing; their savings
are estimated from the mean successful execution time of the same model.`,
		Example: `  # Cost report at the configured rate
  dbtlens cost

  # One job at $2.50 per compute hour
  dbtlens cost --job 123 --cost-per-hour 2.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCost(cmd, jobID, maxRuns, costPerHour)
		},
	}

	cmd.Flags().Int64Var(&jobID, "job", 0, "Restrict analysis to one job definition")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "Maximum number of runs to analyze (default from config)")
	cmd.Flags().Float64Var(&costPerHour, "cost-per-hour", 0, "Compute cost per hour (default from config)")
	return cmd
}

func runCost(cmd *cobra.Command, jobID int64, maxRuns int, costPerHour float64) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if costPerHour <= 0 {
		costPerHour = cmdCtx.Cfg.CostPerHour
	}

	result, err := analyzeBatch(cmd, cmdCtx, jobID, maxRuns)
	if err != nil {
		return err
	}

	costReport := analyze.CalculateCosts(result, costPerHour)

	tableRows := make([][]any, len(costReport.Rows))
	for i, row := range costReport.Rows {
		tableRows[i] = []any{
			row.RunID, row.JobName, row.UniqueID,
			row.Status, row.Seconds, row.Cost, row.Savings,
		}
	}

	rep := &report{columns: costColumns, rows: tableRows, value: costReport}
	if err := rep.render(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat != "json" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"total cost $%.2f, estimated savings $%.2f, ROI %.1f%% (at $%.2f/h)\n",
			costReport.TotalCost, costReport.TotalSavings, costReport.ROI(), costPerHour)
	}
	return nil
}
