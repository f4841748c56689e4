package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/spf13/cobra"
)

// overlapColumns is the fixed column order of the overlap report.
var overlapColumns = []string{"UNIQUE_ID", "JOB_COUNT", "JOBS"}

// NewOverlapCommand creates the overlap command.
func NewOverlapCommand() *cobra.Command {
	var environmentID int64

	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Find models executed by more than one job",
		Long: `Inspect the latest successful run of every job and report the models
that appear in more than one job's model set. Each extra execution of
an overlapping model is redundant work.

Jobs that never succeeded are skipped and counted; jobs whose most
recent run is still in flight are analyzed via their latest successful
run.`,
		Example: `  # Overlap across the whole account
  dbtlens overlap

  # One environment only
  dbtlens overlap --environment 9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOverlap(cmd, environmentID)
		},
	}

	cmd.Flags().Int64Var(&environmentID, "environment", 0, "Restrict analysis to one environment (default from config)")
	return cmd
}

func runOverlap(cmd *cobra.Command, environmentID int64) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if environmentID == 0 {
		environmentID = cmdCtx.Cfg.EnvironmentID
	}

	analyzer := analyze.NewOverlapAnalyzer(cmdCtx.Client, cmdCtx.Logger)
	overlapReport, err := analyzer.Analyze(cmd.Context(), environmentID, cmdCtx.Cfg.JobTypeFilter())
	if err != nil {
		return err
	}

	overlapping := overlapReport.OverlappingModels()
	tableRows := make([][]any, len(overlapping))
	for i, model := range overlapping {
		names := make([]string, len(model.Jobs))
		for j, job := range model.Jobs {
			names[j] = fmt.Sprintf("%s (%d)", job.JobName, job.JobID)
		}
		tableRows[i] = []any{model.UniqueID, len(model.Jobs), strings.Join(names, ", ")}
	}

	rep := &report{columns: overlapColumns, rows: tableRows, value: overlapReport}
	if err := rep.render(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat != "json" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"%d jobs analyzed (%d skipped, %d never succeeded, %d running); %d overlapping models, %d redundant executions (%.1f%% of models)\n",
			overlapReport.JobsAnalyzed, overlapReport.JobsSkipped,
			overlapReport.JobsNeverSucceeded, overlapReport.JobsRunning,
			len(overlapping), overlapReport.RedundantExecutions(), overlapReport.OverlapRate())
	}
	return nil
}
