package commands

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/dbtlens/internal/analyze"
	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
	"github.com/spf13/cobra"
)

// statusColumns is the fixed column order of the run-status report.
var statusColumns = []string{
	"RUN_ID", "JOB", "UNIQUE_ID", "STATUS", "SECONDS", "STARTED_AT",
}

// createdAtLayouts covers the timestamp formats the Admin API emits.
var createdAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000000-07:00",
	"2006-01-02 15:04:05-07:00",
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	var (
		jobID   int64
		maxRuns int
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Reconcile per-model execution statuses across recent runs",
		Long: `Fetch recent runs, reconcile each run's artifacts into one status per
model, and report the reuse rate across the batch.

Runs older than the configured window (days) are excluded. Runs whose
artifacts cannot be fetched are reported as failures without aborting
the rest of the batch.`,
		Example: `  # Analyze the most recent runs
  dbtlens status

  # Analyze one job's runs and save the snapshot
  dbtlens status --job 123 --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jobID, maxRuns, save)
		},
	}

	cmd.Flags().Int64Var(&jobID, "job", 0, "Restrict analysis to one job definition")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 0, "Maximum number of runs to analyze (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the snapshot to the history database")
	return cmd
}

func runStatus(cmd *cobra.Command, jobID int64, maxRuns int, save bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	result, err := analyzeBatch(cmd, cmdCtx, jobID, maxRuns)
	if err != nil {
		return err
	}

	if save {
		store, err := cmdCtx.openHistory(true)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		id, err := store.SaveModelStatuses(ctx, cmdCtx.Cfg.AccountID, result.Records)
		if err != nil {
			return err
		}
		cmdCtx.Logger.Info("snapshot saved", "analysis_id", id, "runs", len(result.Records))
	}

	var tableRows [][]any
	for _, record := range result.Records {
		for _, model := range record.Models {
			tableRows = append(tableRows, []any{
				record.RunID, record.JobName, model.UniqueID,
				model.Status, model.ExecutionTime, model.StartedAt,
			})
		}
	}

	rep := &report{columns: statusColumns, rows: tableRows, value: result.Records}
	if err := rep.render(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat); err != nil {
		return err
	}

	if cmdCtx.Cfg.OutputFormat != "json" {
		summary := analyze.Summarize(result.AllModels())
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"%d runs analyzed, %d failed; %d model executions, reuse rate %.1f%%\n",
			len(result.Records), len(result.Failures), summary.Total, summary.ReuseRate())
		for _, failure := range result.Failures {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "run %d failed: %v\n", failure.RunID, failure.Err)
		}
	}
	return nil
}

// analyzeBatch lists recent runs and reconciles them with bounded concurrency.
func analyzeBatch(cmd *cobra.Command, cmdCtx *CommandContext, jobID int64, maxRuns int) (*analyze.BatchResult, error) {
	cfg := cmdCtx.Cfg
	if maxRuns <= 0 {
		maxRuns = cfg.MaxRuns
	}

	runs, err := cmdCtx.Client.ListRuns(cmd.Context(), dbtcloud.ListRunsOptions{
		JobID:          jobID,
		Statuses:       cfg.StatusCodes(),
		Limit:          maxRuns,
		IncludeRelated: []string{"job"},
	})
	if err != nil {
		return nil, err
	}
	runs = filterRunsByAge(runs, cfg.Days, time.Now())
	if len(runs) == 0 {
		return &analyze.BatchResult{}, nil
	}

	descriptors := make([]analyze.RunDescriptor, len(runs))
	for i, run := range runs {
		desc := analyze.RunDescriptor{
			RunID:     run.ID,
			CreatedAt: run.CreatedAt,
			JobID:     run.JobDefinitionID,
			RunStatus: run.Status,
		}
		if run.Job != nil {
			desc.JobName = run.Job.Name
		}
		descriptors[i] = desc
	}

	batch := analyze.NewBatchAnalyzer(
		analyze.NewRunAnalyzer(cmdCtx.Client, cmdCtx.Logger),
		cfg.Concurrency,
		cmdCtx.Logger,
	)
	return batch.AnalyzeRuns(cmd.Context(), descriptors)
}

// filterRunsByAge drops runs created more than days ago. Runs with an
// unparseable timestamp are kept.
func filterRunsByAge(runs []dbtcloud.Run, days int, now time.Time) []dbtcloud.Run {
	if days <= 0 {
		return runs
	}
	cutoff := now.AddDate(0, 0, -days)

	var kept []dbtcloud.Run
	for _, run := range runs {
		created, ok := parseCreatedAt(run.CreatedAt)
		if ok && created.Before(cutoff) {
			continue
		}
		kept = append(kept, run)
	}
	return kept
}

func parseCreatedAt(s string) (time.Time, bool) {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
