package analyze

// overlap.go - Cross-job duplicate execution analysis

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/dbtlens/internal/dbtcloud"
)

// JobFetcher retrieves jobs and their runs. Satisfied by *dbtcloud.Client.
type JobFetcher interface {
	ArtifactFetcher
	ListJobs(ctx context.Context, environmentID int64) ([]dbtcloud.Job, error)
	LatestRun(ctx context.Context, jobID int64) (*dbtcloud.Run, error)
	LatestSuccessfulRun(ctx context.Context, jobID int64) (*dbtcloud.Run, error)
}

// JobRunRef identifies the run that executed a model for one job.
type JobRunRef struct {
	JobName string `json:"job_name"`
	JobID   int64  `json:"job_id"`
	RunID   int64  `json:"run_id"`
}

// JobModels is the model set of one job's latest successful run.
type JobModels struct {
	JobName string   `json:"job_name"`
	JobID   int64    `json:"job_id"`
	RunID   int64    `json:"run_id"`
	Models  []string `json:"models"`
}

// OverlapReport summarizes which models the latest successful run of more
// than one job executed. The model index is rebuilt per invocation and not
// persisted.
type OverlapReport struct {
	// ModelToJobs maps every observed model id to the jobs that ran it
	ModelToJobs map[string][]JobRunRef `json:"model_to_jobs"`
	// JobToModels lists the analyzed jobs and their model sets
	JobToModels []JobModels `json:"job_to_models"`

	JobsAnalyzed       int `json:"jobs_analyzed"`
	JobsSkipped        int `json:"jobs_skipped"`
	JobsRunning        int `json:"jobs_running"`
	JobsNeverSucceeded int `json:"jobs_never_succeeded"`
}

// OverlappingModels returns the models executed by more than one job,
// sorted by descending job count.
func (r *OverlapReport) OverlappingModels() []ModelOverlap {
	var overlaps []ModelOverlap
	for model, jobs := range r.ModelToJobs {
		if len(jobs) > 1 {
			overlaps = append(overlaps, ModelOverlap{UniqueID: model, Jobs: jobs})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool {
		if len(overlaps[i].Jobs) != len(overlaps[j].Jobs) {
			return len(overlaps[i].Jobs) > len(overlaps[j].Jobs)
		}
		return overlaps[i].UniqueID < overlaps[j].UniqueID
	})
	return overlaps
}

// RedundantExecutions counts executions beyond the first for every
// overlapping model.
func (r *OverlapReport) RedundantExecutions() int {
	total := 0
	for _, jobs := range r.ModelToJobs {
		if len(jobs) > 1 {
			total += len(jobs) - 1
		}
	}
	return total
}

// OverlapRate returns the share of observed models that overlap, in percent.
func (r *OverlapReport) OverlapRate() float64 {
	if len(r.ModelToJobs) == 0 {
		return 0
	}
	overlapping := 0
	for _, jobs := range r.ModelToJobs {
		if len(jobs) > 1 {
			overlapping++
		}
	}
	return float64(overlapping) / float64(len(r.ModelToJobs)) * 100
}

// ModelOverlap is one overlapping model and the jobs executing it.
type ModelOverlap struct {
	UniqueID string      `json:"unique_id"`
	Jobs     []JobRunRef `json:"jobs"`
}

// OverlapAnalyzer builds overlap reports from each job's latest successful run.
type OverlapAnalyzer struct {
	fetcher JobFetcher
	logger  *slog.Logger
}

// NewOverlapAnalyzer creates an analyzer. A nil logger discards output.
func NewOverlapAnalyzer(fetcher JobFetcher, logger *slog.Logger) *OverlapAnalyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &OverlapAnalyzer{fetcher: fetcher, logger: logger}
}

// Analyze inspects every job matching jobTypes in the environment. Only each
// job's single latest successful run is fetched. Jobs with no successful run
// are counted as never-succeeded and skipped, not failed; jobs whose most
// recent run is still in flight are analyzed via their latest successful run
// and counted as running.
func (a *OverlapAnalyzer) Analyze(ctx context.Context, environmentID int64, jobTypes []dbtcloud.JobType) (*OverlapReport, error) {
	jobs, err := a.fetcher.ListJobs(ctx, environmentID)
	if err != nil {
		return nil, err
	}
	jobs = dbtcloud.FilterJobsByType(jobs, jobTypes)

	report := &OverlapReport{ModelToJobs: make(map[string][]JobRunRef)}

	for _, job := range jobs {
		if err := a.analyzeJob(ctx, job, report); err != nil {
			a.logger.Warn("skipping job", "job_id", job.ID, "job_name", job.Name, "error", err)
			report.JobsSkipped++
		}
	}

	a.logger.Info("overlap analysis complete",
		"jobs_analyzed", report.JobsAnalyzed,
		"jobs_skipped", report.JobsSkipped,
		"models", len(report.ModelToJobs))
	return report, nil
}

// analyzeJob adds one job's latest successful model set to the report.
// A nil error with no contribution only happens for never-succeeded jobs,
// which are tallied directly.
func (a *OverlapAnalyzer) analyzeJob(ctx context.Context, job dbtcloud.Job, report *OverlapReport) error {
	latest, err := a.fetcher.LatestRun(ctx, job.ID)
	if err != nil {
		return err
	}
	if latest != nil && latest.InFlight() {
		report.JobsRunning++
		a.logger.Debug("job currently running, using latest successful run", "job_id", job.ID)
	}

	successful, err := a.fetcher.LatestSuccessfulRun(ctx, job.ID)
	if err != nil {
		return err
	}
	if successful == nil {
		report.JobsNeverSucceeded++
		report.JobsSkipped++
		return nil
	}

	models, err := a.collectRunModels(ctx, successful.ID)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		report.JobsSkipped++
		return nil
	}

	report.JobToModels = append(report.JobToModels, JobModels{
		JobName: job.Name,
		JobID:   job.ID,
		RunID:   successful.ID,
		Models:  models,
	})
	for _, model := range models {
		report.ModelToJobs[model] = append(report.ModelToJobs[model], JobRunRef{
			JobName: job.Name,
			JobID:   job.ID,
			RunID:   successful.ID,
		})
	}
	report.JobsAnalyzed++
	return nil
}

// collectRunModels gathers the distinct model ids a run executed, across its
// execute steps (or the default artifact when no step matches). Membership
// only needs ids, so the model prefix on the unique id stands in for a
// manifest lookup here.
func (a *OverlapAnalyzer) collectRunModels(ctx context.Context, runID int64) ([]string, error) {
	seen := make(map[string]bool)

	addResults := func(results *dbtcloud.RunResults) {
		for _, result := range results.Results {
			if strings.HasPrefix(result.UniqueID, "model.") {
				seen[result.UniqueID] = true
			}
		}
	}

	runSteps, err := a.fetcher.FetchRunSteps(ctx, runID)
	var execute []Step
	if err == nil {
		steps := make([]Step, 0, len(runSteps))
		for _, s := range runSteps {
			steps = append(steps, Step{Index: s.Index, Name: s.Name})
		}
		execute = ClassifySteps(steps)
	}

	if len(execute) > 0 {
		for _, step := range execute {
			results, err := a.fetcher.FetchRunResults(ctx, runID, step.Index)
			if err != nil {
				a.logger.Debug("step results unavailable", "run_id", runID, "step", step.Index, "error", err)
				continue
			}
			addResults(results)
		}
	} else {
		results, err := a.fetcher.FetchRunResults(ctx, runID, -1)
		if err != nil {
			return nil, err
		}
		addResults(results)
	}

	models := make([]string, 0, len(seen))
	for model := range seen {
		models = append(models, model)
	}
	sort.Strings(models)
	return models, nil
}
